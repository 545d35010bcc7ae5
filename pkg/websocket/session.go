package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"

	"github.com/getmockd/wshost/pkg/service"
)

// Session represents one active WebSocket session on a host.
type Session struct {
	id          string
	path        string
	conn        *ws.Conn
	subprotocol string
	remoteAddr  string
	connectedAt time.Time
	lastActive  atomic.Value // time.Time

	ctx    context.Context
	cancel context.CancelFunc
	sendMu sync.RWMutex // coordinates Send/Ping with Close
	closed atomic.Bool
}

// newSession creates a Session wrapping an accepted connection.
func newSession(conn *ws.Conn, path string, r *http.Request) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:          GenerateSessionID(),
		path:        path,
		conn:        conn,
		subprotocol: conn.Subprotocol(),
		connectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}
	if r != nil {
		s.remoteAddr = r.RemoteAddr
	}
	s.lastActive.Store(s.connectedAt)

	return s
}

// ID returns the unique session ID.
func (s *Session) ID() string {
	return s.id
}

// Path returns the endpoint path this session belongs to.
func (s *Session) Path() string {
	return s.path
}

// Subprotocol returns the negotiated subprotocol.
func (s *Session) Subprotocol() string {
	return s.subprotocol
}

// RemoteAddr returns the peer address of the session.
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

// ConnectedAt returns the session establishment time.
func (s *Session) ConnectedAt() time.Time {
	return s.connectedAt
}

// LastActive returns the time of the last message in either direction.
func (s *Session) LastActive() time.Time {
	v := s.lastActive.Load()
	t, ok := v.(time.Time)
	if !ok {
		return s.connectedAt
	}
	return t
}

// Context returns the session context. It is canceled when the session
// closes, which also unblocks a pending Read.
func (s *Session) Context() context.Context {
	return s.ctx
}

// IsClosed returns whether the session is closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Send sends a message to the peer.
func (s *Session) Send(msgType MessageType, data []byte) error {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}

	if err := s.conn.Write(s.ctx, toWireType(msgType), data); err != nil {
		return err
	}

	s.lastActive.Store(time.Now())
	return nil
}

// SendText sends a text message.
func (s *Session) SendText(text string) error {
	return s.Send(MessageText, []byte(text))
}

// Read reads the next message from the session.
// Close unblocks a pending Read by canceling the session context.
func (s *Session) Read() (MessageType, []byte, error) {
	if s.closed.Load() {
		return 0, nil, ErrSessionClosed
	}

	wireType, data, err := s.conn.Read(s.ctx)
	if err != nil {
		return 0, nil, err
	}

	s.lastActive.Store(time.Now())
	return fromWireType(wireType), data, nil
}

// Ping sends a ping frame and waits for the pong, bounded by ctx.
func (s *Session) Ping(ctx context.Context) error {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.conn.Ping(ctx)
}

// Close closes the session with the given close code and reason. Closing an
// already-closed session returns ErrSessionClosed.
func (s *Session) Close(code service.CloseCode, reason string) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed.Swap(true) {
		return ErrSessionClosed
	}

	s.cancel()
	return s.conn.Close(ws.StatusCode(code), reason)
}
