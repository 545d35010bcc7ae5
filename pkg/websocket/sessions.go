package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/getmockd/wshost/pkg/service"
)

// SessionManager tracks the active sessions of one host.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// Add registers a session.
func (m *SessionManager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
}

// Remove unregisters a session.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Get returns a session by ID.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// IDs returns a snapshot of the active session IDs.
func (m *SessionManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// snapshot copies the current session set.
func (m *SessionManager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Broadcast sends a message to every active session and returns the number of
// sessions it was delivered to.
func (m *SessionManager) Broadcast(msgType MessageType, data []byte) int {
	sent := 0
	for _, s := range m.snapshot() {
		if s.IsClosed() {
			continue
		}
		if err := s.Send(msgType, data); err == nil {
			sent++
		}
	}
	return sent
}

// BroadcastText sends a text message to every active session.
func (m *SessionManager) BroadcastText(text string) int {
	return m.Broadcast(MessageText, []byte(text))
}

// CloseAll closes every session with the given close code and reason and
// empties the set. The map is emptied first so no session is reachable while
// its close handshake is still in flight.
func (m *SessionManager) CloseAll(code service.CloseCode, reason string) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close(code, reason)
	}
}

// Sweep pings every active session, waiting up to waitTime for each pong, and
// closes the sessions that do not respond. It returns the number of sessions
// swept away.
func (m *SessionManager) Sweep(ctx context.Context, waitTime time.Duration, logger *slog.Logger) int {
	swept := 0
	for _, s := range m.snapshot() {
		if s.IsClosed() {
			m.Remove(s.ID())
			continue
		}

		pingCtx, cancel := context.WithTimeout(ctx, waitTime)
		err := s.Ping(pingCtx)
		cancel()

		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			// The sweeper itself is being stopped.
			return swept
		}

		if logger != nil {
			logger.Debug("sweeping unresponsive session",
				"session", s.ID(),
				"path", s.Path())
		}
		_ = s.Close(service.CloseGoingAway, "ping timeout")
		m.Remove(s.ID())
		swept++
	}
	return swept
}
