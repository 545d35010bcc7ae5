package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"

	"github.com/getmockd/wshost/pkg/logging"
	"github.com/getmockd/wshost/pkg/service"
)

// Defaults for HostConfig.
const (
	// DefaultReadLimit is the maximum message size in bytes (64KB).
	DefaultReadLimit = 65536
	// DefaultSweepInterval is the time between keep-clean sweeps.
	DefaultSweepInterval = time.Minute
)

// HostConfig defines the construction-time configuration of a Host. The
// zero value is usable; nil is treated as the zero value.
type HostConfig struct {
	// Subprotocols lists supported subprotocols for negotiation.
	Subprotocols []string
	// ReadLimit is the maximum message size in bytes (default: 65536).
	ReadLimit int64
	// SweepInterval is the time between keep-clean sweeps (default: 1m).
	SweepInterval time.Duration
	// Logger receives host events. Defaults to a no-op logger.
	Logger *slog.Logger
}

// Host serves WebSocket sessions for one endpoint path. It satisfies
// service.Host so it can be registered with a service.Registry, which owns
// its lifecycle and pushes the registry-wide defaults into it.
type Host struct {
	path     string
	behavior Behavior
	sessions *SessionManager
	logger   *slog.Logger

	subprotocols  []string
	readLimit     int64
	sweepInterval time.Duration

	mu          sync.RWMutex
	keepClean   bool
	waitTime    time.Duration
	sweepCancel context.CancelFunc

	running atomic.Bool
}

// Interface compliance checks
var (
	_ service.Host = (*Host)(nil)
	_ http.Handler = (*Host)(nil)
)

// NewHost creates a host for path driven by behavior. The keep-clean flag and
// wait time start at the package defaults of the service registry; registering
// the host overrides them with the registry-wide values.
func NewHost(path string, behavior Behavior, cfg *HostConfig) *Host {
	if cfg == nil {
		cfg = &HostConfig{}
	}

	readLimit := cfg.ReadLimit
	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}
	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Host{
		path:          path,
		behavior:      behavior,
		sessions:      NewSessionManager(),
		logger:        logger,
		subprotocols:  cfg.Subprotocols,
		readLimit:     readLimit,
		sweepInterval: sweepInterval,
		keepClean:     service.DefaultKeepClean,
		waitTime:      service.DefaultWaitTime,
	}
}

// Factory returns a service.HostFactory producing hosts driven by behavior.
// Every host built by the factory shares the behavior value.
func Factory(behavior Behavior, cfg *HostConfig) service.HostFactory {
	return func(path string) service.Host {
		return NewHost(path, behavior, cfg)
	}
}

// Path returns the canonical endpoint path this host serves.
func (h *Host) Path() string {
	return h.path
}

// Sessions returns the host's session manager.
func (h *Host) Sessions() *SessionManager {
	return h.sessions
}

// IsRunning reports whether the host is accepting sessions.
func (h *Host) IsRunning() bool {
	return h.running.Load()
}

// KeepClean reports whether the host sweeps unresponsive sessions.
func (h *Host) KeepClean() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.keepClean
}

// SetKeepClean enables or disables the periodic sweep. The sweeper consults
// the flag on every tick, so a change takes effect while the host is running.
func (h *Host) SetKeepClean(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keepClean = enabled
}

// WaitTime returns the time the host waits for protocol-level responses.
func (h *Host) WaitTime() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.waitTime
}

// SetWaitTime sets the time the host waits for protocol-level responses.
func (h *Host) SetWaitTime(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.waitTime = d
}

// Start activates the host so it accepts upgrade requests, and launches the
// keep-clean sweeper. Starting a running host is a no-op.
func (h *Host) Start() {
	if !h.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.sweepCancel = cancel
	h.mu.Unlock()
	go h.runSweeper(ctx)

	h.logger.Info("service host started", "path", h.path)
}

// Stop deactivates the host, stops the sweeper and closes every remaining
// session with the given close code and reason. Stopping a host that is not
// running is a no-op.
func (h *Host) Stop(code service.CloseCode, reason string) {
	if !h.running.CompareAndSwap(true, false) {
		return
	}

	h.mu.Lock()
	cancel := h.sweepCancel
	h.sweepCancel = nil
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	h.sessions.CloseAll(code, reason)
	h.logger.Info("service host stopped",
		"path", h.path,
		"code", int(code),
		"reason", reason)
}

// runSweeper pings every session each interval and closes the unresponsive
// ones. The keep-clean flag is consulted per tick so it can be toggled while
// the host runs.
func (h *Host) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.KeepClean() {
				continue
			}
			if swept := h.sessions.Sweep(ctx, h.WaitTime(), h.logger); swept > 0 {
				h.logger.Info("swept unresponsive sessions",
					"path", h.path,
					"count", swept)
			}
		}
	}
}

// HandleUpgrade handles an HTTP request upgrade to WebSocket. This is the
// main entry point for new sessions.
func (h *Host) HandleUpgrade(w http.ResponseWriter, r *http.Request) error {
	if !h.running.Load() {
		http.Error(w, "service host is not running", http.StatusServiceUnavailable)
		return ErrHostNotRunning
	}

	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		Subprotocols:       h.subprotocols,
		InsecureSkipVerify: true, // origin policy is the owning server's concern
	})
	if err != nil {
		return err
	}
	conn.SetReadLimit(h.readLimit)

	sess := newSession(conn, h.path, r)
	h.sessions.Add(sess)
	h.logger.Debug("session opened",
		"path", h.path,
		"session", sess.ID(),
		"remote", sess.RemoteAddr())

	go h.serve(sess)
	return nil
}

// ServeHTTP implements http.Handler.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Errors have already been written to the response.
	_ = h.HandleUpgrade(w, r)
}

// serve runs the read loop of one session and drives the behavior.
func (h *Host) serve(s *Session) {
	defer func() {
		h.sessions.Remove(s.ID())
		_ = s.Close(service.CloseNormalClosure, "")
		h.behavior.OnClose(s)
		h.logger.Debug("session closed",
			"path", h.path,
			"session", s.ID())
	}()

	h.behavior.OnOpen(s)

	for {
		msgType, data, err := s.Read()
		if err != nil {
			return
		}
		h.behavior.OnMessage(s, msgType, data)
	}
}
