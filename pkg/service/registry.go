package service

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getmockd/wshost/pkg/logging"
)

// Registry is a concurrency-safe collection of service hosts keyed by
// canonical endpoint path, together with the registry-wide lifecycle state
// and defaults.
//
// One mutex guards the host map, the state and both defaults, so no caller
// ever observes a torn combination of them. Blocking work against hosts
// (close handshakes during Remove, Clear and StopAll) always happens after
// the lock is released, against a snapshot taken under it, so lookups and
// registrations are never stalled by a slow-closing peer.
type Registry struct {
	mu        sync.Mutex
	hosts     map[string]Host
	state     State
	keepClean bool
	waitTime  time.Duration
	logger    *slog.Logger
}

// NewRegistry creates an empty registry in StateReady with the package
// defaults. A nil logger is replaced with a no-op logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Registry{
		hosts:     make(map[string]Host),
		state:     StateReady,
		keepClean: DefaultKeepClean,
		waitTime:  DefaultWaitTime,
		logger:    logger,
	}
}

// State returns the current lifecycle state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// KeepClean returns the registry-wide keep-clean default.
func (r *Registry) KeepClean() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keepClean
}

// WaitTime returns the registry-wide wait time default.
func (r *Registry) WaitTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waitTime
}

// Count returns the number of registered hosts.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hosts)
}

// Paths returns a point-in-time snapshot of the registered canonical paths.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.hosts))
	for p := range r.hosts {
		paths = append(paths, p)
	}
	return paths
}

// Hosts returns a point-in-time snapshot of the registered hosts.
func (r *Registry) Hosts() []Host {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Lookup returns the host registered for path. The boolean reports whether
// the path is registered; a missing path is not an error, only a malformed
// one is.
func (r *Registry) Lookup(path string) (Host, bool, error) {
	canonical, err := ValidatePath(path)
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hosts[canonical]
	return h, ok, nil
}

// Register validates path, constructs a host via factory and adds it under
// the canonical path. The registry defaults are applied to the new host, and
// if the registry has already started the host is started before Register
// returns, so it may begin accepting traffic immediately.
//
// Returns ErrInvalidPath for a malformed path and ErrDuplicatePath if the
// canonical path is already in use.
func (r *Registry) Register(path string, factory HostFactory) (Host, error) {
	canonical, err := ValidatePath(path)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, ErrNilFactory
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.hosts[canonical]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, canonical)
	}

	host := factory(canonical)
	if host == nil {
		return nil, ErrNilHost
	}

	// Push defaults only where they differ from what the host was built with.
	if host.KeepClean() != r.keepClean {
		host.SetKeepClean(r.keepClean)
	}
	if host.WaitTime() != r.waitTime {
		host.SetWaitTime(r.waitTime)
	}

	// Late registration into a running registry activates on arrival.
	if r.state == StateStarted {
		r.startHost(host)
	}

	r.hosts[canonical] = host
	return host, nil
}

// Remove validates path and removes its host if present. The boolean reports
// whether a host was removed; removing an unregistered path is a no-op, not a
// failure. A removed host that was running is stopped with a going-away close
// after the registry lock has been released.
func (r *Registry) Remove(path string) (bool, error) {
	canonical, err := ValidatePath(path)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	host, found := r.hosts[canonical]
	if found {
		delete(r.hosts, canonical)
	}
	r.mu.Unlock()

	if !found {
		return false, nil
	}

	if host.IsRunning() {
		r.stopHost(host, CloseGoingAway, "the service host was removed")
	}
	return true, nil
}

// Clear removes every host in one step and then stops each one that was
// running with a going-away close. The map is emptied under the lock; the
// blocking stops happen against the snapshot afterwards.
func (r *Registry) Clear() {
	r.mu.Lock()
	hosts := r.snapshotLocked()
	r.hosts = make(map[string]Host)
	r.mu.Unlock()

	for _, h := range hosts {
		if h.IsRunning() {
			r.stopHost(h, CloseGoingAway, "the service registry was cleared")
		}
	}
}

// SetKeepClean sets the registry-wide keep-clean default and pushes it to
// every currently registered host. The change is rejected as a logged no-op
// once the registry has started or is shutting down; an administrative caller
// racing server startup is expected and must not fail.
func (r *Registry) SetKeepClean(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.canConfigureLocked() {
		r.logger.Warn("keep-clean change rejected",
			"state", r.state.String(),
			"requested", enabled)
		return
	}

	r.keepClean = enabled
	for _, h := range r.hosts {
		h.SetKeepClean(enabled)
	}
}

// SetWaitTime sets the registry-wide wait time default and pushes it to every
// currently registered host. A zero or negative value fails with
// ErrInvalidWaitTime regardless of lifecycle state. Like SetKeepClean, the
// change is rejected as a logged no-op once the registry has started or is
// shutting down.
//
// The default update and the fan-out happen under one lock acquisition so a
// concurrent Register can never apply a stale default to a brand-new host.
func (r *Registry) SetWaitTime(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidWaitTime, d)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.canConfigureLocked() {
		r.logger.Warn("wait time change rejected",
			"state", r.state.String(),
			"requested", d)
		return nil
	}

	r.waitTime = d
	for _, h := range r.hosts {
		h.SetWaitTime(d)
	}
	return nil
}

// StartAll starts every currently registered host and moves the registry to
// StateStarted. Hosts registered afterwards are started individually at
// registration time. Calling StartAll in any state but StateReady is a logged
// no-op.
func (r *Registry) StartAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateReady {
		r.logger.Warn("start rejected", "state", r.state.String())
		return
	}

	for _, h := range r.hosts {
		r.startHost(h)
	}
	r.state = StateStarted
}

// StopAll moves the registry to StateShuttingDown, stops every host with the
// given close code and reason, and finishes in StateStopped. The state flips
// to StateShuttingDown before any host is stopped so concurrent configuration
// setters begin failing fast as soon as shutdown begins.
//
// Each host stop is best-effort and isolated: one host failing or hanging
// does not prevent the others from being asked to stop. Calling StopAll in
// any state but StateStarted is a logged no-op.
func (r *Registry) StopAll(code CloseCode, reason string) {
	r.mu.Lock()
	if r.state != StateStarted {
		r.logger.Warn("stop rejected", "state", r.state.String())
		r.mu.Unlock()
		return
	}
	r.state = StateShuttingDown
	hosts := r.snapshotLocked()
	r.mu.Unlock()

	for _, h := range hosts {
		if h.IsRunning() {
			r.stopHost(h, code, reason)
		}
	}

	r.mu.Lock()
	r.state = StateStopped
	r.mu.Unlock()
}

// snapshotLocked copies the current host set. Callers must hold mu.
func (r *Registry) snapshotLocked() []Host {
	hosts := make([]Host, 0, len(r.hosts))
	for _, h := range r.hosts {
		hosts = append(hosts, h)
	}
	return hosts
}

// canConfigureLocked reports whether registry-wide defaults may still change.
// Callers must hold mu.
func (r *Registry) canConfigureLocked() bool {
	return r.state != StateStarted && r.state != StateShuttingDown
}

// startHost starts one host, containing any panic so a misbehaving host
// cannot block the lifecycle of the others.
func (r *Registry) startHost(h Host) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("service host panicked during start",
				"path", h.Path(),
				"panic", v)
		}
	}()
	h.Start()
}

// stopHost stops one host, containing any panic. The registry's contract is
// "attempted to stop", not "confirmed stopped"; a failure inside the host is
// the host's own concern.
func (r *Registry) stopHost(h Host, code CloseCode, reason string) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("service host panicked during stop",
				"path", h.Path(),
				"panic", v)
		}
	}()
	h.Stop(code, reason)
}
