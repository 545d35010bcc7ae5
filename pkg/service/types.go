package service

import "time"

// State represents the lifecycle state of a Registry.
//
// The state is monotonic within one registry instance: it only ever moves
// forward through Ready, Started, ShuttingDown and Stopped, and a stopped
// registry is not restarted.
type State int

const (
	// StateReady is the initial state; hosts may be registered and
	// registry-wide defaults may be changed.
	StateReady State = iota
	// StateStarted means StartAll has run; every registered host is started
	// and late registrations are started on arrival.
	StateStarted
	// StateShuttingDown means StopAll has begun but not every host has been
	// stopped yet. Configuration changes are rejected.
	StateShuttingDown
	// StateStopped is the terminal state for a registry instance.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateStarted:
		return "started"
	case StateShuttingDown:
		return "shutting down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Registry-wide defaults applied to every host at registration time.
const (
	// DefaultKeepClean enables periodic purging of unresponsive sessions.
	DefaultKeepClean = true
	// DefaultWaitTime is the time a host waits for a protocol-level response,
	// such as a pong or a close acknowledgement.
	DefaultWaitTime = time.Second
)

// CloseCode represents a WebSocket close status code per RFC 6455. It is part
// of the registry's stop contract: bulk and per-host stops carry a close code
// and a human-readable reason down to every session the host still holds.
type CloseCode int

const (
	// CloseNormalClosure indicates a normal closure (1000).
	CloseNormalClosure CloseCode = 1000
	// CloseGoingAway indicates the endpoint is going away (1001).
	CloseGoingAway CloseCode = 1001
	// CloseProtocolError indicates a protocol error (1002).
	CloseProtocolError CloseCode = 1002
	// CloseUnsupportedData indicates unsupported data type (1003).
	CloseUnsupportedData CloseCode = 1003
	// CloseNoStatusReceived indicates no status code was received (1005).
	CloseNoStatusReceived CloseCode = 1005
	// CloseAbnormalClosure indicates abnormal closure (1006).
	CloseAbnormalClosure CloseCode = 1006
	// CloseInvalidPayload indicates invalid UTF-8 in a text message (1007).
	CloseInvalidPayload CloseCode = 1007
	// ClosePolicyViolation indicates a policy violation (1008).
	ClosePolicyViolation CloseCode = 1008
	// CloseMessageTooBig indicates the message is too large (1009).
	CloseMessageTooBig CloseCode = 1009
	// CloseMandatoryExtension indicates a missing mandatory extension (1010).
	CloseMandatoryExtension CloseCode = 1010
	// CloseInternalError indicates an internal server error (1011).
	CloseInternalError CloseCode = 1011
	// CloseServiceRestart indicates a service restart (1012).
	CloseServiceRestart CloseCode = 1012
	// CloseTryAgainLater indicates the client should try again later (1013).
	CloseTryAgainLater CloseCode = 1013
	// CloseTLSHandshake indicates a TLS handshake failure (1015).
	CloseTLSHandshake CloseCode = 1015
)

// String returns a human-readable description of the close code.
func (c CloseCode) String() string {
	switch c {
	case CloseNormalClosure:
		return "normal closure"
	case CloseGoingAway:
		return "going away"
	case CloseProtocolError:
		return "protocol error"
	case CloseUnsupportedData:
		return "unsupported data"
	case CloseNoStatusReceived:
		return "no status received"
	case CloseAbnormalClosure:
		return "abnormal closure"
	case CloseInvalidPayload:
		return "invalid payload"
	case ClosePolicyViolation:
		return "policy violation"
	case CloseMessageTooBig:
		return "message too big"
	case CloseMandatoryExtension:
		return "mandatory extension"
	case CloseInternalError:
		return "internal error"
	case CloseServiceRestart:
		return "service restart"
	case CloseTryAgainLater:
		return "try again later"
	case CloseTLSHandshake:
		return "TLS handshake"
	default:
		return "unknown"
	}
}

// Host is the capability set the registry requires of a per-endpoint service
// host. A host owns its own sessions and I/O; the registry only registers,
// configures and life-cycles it.
//
// Start must not block; it activates the host so it begins accepting traffic.
// Stop may block while the host completes close handshakes with its sessions,
// which is why the registry never calls it while holding its own lock.
type Host interface {
	// Path returns the canonical endpoint path this host serves.
	Path() string
	// Start activates the host.
	Start()
	// Stop deactivates the host, closing every session it still holds with
	// the given close code and reason.
	Stop(code CloseCode, reason string)
	// IsRunning reports whether the host is accepting sessions.
	IsRunning() bool
	// KeepClean reports whether the host periodically purges unresponsive
	// sessions.
	KeepClean() bool
	// SetKeepClean enables or disables the periodic purge.
	SetKeepClean(enabled bool)
	// WaitTime returns the time the host waits for protocol-level responses.
	WaitTime() time.Duration
	// SetWaitTime sets the time the host waits for protocol-level responses.
	SetWaitTime(d time.Duration)
}

// HostFactory constructs the host for a canonical path. The factory is
// supplied by the caller at registration time and encapsulates everything the
// registry does not care about: transport, session handling, behavior.
type HostFactory func(path string) Host
