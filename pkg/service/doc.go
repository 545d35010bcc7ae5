// Package service provides a concurrency-safe registry for per-path service
// hosts and coordinates their collective lifecycle.
//
// A Registry maps canonical endpoint paths (such as "/chat") to Host values.
// Hosts can be registered before or after the registry has started; a host
// registered into an already-started registry is started on arrival. Global
// start and stop iterate every registered host, and registry-wide defaults
// (keep-clean, wait time) fan out to every host.
//
// The registry enforces a single-use lifecycle:
//
//	StateReady -> StateStarted -> StateShuttingDown -> StateStopped
//
// Configuration changes are only accepted while the registry is not started
// and not shutting down; a rejected change is logged and ignored rather than
// surfaced as an error, because administrative callers racing server startup
// is an expected condition.
//
// The package is host-agnostic: anything satisfying the Host interface can be
// registered. Package websocket provides the WebSocket-backed implementation.
package service
