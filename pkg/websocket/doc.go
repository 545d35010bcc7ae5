// Package websocket provides the WebSocket-backed service host used with the
// service registry.
//
// A Host serves one endpoint path. It accepts HTTP upgrade requests, tracks
// the resulting sessions, drives a caller-supplied Behavior with session
// events, and optionally keeps itself clean by pinging sessions periodically
// and closing the ones that stop responding.
//
// Usage:
//
//	reg := service.NewRegistry(logger)
//	_, err := reg.Register("/echo", websocket.Factory(websocket.EchoBehavior{}, nil))
//	...
//	reg.StartAll()
//
// The package uses github.com/coder/websocket for the underlying WebSocket
// protocol implementation.
package websocket
