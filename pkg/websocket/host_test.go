package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/getmockd/wshost/pkg/service"
)

func newTestHost(t *testing.T, behavior Behavior) (*Host, *httptest.Server) {
	t.Helper()
	h := NewHost("/echo", behavior, nil)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return h, srv
}

func dialTestHost(t *testing.T, srv *httptest.Server) *ws.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, resp, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return c
}

// waitForSessions polls until the host tracks want sessions or the deadline
// passes.
func waitForSessions(t *testing.T, h *Host, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if h.Sessions().Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d sessions, have %d", want, h.Sessions().Count())
}

func TestHost_EchoRoundTrip(t *testing.T) {
	h, srv := newTestHost(t, EchoBehavior{})
	h.Start()
	defer h.Stop(service.CloseNormalClosure, "test done")

	c := dialTestHost(t, srv)
	defer c.Close(ws.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Write(ctx, ws.MessageText, []byte("hello")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	typ, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if typ != ws.MessageText || string(data) != "hello" {
		t.Errorf("expected text echo %q, got %v %q", "hello", typ, data)
	}
}

func TestHost_RejectsUpgradeWhenNotRunning(t *testing.T) {
	_, srv := newTestHost(t, EchoBehavior{})

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 from a host that is not running, got %d", resp.StatusCode)
	}
}

func TestHost_StopClosesSessionsWithGoingAway(t *testing.T) {
	h, srv := newTestHost(t, EchoBehavior{})
	h.Start()

	c := dialTestHost(t, srv)
	waitForSessions(t, h, 1)

	h.Stop(service.CloseGoingAway, "bye")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := c.Read(ctx)
	if err == nil {
		t.Fatal("expected the session to be closed")
	}
	if status := ws.CloseStatus(err); status != ws.StatusGoingAway {
		t.Errorf("expected close status 1001, got %v (err: %v)", status, err)
	}

	if h.IsRunning() {
		t.Error("host should not be running after Stop")
	}
	if h.Sessions().Count() != 0 {
		t.Errorf("expected no sessions after Stop, got %d", h.Sessions().Count())
	}
}

func TestHost_TracksSessionLifecycle(t *testing.T) {
	h, srv := newTestHost(t, EchoBehavior{})
	h.Start()
	defer h.Stop(service.CloseNormalClosure, "test done")

	c1 := dialTestHost(t, srv)
	c2 := dialTestHost(t, srv)
	waitForSessions(t, h, 2)

	c1.Close(ws.StatusNormalClosure, "")
	waitForSessions(t, h, 1)

	c2.Close(ws.StatusNormalClosure, "")
	waitForSessions(t, h, 0)
}

// recordingBehavior signals every behavior callback over channels.
type recordingBehavior struct {
	opened   chan string
	messages chan string
	closed   chan string
}

func newRecordingBehavior() *recordingBehavior {
	return &recordingBehavior{
		opened:   make(chan string, 8),
		messages: make(chan string, 8),
		closed:   make(chan string, 8),
	}
}

func (b *recordingBehavior) OnOpen(s *Session) { b.opened <- s.ID() }

func (b *recordingBehavior) OnMessage(s *Session, _ MessageType, data []byte) {
	b.messages <- string(data)
}

func (b *recordingBehavior) OnClose(s *Session) { b.closed <- s.ID() }

func recv(t *testing.T, ch chan string, what string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return ""
	}
}

func TestHost_DrivesBehaviorCallbacks(t *testing.T) {
	behavior := newRecordingBehavior()
	h, srv := newTestHost(t, behavior)
	h.Start()
	defer h.Stop(service.CloseNormalClosure, "test done")

	c := dialTestHost(t, srv)

	openedID := recv(t, behavior.opened, "OnOpen")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Write(ctx, ws.MessageText, []byte("ping")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if got := recv(t, behavior.messages, "OnMessage"); got != "ping" {
		t.Errorf("OnMessage got %q, want %q", got, "ping")
	}

	c.Close(ws.StatusNormalClosure, "")
	if closedID := recv(t, behavior.closed, "OnClose"); closedID != openedID {
		t.Errorf("OnClose session %q, want %q", closedID, openedID)
	}
}

func TestSessionManager_SweepKeepsResponsiveSessions(t *testing.T) {
	h, srv := newTestHost(t, EchoBehavior{})
	h.Start()
	defer h.Stop(service.CloseNormalClosure, "test done")

	c := dialTestHost(t, srv)
	defer c.Close(ws.StatusNormalClosure, "")

	// Keep the client reading so pings are answered.
	go func() {
		for {
			if _, _, err := c.Read(context.Background()); err != nil {
				return
			}
		}
	}()

	waitForSessions(t, h, 1)

	swept := h.Sessions().Sweep(context.Background(), 2*time.Second, nil)
	if swept != 0 {
		t.Errorf("expected no sessions swept, got %d", swept)
	}
	if h.Sessions().Count() != 1 {
		t.Errorf("responsive session should survive the sweep, count = %d", h.Sessions().Count())
	}
}

func TestHost_DefaultsMatchRegistryDefaults(t *testing.T) {
	h := NewHost("/x", EchoBehavior{}, nil)

	if h.KeepClean() != service.DefaultKeepClean {
		t.Errorf("keep-clean default = %v, want %v", h.KeepClean(), service.DefaultKeepClean)
	}
	if h.WaitTime() != service.DefaultWaitTime {
		t.Errorf("wait time default = %v, want %v", h.WaitTime(), service.DefaultWaitTime)
	}

	h.SetKeepClean(false)
	h.SetWaitTime(3 * time.Second)
	if h.KeepClean() || h.WaitTime() != 3*time.Second {
		t.Error("setters did not take effect")
	}
}

func TestHost_StartStopIdempotent(t *testing.T) {
	h := NewHost("/x", EchoBehavior{}, nil)

	h.Start()
	h.Start()
	if !h.IsRunning() {
		t.Fatal("host should be running")
	}

	h.Stop(service.CloseNormalClosure, "done")
	h.Stop(service.CloseNormalClosure, "done again")
	if h.IsRunning() {
		t.Fatal("host should not be running")
	}
}
