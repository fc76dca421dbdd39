package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soar/pdincr/internal/behavior"
	"github.com/soar/pdincr/internal/hub"
	"github.com/soar/pdincr/internal/logging"
)

func newTestServer(t *testing.T) (*httptest.Server, *behavior.Router, *hub.Broadcaster) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := logging.Discard()
	h := hub.NewHub(logger)
	go h.Run(ctx)
	b := hub.NewBroadcaster(h, "pointer", logger)
	go b.Run(ctx)

	move, _ := behavior.NewPipeline("pointer", behavior.Config{Mode: behavior.ModeMove, ScaleFactor: 1}, b, nil)
	scroll, _ := behavior.NewPipeline("scroll", behavior.Config{Mode: behavior.ModeScroll, ScaleFactor: 1}, b, nil)
	router, err := behavior.NewRouter([]*behavior.Pipeline{move, scroll}, "pointer")
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	router.OnSelect(b.BindingSelected)

	frontend := fstest.MapFS{
		"index.html": {Data: []byte("<!doctype html>\n<html>\n  <body>\n    <p>  pointer view  </p>\n  </body>\n</html>\n")},
	}
	srv := httptest.NewServer(New(h, b, router, frontend, "", true, logger).Handler())
	t.Cleanup(srv.Close)
	return srv, router, b
}

func readMessage(t *testing.T, conn *websocket.Conn) hub.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg hub.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocketFlow(t *testing.T) {
	srv, router, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if msg := readMessage(t, conn); msg.Type != hub.TypeFull || msg.Binding != "pointer" {
		t.Fatalf("unexpected initial message %+v", msg)
	}

	if err := router.Process(behavior.Sample{DX: 10, DY: -2}); err != nil {
		t.Fatalf("process: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != hub.TypeMove || msg.Delta == nil || msg.Delta.X != 10 || msg.Delta.Y != -2 {
		t.Fatalf("unexpected move message %+v", msg)
	}

	if err := conn.WriteJSON(hub.ClientMessage{Type: "select_binding", Binding: "scroll"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != hub.TypeBindingSelected || msg.Binding != "scroll" {
		t.Fatalf("unexpected selection message %+v", msg)
	}
	if router.Active() != "scroll" {
		t.Fatalf("router not switched, active %q", router.Active())
	}

	conn.WriteJSON(hub.ClientMessage{Type: "select_binding", Binding: "missing"})
	if msg := readMessage(t, conn); msg.Type != hub.TypeError {
		t.Fatalf("expect error message, got %+v", msg)
	}
}

func TestBindingsAPI(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/bindings")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body bindingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Bindings) != 2 || body.Active != "pointer" {
		t.Fatalf("unexpected response %+v", body)
	}

	resp, err = http.Post(srv.URL+"/api/bindings", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expect 405, got %d", resp.StatusCode)
	}
}

func TestFrontendMinified(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "pointer view") {
		t.Fatalf("unexpected frontend response %d %q", resp.StatusCode, data)
	}
	if strings.Contains(string(data), "\n  <body>") {
		t.Fatalf("expect minified html, got %q", data)
	}
}

func TestShutdownBeforeListen(t *testing.T) {
	logger := logging.Discard()
	h := hub.NewHub(logger)
	b := hub.NewBroadcaster(h, "pointer", logger)
	p, _ := behavior.NewPipeline("pointer", behavior.Config{ScaleFactor: 1}, b, nil)
	router, err := behavior.NewRouter([]*behavior.Pipeline{p}, "")
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	s := New(h, b, router, fstest.MapFS{}, "127.0.0.1:0", false, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe() }()
	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("expect ErrServerClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server kept listening after shutdown")
	}
}
