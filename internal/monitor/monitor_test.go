package monitor

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/soar/pdincr/internal/behavior"
	"github.com/soar/pdincr/internal/hub"
	"github.com/soar/pdincr/internal/logging"
	"github.com/soar/pdincr/internal/server"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestFormat(t *testing.T) {
	cases := []struct {
		msg  hub.WSMessage
		want string
	}{
		{hub.WSMessage{Type: hub.TypeMove, Seq: 3, Binding: "pointer", Delta: &hub.Delta{X: 10, Y: -2}}, "#3 move   [pointer] x=10 y=-2"},
		{hub.WSMessage{Type: hub.TypeScroll, Seq: 4, Binding: "scroll", Delta: &hub.Delta{Y: 1}}, "#4 scroll [scroll] x=0 y=1"},
		{hub.WSMessage{Type: hub.TypeBindingSelected, Seq: 5, Binding: "scroll"}, "#5 binding -> scroll"},
		{hub.WSMessage{Type: hub.TypeError, Error: "unknown binding x"}, "error: unknown binding x"},
		{hub.WSMessage{Type: hub.TypeFull, Seq: 1, Binding: "pointer", Totals: &hub.Totals{Moves: 2, CursorX: 4}},
			"#1 full active=pointer moves=2 cursor=(4,0) scrolls=0 wheel=(0,0)"},
	}
	for _, c := range cases {
		if got := Format(&c.msg); got != c.want {
			t.Errorf("got %q, want %q", got, c.want)
		}
	}
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.Discard()
	h := hub.NewHub(logger)
	go h.Run(ctx)
	b := hub.NewBroadcaster(h, "pointer", logger)
	go b.Run(ctx)

	move, _ := behavior.NewPipeline("pointer", behavior.Config{Mode: behavior.ModeMove, ScaleFactor: 1}, b, nil)
	scroll, _ := behavior.NewPipeline("scroll", behavior.Config{Mode: behavior.ModeScroll, ScaleFactor: 1}, b, nil)
	router, _ := behavior.NewRouter([]*behavior.Pipeline{move, scroll}, "")
	router.OnSelect(b.BindingSelected)

	srv := httptest.NewServer(server.New(h, b, router, fstest.MapFS{}, "", false, logger).Handler())
	defer srv.Close()

	out := &syncBuffer{}
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- Run(runCtx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", "scroll", out, logger)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for router.Active() != "scroll" {
		if time.Now().After(deadline) {
			t.Fatalf("monitor did not select binding")
		}
		time.Sleep(5 * time.Millisecond)
	}
	router.Process(behavior.Sample{DY: 45})

	for !strings.Contains(out.String(), "scroll [scroll] x=0 y=1") {
		if time.Now().After(deadline) {
			t.Fatalf("scroll event not printed, output %q", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("monitor did not stop")
	}
	if !strings.Contains(out.String(), "full active=pointer") {
		t.Fatalf("expect initial snapshot, output %q", out.String())
	}
}
