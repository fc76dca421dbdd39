package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soar/pdincr/internal/behavior"
	"github.com/soar/pdincr/internal/logging"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) *WSMessage {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatalf("client channel closed")
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatalf("no message received")
	}
	return nil
}

func startHub(t *testing.T) (*Hub, *Broadcaster, *Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHub(logging.Discard())
	go h.Run(ctx)
	b := NewBroadcaster(h, "pointer", logging.Discard())
	go b.Run(ctx)

	c := &Client{hub: h, send: make(chan []byte, 16)}
	h.Register(c)
	waitFor(t, func() bool { return h.Len() == 1 })
	return h, b, c
}

func TestBroadcasterDeliversEvents(t *testing.T) {
	_, b, c := startHub(t)

	if err := b.Emit("pointer", behavior.PositionDelta{X: 10, Y: -2}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	msg := receive(t, c)
	if msg.Type != TypeMove || msg.Binding != "pointer" || msg.Delta == nil || *msg.Delta != (Delta{X: 10, Y: -2}) {
		t.Fatalf("unexpected message %+v", msg)
	}

	b.Emit("scroll", behavior.ScrollDelta{Y: 1})
	msg = receive(t, c)
	if msg.Type != TypeScroll || msg.Delta.Y != 1 {
		t.Fatalf("unexpected message %+v", msg)
	}

	waitFor(t, func() bool { return b.Totals().Scrolls == 1 })
	if got := b.Totals(); got != (Totals{Moves: 1, Scrolls: 1, CursorX: 10, CursorY: -2, ScrollY: 1}) {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestBroadcasterInitialStateAndSelection(t *testing.T) {
	_, b, c := startHub(t)

	b.SendInitialState(c)
	msg := receive(t, c)
	if msg.Type != TypeFull || msg.Binding != "pointer" || msg.Totals == nil {
		t.Fatalf("unexpected initial state %+v", msg)
	}

	b.BindingSelected("scroll")
	msg = receive(t, c)
	if msg.Type != TypeBindingSelected || msg.Binding != "scroll" {
		t.Fatalf("unexpected selection message %+v", msg)
	}

	b.SendInitialState(c)
	if msg = receive(t, c); msg.Binding != "scroll" {
		t.Fatalf("expect active binding scroll, got %q", msg.Binding)
	}
}

func TestBroadcasterQueueFull(t *testing.T) {
	b := NewBroadcaster(NewHub(logging.Discard()), "", logging.Discard())
	for i := 0; i < queueSize; i++ {
		if err := b.Emit("pointer", behavior.PositionDelta{}); err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
	}
	if err := b.Emit("pointer", behavior.PositionDelta{}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expect ErrQueueFull, got %v", err)
	}
}

func TestBroadcasterClosed(t *testing.T) {
	b := NewBroadcaster(NewHub(logging.Discard()), "", logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Run(ctx)
	if err := b.Emit("pointer", behavior.PositionDelta{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expect ErrClosed, got %v", err)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h, _, _ := startHub(t)

	slow := &Client{hub: h, send: make(chan []byte)}
	h.Register(slow)
	waitFor(t, func() bool { return h.Len() == 2 })

	h.Broadcast([]byte(`{}`))
	waitFor(t, func() bool { return h.Len() == 1 })
	if _, ok := <-slow.send; ok {
		t.Fatalf("expect slow client channel closed")
	}
}

func TestBroadcasterSequenceOrdered(t *testing.T) {
	h, b, _ := startHub(t)
	c := &Client{hub: h, send: make(chan []byte, 1024)}
	h.Register(c)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if err := b.Emit("pointer", behavior.PositionDelta{X: 1}); err != nil {
				t.Errorf("emit %d: %v", i, err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			b.BindingSelected("scroll")
		}
	}()
	wg.Wait()

	var last int64
	moves, selections := 0, 0
	for moves < n || selections < n {
		msg := receive(t, c)
		if msg.Seq <= last {
			t.Fatalf("seq %d after %d", msg.Seq, last)
		}
		last = msg.Seq
		switch msg.Type {
		case TypeMove:
			moves++
		case TypeBindingSelected:
			selections++
		}
	}
}
