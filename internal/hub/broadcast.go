package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/soar/pdincr/internal/behavior"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
	queueSize        = 256
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrClosed    = errors.New("broadcaster closed")
)

type emitted struct {
	binding string
	event   behavior.Event
}

// Broadcaster is the delivery end of the behavior pipelines: it accepts
// events without blocking and pushes them to the hub from its own goroutine.
type Broadcaster struct {
	hub    *Hub
	events chan emitted
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger

	mu     sync.Mutex
	seq    int64
	totals Totals
	active string
}

func NewBroadcaster(h *Hub, active string, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    h,
		events: make(chan emitted, queueSize),
		done:   make(chan struct{}),
		active: active,
		logger: logger,
	}
}

// Emit implements behavior.Emitter.
func (b *Broadcaster) Emit(binding string, ev behavior.Event) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	select {
	case b.events <- emitted{binding: binding, event: ev}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run starts the broadcaster loop until ctx is done. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	defer b.once.Do(func() { close(b.done) })

	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int64

	for {
		select {
		case <-ctx.Done():
			return

		case e := <-b.events:
			b.publish(func(seq int64) *WSMessage {
				b.totals.add(e.event)
				return NewEventMessage(seq, e.binding, e.event)
			})

			// Send full sync periodically
			deltaCount++
			if deltaCount >= deltaCountSync {
				b.sendFull()
				deltaCount = 0
			}

		case <-ticker.C:
			b.sendFull()
		}
	}
}

// BindingSelected announces a new active binding to every client.
func (b *Broadcaster) BindingSelected(name string) {
	b.publish(func(seq int64) *WSMessage {
		b.active = name
		return NewBindingSelectedMessage(seq, name)
	})
}

// SendInitialState sends the current totals to a newly connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	data, err := json.Marshal(NewFullMessage(b.seq, b.active, b.totals))
	if err != nil {
		b.logger.Error("Error marshaling initial state", "error", err)
		return
	}
	b.hub.SendTo(c, data)
}

// Totals returns the running totals.
func (b *Broadcaster) Totals() Totals {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totals
}

func (b *Broadcaster) sendFull() {
	b.publish(func(seq int64) *WSMessage {
		return NewFullMessage(seq, b.active, b.totals)
	})
}

// publish numbers and broadcasts one message under b.mu, so every client sees
// sequence numbers in increasing order. build runs with b.mu held.
func (b *Broadcaster) publish(build func(seq int64) *WSMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	msg := build(b.seq)
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Error marshaling message", "type", msg.Type, "error", err)
		return
	}
	b.hub.Broadcast(data)
}
