package hub

import (
	"time"

	"github.com/soar/pdincr/internal/behavior"
)

// Message types sent from server to client.
const (
	TypeMove            = "move"
	TypeScroll          = "scroll"
	TypeFull            = "full"
	TypeBindingSelected = "binding_selected"
	TypeError           = "error"
)

// Delta is the payload of a move or scroll message.
type Delta struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
}

// Totals accumulates everything emitted since startup.
type Totals struct {
	Moves   int64 `json:"moves"`
	Scrolls int64 `json:"scrolls"`
	CursorX int64 `json:"cursorX"`
	CursorY int64 `json:"cursorY"`
	ScrollX int64 `json:"scrollX"`
	ScrollY int64 `json:"scrollY"`
}

func (t *Totals) add(ev behavior.Event) {
	x, y := ev.Delta()
	switch ev.(type) {
	case behavior.PositionDelta:
		t.Moves++
		t.CursorX += int64(x)
		t.CursorY += int64(y)
	case behavior.ScrollDelta:
		t.Scrolls++
		t.ScrollX += int64(x)
		t.ScrollY += int64(y)
	}
}

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type      string  `json:"type"`              // "move", "scroll", "full", "binding_selected", "error"
	Seq       int64   `json:"seq"`               // Sequence number for ordering
	Timestamp int64   `json:"timestamp"`         // Unix timestamp in milliseconds
	Binding   string  `json:"binding,omitempty"` // Behavior that produced the event, or the active one
	Delta     *Delta  `json:"delta,omitempty"`   // For "move" and "scroll"
	Totals    *Totals `json:"totals,omitempty"`  // For "full"
	Error     string  `json:"error,omitempty"`
}

// NewEventMessage creates a "move" or "scroll" message for one emitted event.
func NewEventMessage(seq int64, binding string, ev behavior.Event) *WSMessage {
	x, y := ev.Delta()
	return &WSMessage{
		Type:      ev.Kind(),
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Binding:   binding,
		Delta:     &Delta{X: x, Y: y},
	}
}

// NewFullMessage creates a "full" message with the running totals and the
// active binding.
func NewFullMessage(seq int64, active string, totals Totals) *WSMessage {
	return &WSMessage{
		Type:      TypeFull,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Binding:   active,
		Totals:    &totals,
	}
}

// NewBindingSelectedMessage announces a change of the active binding.
func NewBindingSelectedMessage(seq int64, binding string) *WSMessage {
	return &WSMessage{
		Type:      TypeBindingSelected,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Binding:   binding,
	}
}

// NewErrorMessage reports a rejected client request.
func NewErrorMessage(text string) *WSMessage {
	return &WSMessage{
		Type:      TypeError,
		Timestamp: time.Now().UnixMilli(),
		Error:     text,
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type    string `json:"type"`
	Binding string `json:"binding,omitempty"`
}
