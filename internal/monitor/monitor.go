// Package monitor prints the event stream of a running instance.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lxzan/gws"

	"github.com/soar/pdincr/internal/hub"
)

// Format renders one server message as a single line.
func Format(msg *hub.WSMessage) string {
	switch msg.Type {
	case hub.TypeMove, hub.TypeScroll:
		if msg.Delta == nil {
			return fmt.Sprintf("#%d %s [%s]", msg.Seq, msg.Type, msg.Binding)
		}
		return fmt.Sprintf("#%d %-6s [%s] x=%d y=%d", msg.Seq, msg.Type, msg.Binding, msg.Delta.X, msg.Delta.Y)
	case hub.TypeFull:
		if msg.Totals == nil {
			return fmt.Sprintf("#%d full active=%s", msg.Seq, msg.Binding)
		}
		t := msg.Totals
		return fmt.Sprintf("#%d full active=%s moves=%d cursor=(%d,%d) scrolls=%d wheel=(%d,%d)",
			msg.Seq, msg.Binding, t.Moves, t.CursorX, t.CursorY, t.Scrolls, t.ScrollX, t.ScrollY)
	case hub.TypeBindingSelected:
		return fmt.Sprintf("#%d binding -> %s", msg.Seq, msg.Binding)
	case hub.TypeError:
		return "error: " + msg.Error
	default:
		return fmt.Sprintf("#%d %s", msg.Seq, msg.Type)
	}
}

const closeTimeout = 2 * time.Second

type handler struct {
	gws.BuiltinEventHandler
	out    io.Writer
	logger *slog.Logger
	mu     sync.Mutex
	closed chan error
	once   sync.Once
}

func (h *handler) OnOpen(socket *gws.Conn) {
	h.logger.Info("Monitor connected")
}

func (h *handler) OnClose(socket *gws.Conn, err error) {
	h.once.Do(func() {
		h.closed <- err
		close(h.closed)
	})
}

func (h *handler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	var msg hub.WSMessage
	if err := json.Unmarshal(message.Bytes(), &msg); err != nil {
		h.logger.Debug("Unparseable message", "error", err)
		return
	}
	h.mu.Lock()
	fmt.Fprintln(h.out, Format(&msg))
	h.mu.Unlock()
}

// Run connects to url and writes one line per message to out until ctx is
// done or the server closes the connection. If binding is not empty it is
// selected right after connecting.
func Run(ctx context.Context, url, binding string, out io.Writer, logger *slog.Logger) error {
	h := &handler{out: out, logger: logger, closed: make(chan error, 1)}
	socket, _, err := gws.NewClient(h, &gws.ClientOption{Addr: url})
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	go socket.ReadLoop()

	if binding != "" {
		req, _ := json.Marshal(hub.ClientMessage{Type: "select_binding", Binding: binding})
		if err := socket.WriteMessage(gws.OpcodeText, req); err != nil {
			return fmt.Errorf("select binding: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		socket.WriteClose(1000, nil)
		select {
		case <-h.closed:
		case <-time.After(closeTimeout):
			socket.NetConn().Close()
		}
		return nil
	case err := <-h.closed:
		return err
	}
}
