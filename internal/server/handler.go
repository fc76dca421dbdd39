package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/soar/pdincr/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local use
	},
}

// Bindings exposes the behavior router to clients.
type Bindings interface {
	hub.BindingSwitcher
	Names() []string
	Active() string
}

func handleWebSocket(h *hub.Hub, b *hub.Broadcaster, bindings Bindings, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("WebSocket upgrade failed", "error", err)
			return
		}

		client := hub.NewClient(h, conn)
		h.Register(client)

		// Send current totals to the new client
		b.SendInitialState(client)

		go client.WritePump()
		go client.ReadPumpWithHandler(bindings)
	}
}

type bindingsResponse struct {
	Bindings []string   `json:"bindings"`
	Active   string     `json:"active"`
	Totals   hub.Totals `json:"totals"`
}

func handleBindings(b *hub.Broadcaster, bindings Bindings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(bindingsResponse{
			Bindings: bindings.Names(),
			Active:   bindings.Active(),
			Totals:   b.Totals(),
		})
	}
}
