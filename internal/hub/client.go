package hub

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// BindingSwitcher defines the interface for switching the active behavior.
type BindingSwitcher interface {
	Select(name string) bool
}

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// SendTo queues msg for a single registered client. It reports false when the
// client is gone or its buffer is full.
func (h *Hub) SendTo(c *Client, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[c] {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer func() {
		c.conn.Close()
	}()

	for msg := range c.send {
		err := c.conn.WriteMessage(websocket.TextMessage, msg)
		if err != nil {
			break
		}
	}
}

// ReadPumpWithHandler reads messages from the WebSocket and handles client commands.
func (c *Client) ReadPumpWithHandler(switcher BindingSwitcher) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.hub.logger.Debug("Error parsing client message", "error", err)
			continue
		}

		switch clientMsg.Type {
		case "select_binding":
			// Success is announced to every client through the router's
			// selection hook.
			if switcher.Select(clientMsg.Binding) {
				c.hub.logger.Info("Client switched binding", "binding", clientMsg.Binding)
			} else {
				c.hub.logger.Warn("Failed to switch binding", "binding", clientMsg.Binding)
				c.reply(NewErrorMessage("unknown binding " + clientMsg.Binding))
			}
		default:
			c.reply(NewErrorMessage("unknown message type " + clientMsg.Type))
		}
	}
}

func (c *Client) reply(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.hub.SendTo(c, data)
}
