// Package ws broadcasts run events to WebSocket clients, for dashboards
// watching a bot run live.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps incoming messages; clients only ever send pongs
	// and the occasional close frame.
	maxMessageSize = 512

	// sendBufferSize is the per-client outgoing buffer.
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The server binds to an operator-local port; origin policy is left
		// to the deployment in front of it.
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans run events out to every connected WebSocket client. It implements
// domain.EventSink; Publish never blocks, slow clients lose messages.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	logger     *slog.Logger
}

// NewHub creates a Hub. Run must be started before clients connect.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "ws_hub")),
	}
}

// Publish implements domain.EventSink.
func (h *Hub) Publish(event domain.RunEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("event marshal failed", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast queue full, dropping event", slog.String("type", event.Type))
	}
}

// Run drives registration and broadcasting until ctx is cancelled, then
// closes every client connection.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Debug("client connected", slog.Int("clients", h.clientCount()))

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client disconnected", slog.Int("clients", h.clientCount()))

		case data := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// The write pump will notice the closed connection.
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades an HTTP request to a WebSocket connection and attaches
// it to the hub.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// readPump drains and discards client messages, keeping the pong deadline
// fresh. It unregisters the client when the connection drops.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pushes broadcast messages and periodic pings to the client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
