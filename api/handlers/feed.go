package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/reporting"
)

const (
	feedBuffer   = 16
	writeTimeout = 10 * time.Second
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type feedClient struct {
	conn *websocket.Conn
	city string
	send chan []byte
}

// FeedHub broadcasts report events to connected dashboards. It implements
// reporting.EventPublisher.
type FeedHub struct {
	mu      sync.Mutex
	clients map[*feedClient]struct{}
}

// NewFeedHub creates an empty hub
func NewFeedHub() *FeedHub {
	return &FeedHub{clients: make(map[*feedClient]struct{})}
}

// Publish queues e for every client watching its city. A client whose queue is
// full is dropped rather than waited on.
func (h *FeedHub) Publish(e reporting.Event) {
	b, err := json.Marshal(map[string]interface{}{
		"event": e.Type,
		"data":  e,
	})
	if err != nil {
		zap.S().Errorw("failed to marshal report event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.city != "" && e.City != "" && !strings.EqualFold(c.city, e.City) {
			continue
		}
		select {
		case c.send <- b:
		default:
			zap.S().Warnw("dropping slow feed client", "city", c.city)
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients
func (h *FeedHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *FeedHub) add(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *FeedHub) remove(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *FeedHub) removeLocked(c *feedClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client
func (h *FeedHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// ReportFeedHandler upgrades to a websocket and streams report events. An
// optional city query parameter narrows the stream.
func (h *FeedHub) ReportFeedHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "error", err)
		return
	}

	c := &feedClient{
		conn: conn,
		city: strings.TrimSpace(r.URL.Query().Get("city")),
		send: make(chan []byte, feedBuffer),
	}
	h.add(c)
	zap.S().Debugw("feed client connected", "city", c.city, "clients", h.Clients())

	go c.writeLoop()

	// read until the client goes away; incoming messages are ignored
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.remove(c)
	zap.S().Debugw("feed client disconnected", "city", c.city)
}

func (c *feedClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			zap.S().Debugw("feed write failed", "error", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
