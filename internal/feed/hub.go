// Package feed carries snapshot payloads from the simulation to viewers over
// websockets. Delivery is best effort: a viewer too slow to keep up loses
// messages and relies on sequence numbers to discard anything stale.
package feed

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 64

// Hub fans binary payloads out to every connected viewer.
type Hub struct {
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	onJoin  func()
	dropped uint64
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub creates a Hub. A zero writeTimeout disables write deadlines.
//
// Precondition: logger must be non-nil.
func NewHub(writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if logger == nil {
		panic("feed.NewHub: logger must not be nil")
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
		logger:       logger,
		clients:      make(map[*client]struct{}),
	}
}

// OnJoin registers fn to run after each viewer connects. Replaces any
// existing hook.
func (h *Hub) OnJoin(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onJoin = fn
}

// Broadcast queues payload for every viewer without blocking. Viewers whose
// queue is full miss this payload.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.dropped++
		}
	}
}

// Len returns the number of connected viewers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many per-viewer deliveries were skipped.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// ServeHTTP upgrades the request to a websocket and streams payloads until
// the viewer disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	onJoin := h.onJoin
	h.mu.Unlock()
	h.logger.Info("viewer joined", zap.String("remote", r.RemoteAddr))

	go h.writeLoop(c)
	if onJoin != nil {
		onJoin()
	}
	h.readLoop(c)
	h.logger.Info("viewer left", zap.String("remote", r.RemoteAddr))
}

// readLoop discards inbound messages and returns once the connection fails.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer h.remove(c)
	for payload := range c.send {
		if h.writeTimeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if err := c.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			h.logger.Debug("viewer write failed", zap.Error(err))
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		_ = c.conn.Close()
	})
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.remove(c)
	}
}
