package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/martofrog/tennis-predictions/internal/metrics"
	"github.com/martofrog/tennis-predictions/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBufferSize = 64
)

// Stream message types
const (
	MessageTypeValueBet  = "value_bet"
	MessageTypeArbitrage = "arbitrage"
)

// StreamMessage is one frame sent to stream clients
type StreamMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan StreamMessage
}

// Hub fans newly found value bets out to websocket clients
type Hub struct {
	clients   map[*client]bool
	clientsMu sync.RWMutex

	broadcast  chan StreamMessage
	register   chan *client
	unregister chan *client

	upgrader websocket.Upgrader
	logger   *logrus.Entry
	done     chan struct{}
}

// NewHub creates a hub; Run must be started before clients connect
func NewHub(allowedOrigins []string, logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan StreamMessage, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.WithField("component", "stream"),
		done:   make(chan struct{}),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.shutdown()
			return
		case c := <-h.register:
			h.clientsMu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.clientsMu.Unlock()
			metrics.UpdateStreamClients(n)
			h.logger.WithFields(logrus.Fields{"client_id": c.id, "clients": n}).Info("Stream client connected")
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.clientsMu.Unlock()
	if ok {
		metrics.UpdateStreamClients(n)
		h.logger.WithFields(logrus.Fields{"client_id": c.id, "clients": n}).Info("Stream client disconnected")
	}
}

func (h *Hub) fanOut(msg StreamMessage) {
	h.clientsMu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.clientsMu.RUnlock()

	for _, c := range slow {
		h.logger.WithField("client_id", c.id).Warn("Stream client buffer full, disconnecting")
		h.remove(c)
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.UpdateStreamClients(0)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Name implements service.Sink
func (h *Hub) Name() string {
	return "websocket"
}

// Publish queues one message per value bet and arbitrage. Messages are
// dropped when the broadcast buffer is full.
func (h *Hub) Publish(ctx context.Context, bets []models.ValueBet, arbitrage []models.ArbitrageOpportunity) error {
	now := time.Now().UTC()
	for _, vb := range bets {
		h.enqueue(StreamMessage{Type: MessageTypeValueBet, Payload: vb, Timestamp: now})
	}
	for _, arb := range arbitrage {
		h.enqueue(StreamMessage{Type: MessageTypeArbitrage, Payload: arb, Timestamp: now})
	}
	return nil
}

func (h *Hub) enqueue(msg StreamMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.WithField("type", msg.Type).Warn("Broadcast buffer full, dropping message")
	}
}

// ServeWS upgrades the request and registers the connection
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan StreamMessage, sendBufferSize)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards client frames and detects disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).WithField("client_id", c.id).Debug("Stream client closed unexpectedly")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
