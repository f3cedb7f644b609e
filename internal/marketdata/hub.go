package marketdata

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/coinwatch/bookfeed/internal/orderbook"
	"github.com/coinwatch/bookfeed/pkg/metrics"
)

// ErrHubFull is returned when the subscriber limit is reached. Connection
// attempts beyond the bound are refused at admission, existing subscribers
// are unaffected.
var ErrHubFull = errors.New("subscriber limit reached")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
	sendQueueSize  = 256
)

// Client is a single delta stream subscriber. The send queue is guarded by
// mu: enqueue and close take the same lock, so a disconnect can never close
// the channel out from under a concurrent broadcast.
type Client struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// enqueue queues payload for the write pump. Returns false only when the
// queue is full; a payload arriving after close is silently discarded.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close shuts the send queue exactly once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Hub fans order book deltas out to a bounded set of WebSocket
// subscribers. On admit, a subscriber first receives the current top-K as
// a full delta, then the incremental stream; the send queue is FIFO so the
// baseline always precedes the increments. A subscriber that fails or
// falls behind is dropped individually without blocking delivery to the
// rest.
type Hub struct {
	logger *zap.Logger
	store  *orderbook.Store
	topK   int
	maxSub int

	mu      sync.RWMutex
	clients map[*Client]struct{}

	upgrader websocket.Upgrader
}

// NewHub creates a hub bounded at maxSubscribers.
func NewHub(logger *zap.Logger, store *orderbook.Store, topK, maxSubscribers int) *Hub {
	return &Hub{
		logger:  logger,
		store:   store,
		topK:    topK,
		maxSub:  maxSubscribers,
		clients: make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and admits the subscriber. At capacity the
// request is refused with 503 before the upgrade happens.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.Len() >= h.maxSub {
		http.Error(w, "subscriber limit reached", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
	if err := h.register(client); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber limit reached"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	go client.writePump(h)
	go client.readPump(h)
}

// register admits the client under the capacity bound and queues its
// initial full top-K delta. Admission and the initial send happen under
// the write lock so no broadcast can slip in before the baseline.
func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= h.maxSub {
		return ErrHubFull
	}
	initial := ComputeDelta(nil, h.store.Current(), h.topK)
	payload, err := json.Marshal(initial)
	if err != nil {
		return err
	}
	c.send <- payload
	h.clients[c] = struct{}{}
	metrics.ActiveSubscribers.Set(float64(len(h.clients)))
	h.logger.Debug("subscriber registered",
		zap.String("client_id", c.id),
		zap.Int("subscribers", len(h.clients)))
	return nil
}

// unregister removes the client and closes its queue. Safe to call more
// than once.
func (h *Hub) unregister(c *Client, reason string) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
		metrics.ActiveSubscribers.Set(float64(len(h.clients)))
	}
	remaining := len(h.clients)
	h.mu.Unlock()
	if !present {
		return
	}
	c.close()
	h.logger.Debug("subscriber removed",
		zap.String("client_id", c.id),
		zap.String("reason", reason),
		zap.Int("subscribers", remaining))
}

// Broadcast pushes a serialized delta to every subscriber. A subscriber
// whose queue is full is dropped so one slow connection cannot stall the
// stream for the others.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var dropped []*Client
	for _, c := range targets {
		if !c.enqueue(payload) {
			dropped = append(dropped, c)
		}
	}
	for _, c := range dropped {
		h.unregister(c, "slow consumer")
		c.conn.Close()
	}
}

// Shutdown disconnects every subscriber.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	metrics.ActiveSubscribers.Set(0)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		c.conn.Close()
	}
}

// readPump drains inbound frames to keep pong handling alive. The stream
// is one-way; subscription is implicit on connect.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c, "read error")
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends queued deltas and heartbeats to the client.
func (c *Client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.unregister(c, "write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c, "ping failed")
				return
			}
		}
	}
}
