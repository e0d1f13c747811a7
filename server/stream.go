package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 8
)

// Hub fans frames out to websocket clients. A client whose send buffer is full is
// disconnected rather than allowed to stall the tick loop.
type Hub struct {
	mu       sync.Mutex
	clients  map[*streamClient]struct{}
	closed   bool
	onChange func(n int)
	logger   log.Logger
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewHub(logger log.Logger, onChange func(n int)) *Hub {
	if onChange == nil {
		onChange = func(int) {}
	}
	return &Hub{
		clients:  make(map[*streamClient]struct{}),
		onChange: onChange,
		logger:   logger,
	}
}

func (h *Hub) register(c *streamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.onChange(len(h.clients))
	return true
}

func (h *Hub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	h.onChange(len(h.clients))
}

// Broadcast queues msg for every client without blocking.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			level.Warn(h.logger).Log("msg", "dropping slow stream client", "remote", c.conn.RemoteAddr())
			delete(h.clients, c)
			c.close()
		}
	}
	h.onChange(len(h.clients))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.onChange(0)
}

func (c *streamClient) close() {
	c.once.Do(func() { close(c.send) })
}

// writePump owns all writes to the connection.
func (c *streamClient) writePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// readPump discards client messages and notices disconnects.
func (c *streamClient) readPump(h *Hub) {
	defer h.unregister(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		level.Debug(s.logger).Log("msg", "websocket upgrade failed", "err", err)
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, sendBufferSize)}
	// the first frame goes out before the client is visible to Broadcast
	if msg, err := s.currentFrameMessage(r.Context()); err == nil {
		c.send <- msg
	}
	if !s.hub.register(c) {
		conn.Close()
		return
	}
	level.Debug(s.logger).Log("msg", "stream client connected", "remote", conn.RemoteAddr())

	go c.writePump()
	c.readPump(s.hub)
}
