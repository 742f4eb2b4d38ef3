// Package socket pushes dispatch events to connected browsers.
package socket

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message is the frame sent to clients
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub owns every websocket connection. It is created once by the
// application root, started with Start and torn down with Stop.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	clients    map[*client]struct{}
	count      int64
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Start runs the event loop in the background
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
}

func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			atomic.AddInt64(&h.count, 1)
		case c := <-h.unregister:
			h.drop(c)
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// too slow, the client re-fetches on reconnect
					h.drop(c)
				}
			}
		case <-h.done:
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	atomic.AddInt64(&h.count, -1)
	close(c.send)
	c.conn.Close()
}

// Stop closes every connection and waits for the pumps to exit
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	h.wg.Wait()
}

// ClientCount returns the number of registered connections
func (h *Hub) ClientCount() int {
	return int(atomic.LoadInt64(&h.count))
}

// Broadcast queues an event for every client. It never blocks; when the
// queue is full the event is dropped.
func (h *Hub) Broadcast(event string, payload interface{}) error {
	data, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		return err
	}

	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
		Logger.Warning("socket broadcast queue full, dropping %s", event)
	}
	return nil
}

// ServeWS upgrades the request and serves the connection until it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.wg.Add(1)
	select {
	case h.register <- c:
	case <-h.done:
		h.wg.Done()
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// readPump only watches for close and pong frames; clients never send events
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()

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

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		h.wg.Done()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
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
