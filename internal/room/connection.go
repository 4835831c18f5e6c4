package room

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Connection wraps one accepted WebSocket socket. It owns a buffered send
// channel drained by its write pump goroutine, so Room.broadcast never
// blocks on a slow client — a full buffer is treated as a transport error
// and evicts the connection (§7).
type Connection struct {
	ID     string
	conn   *websocket.Conn
	logger *log.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConnection(id string, wsConn *websocket.Conn, logger *log.Logger) *Connection {
	return &Connection{
		ID:     id,
		conn:   wsConn,
		logger: logger.With("connection", id),
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Send enqueues data for the write pump. It never blocks: a full buffer
// (a backpressured client) is reported as an error so the caller can evict.
func (c *Connection) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errConnectionClosed
	default:
		return errSendBufferFull
	}
}

// Close idempotently tears down the connection.
func (c *Connection) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump drains incoming frames into the room, rejecting any non-text
// frame (§6: "parse only text frames, reject binary") by silently
// discarding it rather than treating it as a parse error.
func (c *Connection) readPump(r *Room) {
	defer func() {
		r.Disconnect(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		r.HandleFrame(c, data)
	}
}

// writePump drains the send channel to the socket and sends periodic
// pings, evicting on any write error or stall.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Upgrade accepts an incoming HTTP request as a new room connection. Non-
// upgrade requests fail with a 426-style rejection, per §6.
func Upgrade(w http.ResponseWriter, req *http.Request, r *Room, logger *log.Logger) {
	if !websocket.IsWebSocketUpgrade(req) {
		http.Error(w, "websocket upgrade required", http.StatusUpgradeRequired)
		return
	}
	wsConn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		return
	}

	c := newConnection(uuid.NewString(), wsConn, logger)
	r.Connect(c)

	go c.writePump()
	go c.readPump(r)
}
