package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// state is the per-connection lifecycle. Transitions are one-way:
// Connecting → Authenticated → Active → Closed.
type state int

const (
	stateConnecting state = iota
	stateAuthenticated
	stateActive
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateAuthenticated:
		return "authenticated"
	case stateActive:
		return "active"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// frame is the wire format in both directions of the live channel.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Wire event names.
const (
	eventConnected        = "connected"
	eventNotificationNew  = "notification:new"
	eventNotificationRead = "notification:read"
)

type connectedPayload struct {
	UserID       string    `json:"userId"`
	ConnectionID string    `json:"connectionId"`
	Timestamp    time.Time `json:"timestamp"`
}

type readPayload struct {
	NotificationID string `json:"notificationId"`
}

func marshalFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Event: event, Data: raw})
}

// connection is one live websocket. A dedicated writer goroutine drains
// the send buffer; enqueue drops frames when the client reads too
// slowly, so fan-out never blocks on a single connection.
type connection struct {
	id     string
	userID string
	ws     *websocket.Conn
	send   chan []byte

	mu     sync.RWMutex
	state  state
	closed bool
}

func newConnection(id, userID string, wsConn *websocket.Conn, sendBuffer int) *connection {
	return &connection{
		id:     id,
		userID: userID,
		ws:     wsConn,
		send:   make(chan []byte, max(sendBuffer, 1)),
		state:  stateConnecting,
	}
}

func (c *connection) setState(s state) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateClosed {
		c.state = s
	}
}

func (c *connection) currentState() state {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// enqueue queues an outbound frame without blocking. It reports false
// when the connection is closed or its buffer is full.
func (c *connection) enqueue(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// writeLoop pumps the send buffer onto the socket until the buffer
// closes or a write fails.
func (c *connection) writeLoop() {
	for payload := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
	_ = c.ws.Close()
}

// close transitions to Closed and tears the transport down. Idempotent.
func (c *connection) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.state = stateClosed
		close(c.send)
	}
	c.mu.Unlock()
	_ = c.ws.Close()
}
