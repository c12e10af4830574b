package websocket

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrSlowSubscriber is returned when a connection's outbound queue is full.
	ErrSlowSubscriber = errors.New("subscriber queue is full")
	// ErrPushOnly is sent back for any inbound frame other than ping or pong.
	ErrPushOnly = errors.New("live feed only accepts ping and pong")
	// ErrFeedClosed is returned for connections the hub has already dropped.
	ErrFeedClosed = errors.New("live feed closed")
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 4 * 1024
	queueSize    = 256
)

func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, queueSize),
		Hub:    hub,
	}
}

// Attach registers a new connection for userID, greets it and starts its
// pumps. A stopped hub closes conn and returns ErrFeedClosed.
func (h *Hub) Attach(conn *websocket.Conn, userID uint) (*Client, error) {
	c := NewClient(h, conn, userID)
	if !h.Register(c) {
		if conn != nil {
			conn.Close()
		}
		return nil, ErrFeedClosed
	}
	if err := c.Push(TypeConnect, map[string]string{"client_id": c.ID.String()}); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("could not greet subscriber")
	}
	go c.Deliver()
	go c.Listen()
	return c, nil
}

// Listen reads until the peer goes away. Pongs and pings extend the read
// deadline, anything else is answered with an error frame.
func (c *Client) Listen() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.extendDeadline()
	c.Conn.SetPongHandler(func(string) error {
		c.extendDeadline()
		return nil
	})

	for {
		var in Message
		if err := c.Conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.WithError(err).WithField("client_id", c.ID).Warn("live feed read failed")
			}
			return
		}
		if in.Type == TypePing || in.Type == TypePong {
			c.extendDeadline()
			continue
		}
		_ = c.Push(TypeError, map[string]string{"error": ErrPushOnly.Error()})
	}
}

// Deliver writes queued frames in order and pings the peer on a timer.
// It returns when Send is closed or a write fails.
func (c *Client) Deliver() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			if !ok {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Push encodes and queues a frame for this connection only.
func (c *Client) Push(msgType MessageType, data interface{}) error {
	frame, err := encode(msgType, c.UserID, data)
	if err != nil {
		return err
	}

	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if c.closed {
		return ErrFeedClosed
	}
	select {
	case c.Send <- frame:
		return nil
	default:
		return ErrSlowSubscriber
	}
}

// closeSend must be called with Hub.mu held for writing.
func (c *Client) closeSend() {
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) write(kind int, payload []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(kind, payload)
}

func (c *Client) extendDeadline() {
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
}
