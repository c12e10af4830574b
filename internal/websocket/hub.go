package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/warbler/internal/models"
)

type MessageType string

const (
	TypeConnect MessageType = "connect"
	TypePing    MessageType = "ping"
	TypePong    MessageType = "pong"
	TypeError   MessageType = "error"

	// TypeWarble carries a newly posted message to the author and followers.
	TypeWarble MessageType = "warble"
)

type Message struct {
	Type      MessageType     `json:"type"`
	UserID    uint            `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// WarbleAuthor is the part of the author shown next to a live warble.
type WarbleAuthor struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}

type Warble struct {
	ID        uint         `json:"id"`
	Text      string       `json:"text"`
	Timestamp time.Time    `json:"timestamp"`
	User      WarbleAuthor `json:"user"`
}

func NewWarble(m *models.Message) Warble {
	return Warble{
		ID:        m.ID,
		Text:      m.Text,
		Timestamp: m.Timestamp,
		User: WarbleAuthor{
			ID:       m.User.ID,
			Username: m.User.Username,
			ImageURL: m.User.ImageURL,
		},
	}
}

type Client struct {
	ID     uuid.UUID
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	// closed is guarded by Hub.mu and set once Send is closed.
	closed bool
}

// Hub tracks live connections by user. One user may hold several.
type Hub struct {
	clients     map[uuid.UUID]*Client
	userClients map[uint]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu  sync.RWMutex
	log logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(log logrus.FieldLogger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uint]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop ends Run and closes every connection.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		client.closeSend()
		if client.Conn != nil {
			client.Conn.Close()
		}
		delete(h.clients, id)
	}
	h.userClients = make(map[uint]map[uuid.UUID]*Client)
}

// Register hands client to Run. It reports false once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	h.log.WithFields(logrus.Fields{"client_id": client.ID, "user_id": client.UserID}).Debug("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	client.closeSend()

	h.log.WithFields(logrus.Fields{"client_id": client.ID, "user_id": client.UserID}).Debug("client unregistered")
}

// SendToUsers queues message on every connection of each user once.
// Full queues drop the message.
func (h *Hub) SendToUsers(userIDs []uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		h.sendToUserUnsafe(id, message)
	}
}

func (h *Hub) sendToUserUnsafe(userID uint, message []byte) {
	for _, client := range h.userClients[userID] {
		select {
		case client.Send <- message:
		default:
			h.log.WithField("client_id", client.ID).Warn("client send channel full")
		}
	}
}

// PublishWarble pushes a new message to the given users.
func (h *Hub) PublishWarble(recipients []uint, message *models.Message) {
	data, err := encode(TypeWarble, message.UserID, NewWarble(message))
	if err != nil {
		h.log.WithError(err).Error("could not encode warble")
		return
	}
	h.SendToUsers(recipients, data)
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := encode(TypePing, 0, nil)
	if err != nil {
		return
	}
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// OnlineUsers lists users with at least one open connection.
func (h *Hub) OnlineUsers() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uint, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

func encode(msgType MessageType, userID uint, data interface{}) ([]byte, error) {
	msg := Message{
		Type:      msgType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}
