package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// EventTyping is relayed between connected users without being stored.
const EventTyping = "typing"

// Envelope is what every socket frame carries.
type Envelope struct {
	Type     string      `json:"type"`
	SenderID string      `json:"sender_id,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
}

// inbound is the only frame clients may send.
type inbound struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiver_id"`
	Typing     bool   `json:"typing"`
}

type client struct {
	userID primitive.ObjectID
	conn   *websocket.Conn
	send   chan []byte
}

// Hub keeps the open sockets of every user and fans events out to them.
// A user may hold several sockets, one per open tab.
type Hub struct {
	mu       sync.RWMutex
	clients  map[primitive.ObjectID]map[*client]struct{}
	upgrader websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Hub{
		clients: make(map[primitive.ObjectID]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Publish delivers event to every socket of userID. Slow sockets drop frames.
func (h *Hub) Publish(userID primitive.ObjectID, event string, payload interface{}) {
	h.publish(userID, Envelope{Type: event, Payload: payload})
}

func (h *Hub) publish(userID primitive.ObjectID, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		logrus.WithError(err).WithField("event", env.Type).Error("Failed to encode realtime event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			logrus.WithField("userID", userID.Hex()).Warn("Realtime buffer full, dropping event")
		}
	}
}

// Online reports whether userID has at least one open socket.
func (h *Hub) Online(userID primitive.ObjectID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Serve upgrades the request and attaches the socket to userID until the
// client goes away. The caller must have authenticated userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	logrus.WithField("userID", userID.Hex()).Info("WebSocket connected")

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		logrus.WithField("userID", c.userID.Hex()).Info("WebSocket disconnected")
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Debug("WebSocket read error")
			}
			return
		}
		if msg.Type != EventTyping {
			continue
		}
		receiverID, err := primitive.ObjectIDFromHex(msg.ReceiverID)
		if err != nil {
			continue
		}
		h.publish(receiverID, Envelope{
			Type:     EventTyping,
			SenderID: c.userID.Hex(),
			Payload:  map[string]bool{"typing": msg.Typing},
		})
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
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
