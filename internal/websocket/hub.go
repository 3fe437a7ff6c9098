package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"studynotes-dashboard/internal/middleware"
)

const writeWait = 10 * time.Second

// Subscriber streams the payloads published for one user.
// database.RedisClients implements it.
type Subscriber interface {
	Subscribe(ctx context.Context, userKey string) (<-chan []byte, func())
}

type SessionReader interface {
	FromRequest(r *http.Request) (middleware.Session, error)
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub pushes watcher updates to every open dashboard tab of a user. The
// pub/sub subscription for a user lives exactly as long as that user has
// at least one socket open.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*client
	cancelFuncs map[string]func()
	subscriber  Subscriber
	sessions    SessionReader
	upgrader    websocket.Upgrader
}

func NewHub(subscriber Subscriber, sessions SessionReader, frontendURL string) *Hub {
	return &Hub{
		connections: make(map[string][]*client),
		cancelFuncs: make(map[string]func()),
		subscriber:  subscriber,
		sessions:    sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOriginOr(frontendURL),
		},
	}
}

func sameOriginOr(frontendURL string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == frontendURL || origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers send the session cookie on the upgrade request
	sess, err := h.sessions.FromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn}
	h.registerConnection(sess.UserID, c)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(sess.UserID, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(userKey string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[userKey] = append(h.connections[userKey], c)

	// Start pub/sub subscription if this is the first connection for this user
	if len(h.connections[userKey]) == 1 {
		msgs, stop := h.subscriber.Subscribe(context.Background(), userKey)
		h.cancelFuncs[userKey] = stop
		go h.forward(userKey, msgs)
	}

	log.Printf("WebSocket connected: user %s (total: %d)", userKey, len(h.connections[userKey]))
}

func (h *Hub) unregisterConnection(userKey string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[userKey]
	for i, existing := range conns {
		if existing == c {
			h.connections[userKey] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[userKey]) == 0 {
		delete(h.connections, userKey)
		if stop, ok := h.cancelFuncs[userKey]; ok {
			stop()
			delete(h.cancelFuncs, userKey)
		}
	}

	log.Printf("WebSocket disconnected: user %s", userKey)
}

func (h *Hub) forward(userKey string, msgs <-chan []byte) {
	for data := range msgs {
		h.broadcast(userKey, data)
	}
}

func (h *Hub) broadcast(userKey string, data []byte) {
	h.mu.RLock()
	conns := append([]*client(nil), h.connections[userKey]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(data); err != nil {
			log.Printf("WebSocket write to %s failed: %v", userKey, err)
		}
	}
}

// SendToUser sends a message directly to a user (for use outside pub/sub)
func (h *Hub) SendToUser(userKey string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(userKey, data)
}

// Subscribed reports whether a pub/sub subscription is open for userKey.
func (h *Hub) Subscribed(userKey string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.cancelFuncs[userKey]
	return ok
}

// Close drops every connection and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userKey, conns := range h.connections {
		for _, c := range conns {
			c.conn.Close()
		}
		delete(h.connections, userKey)
	}
	for userKey, stop := range h.cancelFuncs {
		stop()
		delete(h.cancelFuncs, userKey)
	}
}
