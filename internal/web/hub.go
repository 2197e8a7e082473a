package web

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served same-origin in production; the feed carries
	// nothing sensitive either way.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans activity-log lines out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan string
	log     *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan string),
		log:     log.WithComponent("ws"),
	}
}

// Broadcast sends a line to every connected client. Slow clients are
// disconnected rather than allowed to back up the feed.
func (h *Hub) Broadcast(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, send := range h.clients {
		select {
		case send <- line:
		default:
			close(send)
			delete(h.clients, conn)
		}
	}
}

// Serve upgrades the request and streams log lines until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, backlog []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	send := make(chan string, 32)

	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	// Replay the recent activity so a fresh dashboard isn't blank.
	for _, line := range backlog {
		select {
		case send <- line:
		default:
		}
	}

	go h.writeLoop(conn, send)
	go h.readLoop(conn)
}

func (h *Hub) writeLoop(conn *websocket.Conn, send chan string) {
	defer conn.Close()

	for line := range send {
		if err := conn.WriteJSON(map[string]string{"message": line}); err != nil {
			h.drop(conn)
			return
		}
	}
}

// readLoop discards inbound frames so pings and close frames are processed.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if send, ok := h.clients[conn]; ok {
		close(send)
		delete(h.clients, conn)
	}
	conn.Close()
}
