package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/middleware"
	"smart-vault-backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams committed ledger events to the owner they
// concern. It implements services.Broadcaster.
type WebSocketHandler struct {
	engine *ledger.Engine
	hub    *WebSocketHub
	logger *slog.Logger
}

type WebSocketHub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *models.EventEnvelope
}

type Client struct {
	Owner models.Identity
	Conn  *websocket.Conn

	mu     sync.Mutex
	send   chan any
	closed bool
}

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewWebSocketHandler(engine *ledger.Engine) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *models.EventEnvelope, 100),
	}

	go hub.run()

	return &WebSocketHandler{
		engine: engine,
		hub:    hub,
		logger: slog.Default().With("component", "websocket"),
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	owner := middleware.Signer(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", "error", err)
		return
	}

	client := &Client{
		Owner: owner,
		Conn:  conn,
		send:  make(chan any, sendBufferSize),
	}

	h.hub.register <- client
	go client.writePump()

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendSnapshot(c, client)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", "owner", owner, "error", err)
			}
			break
		}

		if msg.Type == "PING" {
			client.queue(Message{Type: "PONG", Data: gin.H{"timestamp": time.Now().Unix()}})
		}
	}
}

func (h *WebSocketHandler) sendSnapshot(c *gin.Context, client *Client) {
	view, err := h.engine.Vault(c.Request.Context(), client.Owner)
	if err != nil {
		return
	}
	client.queue(Message{Type: "VAULT_SNAPSHOT", Data: view})
}

// BroadcastEvent queues env for the owner's connections.
func (h *WebSocketHandler) BroadcastEvent(env *models.EventEnvelope) {
	select {
	case h.hub.broadcast <- env:
	default:
		h.logger.Warn("broadcast buffer full, dropping event", "type", env.Type)
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = true
			slog.Debug("websocket client registered", "owner", client.Owner)

		case client := <-hub.unregister:
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				client.close()
				slog.Debug("websocket client unregistered", "owner", client.Owner)
			}

		case env := <-hub.broadcast:
			for client := range hub.clients {
				if client.Owner != env.Owner {
					continue
				}
				if !client.queue(env) {
					delete(hub.clients, client)
					client.close()
				}
			}
		}
	}
}

// queue reports false when the client is gone or too slow to keep up.
func (cl *Client) queue(msg any) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return false
	}
	select {
	case cl.send <- msg:
		return true
	default:
		return false
	}
}

func (cl *Client) close() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if !cl.closed {
		cl.closed = true
		close(cl.send)
	}
}

func (cl *Client) writePump() {
	for msg := range cl.send {
		cl.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.Conn.WriteJSON(msg); err != nil {
			return
		}
	}
	cl.Conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
}
