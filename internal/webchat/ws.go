// Package webchat serves the embeddable chat widget over WebSocket. Each
// connection is one visitor session: inbound messages run through the
// conversation router synchronously and the reply is written back on the
// same connection.
package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/adityaverma/chatbot-backend/internal/conversation"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
)

// The widget is embedded on arbitrary customer sites.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the widget wire frame.
type Message struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Handler upgrades widget connections and bridges them to the router.
type Handler struct {
	router *conversation.Router
	logger *logging.Logger
}

// NewHandler creates the widget WebSocket handler.
func NewHandler(router *conversation.Router, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{router: router, logger: logger}
}

// Serve handles GET /widget/ws?username=...&bot_id=...&session_id=...
// A missing session_id gets a fresh one, announced in the hello frame.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("username")
	botID := r.URL.Query().Get("bot_id")
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("webchat: upgrade failed", "error", err)
		return
	}

	conn := newConn(ws, h.logger)
	go conn.writePump()

	conn.send(Message{Type: "session", SessionID: sessionID})
	h.readPump(r.Context(), conn, tenant, botID, sessionID)
}

func (h *Handler) readPump(ctx context.Context, c *conn, tenant, botID, sessionID string) {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("webchat: read error", "tenant", tenant, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Warn("webchat: bad frame", "tenant", tenant, "error", err)
			continue
		}
		if msg.Type != "message" || msg.Text == "" {
			continue
		}

		c.send(Message{Type: "typing"})
		reply := h.router.Route(ctx, tenant, botID, sessionID, msg.Text)
		c.send(Message{Type: "message", Text: reply, SessionID: sessionID})
	}
}

// conn serializes writes through a single pump so router replies and pings
// never interleave on the socket.
type conn struct {
	ws     *websocket.Conn
	logger *logging.Logger
	out    chan Message
	once   sync.Once
	done   chan struct{}
}

func newConn(ws *websocket.Conn, logger *logging.Logger) *conn {
	return &conn{
		ws:     ws,
		logger: logger,
		out:    make(chan Message, 16),
		done:   make(chan struct{}),
	}
}

func (c *conn) send(msg Message) {
	select {
	case c.out <- msg:
	case <-c.done:
	default:
		c.logger.Warn("webchat: send buffer full, dropping frame")
	}
}

func (c *conn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("webchat: marshal failed", "error", err)
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
