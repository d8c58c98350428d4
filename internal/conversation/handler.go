package conversation

import (
	"encoding/json"
	"net/http"

	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Handler exposes the conversation endpoints over HTTP.
type Handler struct {
	router    *Router
	responder *Responder
	records   *Records
	logger    *logging.Logger
}

// NewHandler creates the conversation HTTP handler.
func NewHandler(router *Router, responder *Responder, records *Records, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{router: router, responder: responder, records: records, logger: logger}
}

type sendMessageRequest struct {
	Message   string `json:"message"`
	Username  string `json:"username"`
	BotID     string `json:"bot_id"`
	SessionID string `json:"session_id"`
}

// SendMessage handles POST /send_message, the primary widget endpoint.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"response": "Please provide a message"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"response": "Please provide a message"})
		return
	}
	if user, ok := tenancy.UserFromContext(r.Context()); ok && req.Username == "" {
		req.Username = user
	}

	reply := h.router.Route(r.Context(), req.Username, req.BotID, req.SessionID, req.Message)
	writeJSON(w, http.StatusOK, map[string]any{"response": reply})
}

// Chat handles POST /chat, the legacy widget endpoint: grounded answers
// only, no session state machine.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"response": "Please provide a message"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	reply := h.responder.Answer(r.Context(), req.Username, req.Message)
	h.records.Save(r.Context(), req.Username, req.BotID, req.SessionID, req.Message, reply)
	writeJSON(w, http.StatusOK, map[string]any{"response": reply})
}

// GetConversations handles GET /get_conversations for the dashboard.
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("username")
	if user, ok := tenancy.UserFromContext(r.Context()); ok && tenant == "" {
		tenant = user
	}
	if tenant == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Missing username"})
		return
	}
	botID := r.URL.Query().Get("bot_id")

	records := h.records.List(r.Context(), tenant, botID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "conversations": records})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
