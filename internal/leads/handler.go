package leads

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Handler exposes the lead endpoints over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the leads HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type createLeadRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	BotID     string `json:"bot_id"`
}

// Create handles POST /create_lead.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}
	if req.Username == "" {
		req.Username = r.Header.Get("X-User")
	}
	if user, ok := tenancy.UserFromContext(r.Context()); ok && req.Username == "" {
		req.Username = user
	}

	lead, err := h.service.Create(r.Context(), CreateRequest{
		Tenant:    req.Username,
		BotID:     req.BotID,
		SessionID: req.SessionID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Please provide your name and at least one contact (email or phone).",
		})
		return
	case errors.Is(err, ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "message": "Lead storage is not configured."})
		return
	default:
		h.logger.Error("leads: create failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Thanks! Your contact has been shared successfully.",
		"lead_id": lead.ID,
	})
}

// List handles GET /get_leads for the dashboard.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("username")
	if user, ok := tenancy.UserFromContext(r.Context()); ok && tenant == "" {
		tenant = user
	}
	if tenant == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Missing username"})
		return
	}
	botID := r.URL.Query().Get("bot_id")

	leads := h.service.List(r.Context(), tenant, botID)
	if leads == nil {
		leads = []Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "leads": leads})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
