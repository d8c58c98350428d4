package bots

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Handler exposes bot CRUD over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a bots HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type botRequest struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Name     string `json:"name"`
}

// Create handles POST /bots/create.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, tenant, ok := h.decode(w, r)
	if !ok {
		return
	}

	bot, created, err := h.service.Create(r.Context(), tenant, strings.TrimSpace(req.Name))
	if err != nil {
		h.fail(w, tenant, "create", err)
		return
	}
	body := map[string]any{"success": true, "bot": bot}
	if !created {
		body["message"] = "You already have a chatbot. Redirecting to setup..."
	}
	writeJSON(w, http.StatusOK, body)
}

// List handles GET /bots.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenant := resolveTenant(r, "")
	if tenant == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "username is required",
		})
		return
	}

	items, err := h.service.List(r.Context(), tenant)
	if err != nil {
		h.fail(w, tenant, "list", err)
		return
	}
	if items == nil {
		items = []Bot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "bots": items})
}

// Rename handles POST /bots/update.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	req, tenant, ok := h.decode(w, r)
	if !ok {
		return
	}
	botID := strings.TrimSpace(req.ID)
	name := strings.TrimSpace(req.Name)
	if botID == "" || name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "Missing id or name",
		})
		return
	}

	if err := h.service.Rename(r.Context(), tenant, botID, name); err != nil {
		h.fail(w, tenant, "rename", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Delete handles POST /bots/delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	req, tenant, ok := h.decode(w, r)
	if !ok {
		return
	}
	botID := strings.TrimSpace(req.ID)
	if botID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "Missing id",
		})
		return
	}

	if err := h.service.Delete(r.Context(), tenant, botID); err != nil {
		h.fail(w, tenant, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Chatbot and all associated data deleted successfully",
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (botRequest, string, bool) {
	var req botRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "invalid JSON body",
		})
		return req, "", false
	}
	tenant := resolveTenant(r, strings.TrimSpace(req.Username))
	if tenant == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "username is required",
		})
		return req, "", false
	}
	return req, tenant, true
}

func (h *Handler) fail(w http.ResponseWriter, tenant, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false, "message": "Bot not found",
		})
	case errors.Is(err, ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false, "message": "Database not configured.",
		})
	default:
		h.logger.Error("bots: request failed", "op", op, "tenant", tenant, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": "Internal server error",
		})
	}
}

// resolveTenant prefers the body username, then the authenticated subject,
// then the query parameter.
func resolveTenant(r *http.Request, bodyUsername string) string {
	if bodyUsername != "" {
		return bodyUsername
	}
	if user, ok := tenancy.UserFromContext(r.Context()); ok {
		return user
	}
	return r.URL.Query().Get("username")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
