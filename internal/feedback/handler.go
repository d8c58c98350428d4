package feedback

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Handler exposes feedback capture and the summary endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a feedback HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type saveRequest struct {
	Username  string `json:"username"`
	BotID     string `json:"bot_id"`
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

// Save handles POST /feedback. Ratings come from the public widget, so a
// missing username falls back to anonymous rather than failing.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	tenant := strings.TrimSpace(req.Username)
	if tenant == "" {
		tenant = "anonymous"
	}
	entry := Entry{
		Rating:    req.Rating,
		SessionID: req.SessionID,
		Reason:    strings.TrimSpace(req.Reason),
		Message:   strings.TrimSpace(req.Message),
	}
	if err := h.service.Save(r.Context(), tenant, req.BotID, entry); err != nil {
		if errors.Is(err, ErrInvalidRating) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false, "error": "invalid rating",
			})
			return
		}
		h.logger.Error("feedback: save failed", "tenant", tenant, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Summary handles GET /feedback_summary/{username}.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "username")
	botID := r.URL.Query().Get("bot_id")

	summary, err := h.service.Summarize(r.Context(), tenant, botID)
	if err != nil {
		h.logger.Error("feedback: summary failed", "tenant", tenant, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"average": summary.Average,
		"total":   summary.Total,
		"counts":  summary.Counts,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
