package knowledge

import (
	"encoding/json"
	"net/http"

	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Handler exposes the knowledge base over HTTP.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a knowledge handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Get handles GET /get_knowledge_base.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := resolveTenant(r)
	if tenant == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	doc := h.repo.Load(r.Context(), tenant)
	writeJSON(w, http.StatusOK, map[string]any{"knowledge_base": doc})
}

// Update handles POST /update_knowledge_base with a raw JSON document body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := resolveTenant(r)
	if tenant == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	var doc any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.repo.Update(r.Context(), tenant, doc); err != nil {
		h.logger.Error("knowledge: update failed", "tenant", tenant, "error", err)
		http.Error(w, "failed to update knowledge base", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Reload handles POST /reload_knowledge_base, refreshing the cache from storage.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	tenant := resolveTenant(r)
	if tenant == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	doc := h.repo.Reload(r.Context(), tenant)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "knowledge_base": doc})
}

func resolveTenant(r *http.Request) string {
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
