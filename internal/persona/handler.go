package persona

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Handler exposes company configuration over HTTP.
type Handler struct {
	store  store.Store
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates a company config handler.
func NewHandler(st store.Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: st, logger: logger, now: time.Now}
}

// GetConfig handles GET /get_company_config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	tenant := resolveTenant(r)
	if tenant == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "username is required",
		})
		return
	}

	raw, err := h.store.Get(r.Context(), store.Join(tenant, "company_config"))
	if err != nil {
		h.logger.Error("persona: failed to load company config", "tenant", tenant, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false, "message": "Database not available",
		})
		return
	}
	doc, ok := raw.(map[string]any)
	if !ok || len(doc) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false, "message": "Company configuration not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": doc})
}

type saveConfigRequest struct {
	CompanyName        string `json:"companyName"`
	CompanyURL         string `json:"companyUrl"`
	CompanyDescription string `json:"companyDescription"`
	PrimaryColor       string `json:"primaryColor"`
	Tone               string `json:"tone"`
	Industry           string `json:"industry"`
	WelcomeMessage     string `json:"welcomeMessage"`
	AvatarURL          string `json:"avatarUrl"`
	ResponseLength     int    `json:"responseLength"`
	Files              []any  `json:"files"`
}

// SaveConfig handles POST /save_company_config. A fresh save sets createdAt;
// subsequent saves keep it and bump updatedAt.
func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	tenant := resolveTenant(r)
	if tenant == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "username is required",
		})
		return
	}

	var req saveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "invalid JSON body",
		})
		return
	}
	if req.CompanyName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "Company name is required",
		})
		return
	}

	path := store.Join(tenant, "company_config")
	now := h.now().UTC().Format(time.RFC3339)

	createdAt := now
	if raw, err := h.store.Get(r.Context(), path); err == nil {
		if existing, ok := raw.(map[string]any); ok {
			if prev, ok := existing["createdAt"].(string); ok && prev != "" {
				createdAt = prev
			}
		}
	}

	doc := map[string]any{
		"companyName":        req.CompanyName,
		"companyUrl":         req.CompanyURL,
		"companyDescription": req.CompanyDescription,
		"primaryColor":       req.PrimaryColor,
		"tone":               req.Tone,
		"industry":           req.Industry,
		"welcomeMessage":     req.WelcomeMessage,
		"avatarUrl":          req.AvatarURL,
		"responseLength":     req.ResponseLength,
		"files":              req.Files,
		"createdAt":          createdAt,
		"updatedAt":          now,
	}
	if err := h.store.Set(r.Context(), path, doc); err != nil {
		h.logger.Error("persona: failed to save company config", "tenant", tenant, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false, "message": "Failed to save company configuration",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "message": "Company configuration saved successfully",
	})
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
