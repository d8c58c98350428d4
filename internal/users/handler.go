package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Handler exposes auth and sub-admin endpoints over HTTP.
type Handler struct {
	service *Service
	tokens  *TokenIssuer
	logger  *logging.Logger
}

// NewHandler creates the users HTTP handler.
func NewHandler(service *Service, tokens *TokenIssuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, tokens: tokens, logger: logger}
}

type signupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Missing username, email or password")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Password = strings.TrimSpace(req.Password)

	switch {
	case req.Username == "" || req.Email == "" || req.Password == "":
		fail(w, http.StatusBadRequest, "Missing username, email or password")
		return
	case req.Password != strings.TrimSpace(req.ConfirmPassword):
		fail(w, http.StatusBadRequest, "Passwords do not match")
		return
	case len(req.Password) < 6:
		fail(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	case len(req.Username) < 3:
		fail(w, http.StatusBadRequest, "Username must be at least 3 characters long")
		return
	case !emailPattern.MatchString(req.Email):
		fail(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	err := h.service.Signup(r.Context(), req.Username, req.Email, strings.TrimSpace(req.Phone), req.Password)
	switch {
	case err == nil:
	case errors.Is(err, ErrExists):
		fail(w, http.StatusConflict, "Username already exists")
		return
	case errors.Is(err, ErrNotConfigured):
		fail(w, http.StatusServiceUnavailable, "Database not available")
		return
	default:
		h.logger.Error("users: signup failed", "error", err)
		fail(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := h.tokens.Issue(req.Username)
	if err != nil {
		h.logger.Error("users: token issue failed", "error", err)
		fail(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"token":    token,
		"username": req.Username,
		"message":  "Account created successfully",
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Missing username or password")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)
	if req.Username == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "Missing username or password")
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		fail(w, http.StatusNotFound, "User not found. Please sign up first.")
		return
	case errors.Is(err, ErrInvalidCredentials):
		fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case errors.Is(err, ErrNotConfigured):
		fail(w, http.StatusServiceUnavailable, "Database not available")
		return
	default:
		h.logger.Error("users: login failed", "error", err)
		fail(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	token, err := h.tokens.Issue(req.Username)
	if err != nil {
		h.logger.Error("users: token issue failed", "error", err)
		fail(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"token":    token,
		"username": req.Username,
		"role":     account.Role,
	})
}

// VerifyToken handles POST /auth/verify.
func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	username, err := h.tokens.Verify(req.Token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "username": username})
}

type subadminRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Access          Access `json:"access"`
}

// CreateSubadmin handles POST /users/{username}/subadmins. Only the main
// admin may manage their own sub-admins.
func (h *Handler) CreateSubadmin(w http.ResponseWriter, r *http.Request) {
	parent := chi.URLParam(r, "username")
	if !h.authorizeParent(r, parent) {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req subadminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Missing username or password")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)

	switch {
	case req.Username == "" || req.Password == "":
		fail(w, http.StatusBadRequest, "Missing username or password")
		return
	case len(req.Username) < 3:
		fail(w, http.StatusBadRequest, "Username must be at least 3 characters long")
		return
	case len(req.Password) < 6:
		fail(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	case req.Password != strings.TrimSpace(req.ConfirmPassword):
		fail(w, http.StatusBadRequest, "Passwords do not match")
		return
	case req.Username == parent:
		fail(w, http.StatusBadRequest, "Sub-admin username cannot be the same as main username")
		return
	}

	account, err := h.service.CreateSubadmin(r.Context(), parent, req.Username, req.Password, req.Access)
	switch {
	case err == nil:
	case errors.Is(err, ErrExists):
		fail(w, http.StatusConflict, "Username already exists")
		return
	case errors.Is(err, ErrNotConfigured):
		fail(w, http.StatusServiceUnavailable, "Database not available")
		return
	default:
		h.logger.Error("users: create subadmin failed", "error", err)
		fail(w, http.StatusInternalServerError, "Failed to create subadmin")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user": map[string]any{
			"username":  account.Username,
			"role":      account.Role,
			"createdAt": account.CreatedAt,
			"access":    account.Access,
		},
	})
}

// ListSubadmins handles GET /users/{username}/subadmins.
func (h *Handler) ListSubadmins(w http.ResponseWriter, r *http.Request) {
	parent := chi.URLParam(r, "username")
	if !h.authorizeParent(r, parent) {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items := h.service.ListSubadmins(r.Context(), parent)
	if items == nil {
		items = []Account{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "items": items})
}

// DeleteSubadmin handles DELETE /users/{username}/subadmins.
func (h *Handler) DeleteSubadmin(w http.ResponseWriter, r *http.Request) {
	parent := chi.URLParam(r, "username")
	if !h.authorizeParent(r, parent) {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Missing subadmin username")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		fail(w, http.StatusBadRequest, "Missing subadmin username")
		return
	}
	if req.Username == parent {
		fail(w, http.StatusBadRequest, "Cannot delete main admin")
		return
	}

	err := h.service.DeleteSubadmin(r.Context(), parent, req.Username)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		fail(w, http.StatusNotFound, "Subadmin not found for this user")
		return
	case errors.Is(err, ErrNotConfigured):
		fail(w, http.StatusServiceUnavailable, "Database not available")
		return
	default:
		h.logger.Error("users: delete subadmin failed", "error", err)
		fail(w, http.StatusInternalServerError, "Failed to delete subadmin")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// authorizeParent checks the authenticated subject matches the route tenant.
func (h *Handler) authorizeParent(r *http.Request, parent string) bool {
	subject, ok := tenancy.UserFromContext(r.Context())
	return ok && parent != "" && subject == parent
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
