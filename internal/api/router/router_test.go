package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adityaverma/chatbot-backend/internal/appointments"
	"github.com/adityaverma/chatbot-backend/internal/assign"
	"github.com/adityaverma/chatbot-backend/internal/bots"
	"github.com/adityaverma/chatbot-backend/internal/conversation"
	"github.com/adityaverma/chatbot-backend/internal/feedback"
	"github.com/adityaverma/chatbot-backend/internal/knowledge"
	"github.com/adityaverma/chatbot-backend/internal/leads"
	"github.com/adityaverma/chatbot-backend/internal/persona"
	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/internal/users"
	"github.com/adityaverma/chatbot-backend/internal/webchat"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

func newTestRouter(t *testing.T) (http.Handler, *users.TokenIssuer, *users.Service) {
	t.Helper()

	logger := logging.Default()
	mem := store.NewMemoryStore()
	assigner := assign.New(mem, logger)

	personas := persona.NewLoader(mem, 20, logger)
	kb := knowledge.NewRepository(mem, nil, logger)
	gen := conversation.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "A helpful answer.", nil
	})
	sessions := conversation.NewSessions()
	responder := conversation.NewResponder(gen, kb, personas, conversation.NewResponseCache(time.Hour), nil, logger)
	records := conversation.NewRecords(mem, logger)

	leadsSvc := leads.NewService(mem, assigner, nil, logger)
	apptSvc := appointments.NewService(mem, assigner, nil, logger)
	capture := conversation.NewCapture(sessions, personas, leadsSvc, records, logger)
	convRouter := conversation.NewRouter(sessions, responder, capture, apptSvc, records, personas, nil, 2, logger)

	usersSvc := users.NewService(mem, assigner, logger)
	tokens := users.NewTokenIssuer("router-test-secret", time.Hour)

	cfg := &Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(convRouter, responder, records, logger),
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		LeadsHandler:        leads.NewHandler(leadsSvc, logger),
		KnowledgeHandler:    knowledge.NewHandler(kb, logger),
		CompanyHandler:      persona.NewHandler(mem, logger),
		BotsHandler:         bots.NewHandler(bots.NewService(mem, logger), logger),
		FeedbackHandler:     feedback.NewHandler(feedback.NewService(mem, logger), logger),
		UsersHandler:        users.NewHandler(usersSvc, tokens, logger),
		WidgetHandler:       webchat.NewHandler(convRouter, logger),
		TokenVerifier:       tokens,
	}
	return New(cfg), tokens, usersSvc
}

func TestRouterHealthEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterPublicSendMessage(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, _ := json.Marshal(map[string]any{
		"message": "what services do you provide?", "username": "acme", "session_id": "s1",
	})
	req := httptest.NewRequest(http.MethodPost, "/send_message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["response"] == "" {
		t.Error("expected a non-empty reply")
	}
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router, tokens, usersSvc := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/get_appointments?username=acme", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rr.Code)
	}

	if err := usersSvc.Signup(context.Background(), "acme", "acme@example.com", "", "secret1"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	token, err := tokens.Issue("acme")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/get_appointments?username=acme", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestRouterAuthFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, _ := json.Marshal(map[string]any{
		"username": "acme", "email": "acme@example.com",
		"password": "secret1", "confirm_password": "secret1",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body %s", rr.Code, rr.Body.String())
	}
	var signed map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&signed); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	token, _ := signed["token"].(string)
	if token == "" {
		t.Fatal("expected a token from signup")
	}

	// The token gates the subadmin routes for its own tenant only.
	req = httptest.NewRequest(http.MethodGet, "/users/acme/subadmins/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("own subadmins status = %d, body %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/users/other/subadmins/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("foreign subadmins status = %d, want 401", rr.Code)
	}
}
