package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/adityaverma/chatbot-backend/internal/config"
	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

func TestSetupMetricsExposesChatCounters(t *testing.T) {
	handler, chatMetrics := setupMetrics()
	if handler == nil || chatMetrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	chatMetrics.ObserveMessage("grounded_answer")
	chatMetrics.ObserveBooking("booked")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "chatbot_conversation_messages_total") {
		t.Fatalf("expected message counter to be exported")
	}
	if !strings.Contains(body, "chatbot_appointments_bookings_total") {
		t.Fatalf("expected booking counter to be exported")
	}
}

func TestSetupStoreDefaultsToMemory(t *testing.T) {
	logger := logging.New("error")
	st := setupStore(&appconfig.Config{}, logger)
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Fatalf("expected memory store without REDIS_ADDR, got %T", st)
	}
}

func TestSetupStorePicksRedisWhenConfigured(t *testing.T) {
	logger := logging.New("error")
	st := setupStore(&appconfig.Config{RedisAddr: "localhost:6379"}, logger)
	if _, ok := st.(*store.RedisStore); !ok {
		t.Fatalf("expected redis store with REDIS_ADDR, got %T", st)
	}
}
