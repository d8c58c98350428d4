package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adityaverma/chatbot-backend/internal/api/router"
	"github.com/adityaverma/chatbot-backend/internal/appointments"
	"github.com/adityaverma/chatbot-backend/internal/assign"
	"github.com/adityaverma/chatbot-backend/internal/bots"
	appconfig "github.com/adityaverma/chatbot-backend/internal/config"
	"github.com/adityaverma/chatbot-backend/internal/conversation"
	"github.com/adityaverma/chatbot-backend/internal/feedback"
	"github.com/adityaverma/chatbot-backend/internal/knowledge"
	"github.com/adityaverma/chatbot-backend/internal/leads"
	"github.com/adityaverma/chatbot-backend/internal/observability/metrics"
	"github.com/adityaverma/chatbot-backend/internal/persona"
	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/internal/users"
	"github.com/adityaverma/chatbot-backend/internal/webchat"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting chatbot-backend API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	st := setupStore(cfg, logger)
	metricsHandler, chatMetrics := setupMetrics()

	// Generation is optional: without an API key the responder degrades to
	// its apology path instead of refusing to start.
	var generator conversation.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := conversation.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to initialize gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		generator = gemini
		logger.Info("gemini generation enabled", "model", cfg.GeminiModelID)
	} else {
		logger.Warn("GEMINI_API_KEY not set, llm generation disabled")
	}

	assigner := assign.New(st, logger)
	personas := persona.NewLoader(st, cfg.DefaultMaxWords, logger)
	cache := conversation.NewResponseCache(cfg.ResponseCacheTTL)
	kb := knowledge.NewRepository(st, cache.Clear, logger)
	sessions := conversation.NewSessions()
	records := conversation.NewRecords(st, logger)
	responder := conversation.NewResponder(generator, kb, personas, cache, chatMetrics, logger)

	leadsSvc := leads.NewService(st, assigner, chatMetrics, logger)
	apptSvc := appointments.NewService(st, assigner, chatMetrics, logger)
	capture := conversation.NewCapture(sessions, personas, leadsSvc, records, logger)
	convRouter := conversation.NewRouter(sessions, responder, capture, apptSvc, records, personas,
		chatMetrics, cfg.LeadCaptureThreshold, logger)

	usersSvc := users.NewService(st, assigner, logger)
	tokens := users.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(convRouter, responder, records, logger),
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		LeadsHandler:        leads.NewHandler(leadsSvc, logger),
		KnowledgeHandler:    knowledge.NewHandler(kb, logger),
		CompanyHandler:      persona.NewHandler(st, logger),
		BotsHandler:         bots.NewHandler(bots.NewService(st, logger), logger),
		FeedbackHandler:     feedback.NewHandler(feedback.NewService(st, logger), logger),
		UsersHandler:        users.NewHandler(usersSvc, tokens, logger),
		WidgetHandler:       webchat.NewHandler(convRouter, logger),
		TokenVerifier:       tokens,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupStore picks Redis when an address is configured, else the in-memory
// tree store.
func setupStore(cfg *appconfig.Config, logger *logging.Logger) store.Store {
	if cfg.RedisAddr != "" {
		client := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisTLS)
		logger.Info("using redis store", "addr", cfg.RedisAddr)
		return store.NewRedisStore(client)
	}
	logger.Warn("REDIS_ADDR not set, using in-memory store; data will not survive restarts")
	return store.NewMemoryStore()
}

// setupMetrics builds the registry, the runtime collectors, and the chat
// metrics exported at /metrics.
func setupMetrics() (http.Handler, *metrics.ChatMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	chatMetrics := metrics.NewChatMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), chatMetrics
}
