// Package router wires every HTTP endpoint onto a chi mux.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adityaverma/chatbot-backend/internal/appointments"
	"github.com/adityaverma/chatbot-backend/internal/bots"
	"github.com/adityaverma/chatbot-backend/internal/conversation"
	"github.com/adityaverma/chatbot-backend/internal/feedback"
	httpmiddleware "github.com/adityaverma/chatbot-backend/internal/http/middleware"
	"github.com/adityaverma/chatbot-backend/internal/knowledge"
	"github.com/adityaverma/chatbot-backend/internal/leads"
	"github.com/adityaverma/chatbot-backend/internal/persona"
	"github.com/adityaverma/chatbot-backend/internal/users"
	"github.com/adityaverma/chatbot-backend/internal/webchat"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	AppointmentsHandler *appointments.Handler
	LeadsHandler        *leads.Handler
	KnowledgeHandler    *knowledge.Handler
	CompanyHandler      *persona.Handler
	BotsHandler         *bots.Handler
	FeedbackHandler     *feedback.Handler
	UsersHandler        *users.Handler
	WidgetHandler       *webchat.Handler
	TokenVerifier       httpmiddleware.TokenVerifier
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: the widget and everything the embedded chat needs.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		// Widget traffic carries no token but may come from a logged-in
		// dashboard preview, so identity is resolved when present.
		public.Group(func(widget chi.Router) {
			widget.Use(httpmiddleware.OptionalAuth(cfg.TokenVerifier))
			widget.Post("/send_message", cfg.ConversationHandler.SendMessage)
			widget.Post("/chat", cfg.ConversationHandler.Chat)
			widget.Post("/schedule_appointment", cfg.AppointmentsHandler.Schedule)
			widget.Post("/cancel_appointment", cfg.AppointmentsHandler.Cancel)
			widget.Get("/get_slot_locks", cfg.AppointmentsHandler.SlotLocks)
			widget.Post("/create_lead", cfg.LeadsHandler.Create)
			widget.Post("/feedback", cfg.FeedbackHandler.Save)
		})
		if cfg.WidgetHandler != nil {
			public.Get("/widget/ws", cfg.WidgetHandler.Serve)
		}

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", cfg.UsersHandler.Signup)
			auth.Post("/login", cfg.UsersHandler.Login)
			auth.Post("/verify", cfg.UsersHandler.VerifyToken)
		})
	})

	// Dashboard endpoints require a verified subject.
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.RequireAuth(cfg.TokenVerifier))

		private.Get("/get_appointments", cfg.AppointmentsHandler.List)
		private.Get("/get_leads", cfg.LeadsHandler.List)
		private.Get("/get_conversations", cfg.ConversationHandler.GetConversations)

		private.Get("/get_knowledge_base", cfg.KnowledgeHandler.Get)
		private.Post("/update_knowledge_base", cfg.KnowledgeHandler.Update)
		private.Post("/reload_knowledge_base", cfg.KnowledgeHandler.Reload)

		private.Get("/get_company_config", cfg.CompanyHandler.GetConfig)
		private.Post("/save_company_config", cfg.CompanyHandler.SaveConfig)

		private.Route("/bots", func(b chi.Router) {
			b.Get("/", cfg.BotsHandler.List)
			b.Post("/create", cfg.BotsHandler.Create)
			b.Post("/update", cfg.BotsHandler.Rename)
			b.Post("/delete", cfg.BotsHandler.Delete)
		})

		private.Route("/users/{username}/subadmins", func(sub chi.Router) {
			sub.Get("/", cfg.UsersHandler.ListSubadmins)
			sub.Post("/", cfg.UsersHandler.CreateSubadmin)
			sub.Delete("/", cfg.UsersHandler.DeleteSubadmin)
		})

		private.Get("/feedback_summary/{username}", cfg.FeedbackHandler.Summary)
	})

	return r
}
