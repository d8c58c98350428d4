package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/adityaverma/chatbot-backend/internal/appointments"
	"github.com/adityaverma/chatbot-backend/internal/observability/metrics"
	"github.com/adityaverma/chatbot-backend/internal/persona"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Scheduler is the slot-booking surface the router needs: cancellation by
// appointment ID and the freeform text scheduling sub-path.
type Scheduler interface {
	Cancel(ctx context.Context, tenant, botID, appointmentID string) error
	BookFreeform(ctx context.Context, tenant, botID, title string) (string, error)
}

var (
	appointmentKeywords = []string{"schedule", "appointment", "book", "meeting", "consultation"}
	cancelKeywords      = []string{"cancel", "reschedule", "change appointment"}
	listingKeywords     = []string{"view appointments", "show appointments", "my appointments", "calendar", "appointment list"}

	appointmentIDPattern = regexp.MustCompile(`APT-[A-Za-z0-9-]+`)
)

// inbound carries one classified message through the rule table.
type inbound struct {
	tenant    string
	botID     string
	sessionID string
	message   string
	lower     string
	session   Session // snapshot taken before classification
}

type rule struct {
	name   string
	match  func(*inbound) bool
	handle func(context.Context, *inbound) string
}

// Router classifies each inbound message against an ordered rule table and
// dispatches to the matching path. Rule order encodes precedence: an
// appointment ID beats a scheduling keyword, which beats a cancellation
// keyword, and so on down to the grounded-answer default.
type Router struct {
	sessions  *Sessions
	responder *Responder
	capture   *Capture
	scheduler Scheduler
	records   *Records
	personas  *persona.Loader
	metrics   *metrics.ChatMetrics
	threshold int
	logger    *logging.Logger
	rules     []rule
}

// NewRouter wires the conversation router. threshold is the message count
// at which lead capture starts (2 when zero).
func NewRouter(sessions *Sessions, responder *Responder, capture *Capture, scheduler Scheduler, records *Records, personas *persona.Loader, m *metrics.ChatMetrics, threshold int, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	if threshold <= 0 {
		threshold = 2
	}
	r := &Router{
		sessions:  sessions,
		responder: responder,
		capture:   capture,
		scheduler: scheduler,
		records:   records,
		personas:  personas,
		metrics:   m,
		threshold: threshold,
		logger:    logger,
	}
	r.rules = []rule{
		{
			name: "cancel_by_id",
			match: func(in *inbound) bool {
				return strings.HasPrefix(in.lower, "apt-") || strings.Contains(in.lower, "appointment id:")
			},
			handle: r.handleCancelByID,
		},
		{
			name: "schedule_intent",
			match: func(in *inbound) bool { return containsAny(in.lower, appointmentKeywords) },
			handle: func(ctx context.Context, in *inbound) string {
				r.sessions.With(SessionKey(in.tenant, in.sessionID), func(s *Session) {
					s.AwaitingTitle = true
				})
				return "I'd be happy to help you schedule an appointment! First, please tell me the title of your appointment."
			},
		},
		{
			name:  "cancel_intent",
			match: func(in *inbound) bool { return containsAny(in.lower, cancelKeywords) },
			handle: func(ctx context.Context, in *inbound) string {
				return "I can help you cancel an appointment. Please provide your appointment ID. If you don't have it, I can help you find your appointments."
			},
		},
		{
			name:   "appointment_title",
			match:  func(in *inbound) bool { return in.session.AwaitingTitle },
			handle: r.handleTitle,
		},
		{
			name: "schedule_freeform",
			match: func(in *inbound) bool {
				return strings.Contains(in.lower, "title:") &&
					(strings.Contains(in.lower, "date") || strings.Contains(in.lower, "time"))
			},
			handle: r.handleFreeform,
		},
		{
			name:  "list_appointments",
			match: func(in *inbound) bool { return containsAny(in.lower, listingKeywords) },
			handle: func(ctx context.Context, in *inbound) string {
				return "I'll show you your appointments. You can view all appointments or search by appointment ID."
			},
		},
		{
			name:   "grounded_answer",
			match:  func(in *inbound) bool { return true },
			handle: r.handleDefault,
		},
	}
	return r
}

// Route processes one inbound message and returns the reply. Whatever path
// is taken, the turn is persisted as a conversation record best-effort.
func (r *Router) Route(ctx context.Context, tenant, botID, sessionID, message string) string {
	if sessionID == "" {
		sessionID = "default"
	}

	in := &inbound{
		tenant:    tenant,
		botID:     botID,
		sessionID: sessionID,
		message:   message,
		lower:     strings.ToLower(message),
		session:   r.sessions.Snapshot(SessionKey(tenant, sessionID)),
	}

	var reply string
	for _, rule := range r.rules {
		if rule.match(in) {
			reply = rule.handle(ctx, in)
			r.metrics.ObserveMessage(rule.name)
			break
		}
	}

	r.records.Save(ctx, tenant, botID, sessionID, message, reply)
	return reply
}

func (r *Router) handleCancelByID(ctx context.Context, in *inbound) string {
	id := appointmentIDPattern.FindString(in.message)
	if id == "" {
		for _, line := range strings.Split(in.message, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(strings.ToLower(line), "appointment id:") {
				id = strings.TrimSpace(line[len("appointment id:"):])
				break
			}
		}
	}
	if id == "" {
		return "Please provide your appointment ID. It should look like 'APT-1234567890-abc12345'."
	}

	err := r.scheduler.Cancel(ctx, in.tenant, in.botID, id)
	switch {
	case err == nil:
		return fmt.Sprintf("Appointment %s has been cancelled successfully.", id)
	case errors.Is(err, appointments.ErrNotFound):
		return fmt.Sprintf("Appointment ID %s not found. Please check your appointment ID and try again.", id)
	case errors.Is(err, appointments.ErrNotConfigured):
		return "Appointment storage is not configured. Please contact support."
	default:
		r.logger.Error("conversation: cancellation failed", "tenant", in.tenant, "appointment_id", id, "error", err)
		return "Sorry, I encountered an error while cancelling your appointment. Please try again."
	}
}

func (r *Router) handleTitle(ctx context.Context, in *inbound) string {
	title := strings.TrimSpace(in.message)
	r.sessions.With(SessionKey(in.tenant, in.sessionID), func(s *Session) {
		s.AwaitingTitle = false
	})
	return fmt.Sprintf("Great! Your appointment title is: %s\n\nNow, please select the date and time for your appointment. I'll show you a calendar to choose from.", title)
}

// handleFreeform parses "Title: X / Date and Time: Y" text. The parse is
// best-effort: the appointment is stored with the current timestamp.
func (r *Router) handleFreeform(ctx context.Context, in *inbound) string {
	var title, dateTime string
	for _, line := range strings.Split(in.message, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "title:"):
			title = strings.TrimSpace(line[len("title:"):])
		case strings.HasPrefix(lower, "date") || strings.HasPrefix(lower, "time"):
			if _, rest, ok := strings.Cut(line, ":"); ok {
				dateTime = strings.TrimSpace(rest)
			}
		}
	}
	if title == "" || dateTime == "" {
		return "Please provide both Title and Date/Time in the correct format:\nTitle: [Appointment Title]\nDate and Time: [Date and Time]"
	}

	id, err := r.scheduler.BookFreeform(ctx, in.tenant, in.botID, title)
	if err != nil {
		if errors.Is(err, appointments.ErrNotConfigured) {
			return "Appointment storage is not configured. Please contact support."
		}
		r.logger.Error("conversation: freeform scheduling failed", "tenant", in.tenant, "error", err)
		return "Sorry, I encountered an error while scheduling your appointment. Please try again."
	}
	return fmt.Sprintf("Great! I've scheduled your appointment:\n\nTitle: %s\nDate/Time: %s\nAppointment ID: %s\n\nPlease save this appointment ID for future reference.", title, dateTime, id)
}

func (r *Router) handleDefault(ctx context.Context, in *inbound) string {
	key := SessionKey(in.tenant, in.sessionID)

	if in.session.Capture != nil {
		if reply := r.capture.Handle(ctx, in.tenant, in.botID, in.sessionID, in.message); reply != "" {
			return reply
		}
		return r.responder.Answer(ctx, in.tenant, in.message)
	}

	answer := r.responder.Answer(ctx, in.tenant, in.message)

	triggered := false
	r.sessions.With(key, func(s *Session) {
		s.Count++
		if s.Count >= r.threshold && !s.CaptureCompleted && s.Capture == nil {
			s.Capture = &CaptureState{Step: 1}
			triggered = true
		}
	})
	if triggered {
		r.logger.Info("conversation: starting lead capture", "session", key)
		answer = answer + " " + persona.StepPrompt(r.personas.Load(ctx, in.tenant), 1)
	}
	return answer
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
