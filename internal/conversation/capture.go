package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/adityaverma/chatbot-backend/internal/contact"
	"github.com/adityaverma/chatbot-backend/internal/persona"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// LeadSaver persists a captured lead. Implemented by the leads service.
type LeadSaver interface {
	SaveCaptured(ctx context.Context, tenant, botID, sessionID, name, phone, email string) error
}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)name[:\s]+([a-zA-Z\s]+)`),
	regexp.MustCompile(`(?i)my name is ([a-zA-Z\s]+)`),
	regexp.MustCompile(`(?i)i'm ([a-zA-Z\s]+)`),
	regexp.MustCompile(`(?i)call me ([a-zA-Z\s]+)`),
	regexp.MustCompile(`(?i)^([a-zA-Z\s]+)$`),
}

var bareName = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// Capture is the three-step lead-capture sub-machine: name, phone, email.
// It owns the per-session capture state transitions; the Router delegates to
// it whenever a session has an active capture.
type Capture struct {
	sessions *Sessions
	personas *persona.Loader
	leads    LeadSaver
	records  *Records
	logger   *logging.Logger
}

// NewCapture wires the lead-capture sub-machine.
func NewCapture(sessions *Sessions, personas *persona.Loader, leads LeadSaver, records *Records, logger *logging.Logger) *Capture {
	if logger == nil {
		logger = logging.Default()
	}
	return &Capture{
		sessions: sessions,
		personas: personas,
		leads:    leads,
		records:  records,
		logger:   logger,
	}
}

// Handle consumes one message for a session with active capture and returns
// the reply. Invalid input re-prompts without advancing.
func (c *Capture) Handle(ctx context.Context, tenant, botID, sessionID, message string) string {
	key := SessionKey(tenant, sessionID)
	state := c.sessions.Snapshot(key).Capture
	if state == nil {
		return ""
	}

	switch state.Step {
	case 1:
		return c.handleName(ctx, tenant, key, state, message)
	case 2:
		return c.handlePhone(ctx, tenant, key, state, message)
	case 3:
		return c.handleEmail(ctx, tenant, botID, sessionID, key, state, message)
	}
	return ""
}

func (c *Capture) handleName(ctx context.Context, tenant, key string, state *CaptureState, message string) string {
	name := ""
	for _, pat := range namePatterns {
		if m := pat.FindStringSubmatch(message); m != nil {
			name = strings.TrimSpace(m[1])
			break
		}
	}
	trimmed := strings.TrimSpace(message)
	if name == "" && bareName.MatchString(trimmed) && len(trimmed) > 1 {
		name = trimmed
	}

	// One or two words only
	if parts := strings.Fields(name); len(parts) >= 3 {
		name = parts[0] + " " + parts[1]
	}

	if len(name) <= 1 {
		return "I didn't catch your full name. Please provide first and last name."
	}

	state.Name = name
	state.Step = 2
	c.store(key, state)
	return persona.StepPrompt(c.personas.Load(ctx, tenant), 2)
}

func (c *Capture) handlePhone(ctx context.Context, tenant, key string, state *CaptureState, message string) string {
	if strings.EqualFold(strings.TrimSpace(message), "skip") {
		state.Phone = ""
		state.Step = 3
		c.store(key, state)
		return persona.StepPrompt(c.personas.Load(ctx, tenant), 3)
	}

	if !contact.IsValidMobile(message) {
		return "Please enter a valid phone number."
	}

	phone := contact.NormalizePhone(message)
	if phone == "" {
		phone = strings.TrimSpace(message)
	}
	state.Phone = phone
	state.Step = 3
	c.store(key, state)
	return persona.StepPrompt(c.personas.Load(ctx, tenant), 3)
}

func (c *Capture) handleEmail(ctx context.Context, tenant, botID, sessionID, key string, state *CaptureState, message string) string {
	if strings.EqualFold(strings.TrimSpace(message), "skip") {
		if state.Phone == "" {
			return "Please share at least one contact method (email or phone). What's your email address?"
		}
		state.Email = ""
		return c.complete(ctx, tenant, botID, sessionID, key, state)
	}

	if email := contact.ExtractEmail(message); email != "" {
		state.Email = email
		return c.complete(ctx, tenant, botID, sessionID, key, state)
	}

	// A phone on file lets the visitor finish without an email.
	if state.Phone != "" {
		state.Email = ""
		return c.complete(ctx, tenant, botID, sessionID, key, state)
	}
	return "I didn't catch your email address. Could you please provide your email? You can also type 'skip'."
}

// complete persists the lead, retro-tags the session's records, clears the
// capture state, and permanently marks the session as captured.
func (c *Capture) complete(ctx context.Context, tenant, botID, sessionID, key string, state *CaptureState) string {
	// Phone is re-validated so an invalid number is never stored.
	phone := contact.NormalizePhone(state.Phone)

	if c.leads != nil {
		if err := c.leads.SaveCaptured(ctx, tenant, botID, sessionID, state.Name, phone, state.Email); err != nil {
			c.logger.Error("conversation: failed to save captured lead", "tenant", tenant, "error", err)
		}
	}
	if c.records != nil {
		c.records.TagContact(ctx, tenant, botID, sessionID, state.Name)
	}

	c.sessions.With(key, func(s *Session) {
		s.Capture = nil
		s.CaptureCompleted = true
	})
	c.logger.Info("conversation: lead capture completed", "session", key)

	return persona.CompletionMessage(c.personas.Load(ctx, tenant), state.Name, phone, state.Email)
}

func (c *Capture) store(key string, state *CaptureState) {
	cp := *state
	c.sessions.With(key, func(s *Session) {
		s.Capture = &cp
	})
}
