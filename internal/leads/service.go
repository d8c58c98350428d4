package leads

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adityaverma/chatbot-backend/internal/assign"
	"github.com/adityaverma/chatbot-backend/internal/observability/metrics"
	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Assigner picks the sub-admin a new lead is routed to.
type Assigner interface {
	Assign(ctx context.Context, tenant, kind string) string
}

// Service creates and lists leads.
type Service struct {
	store    store.Store
	assigner Assigner
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewService creates the leads service.
func NewService(st store.Store, assigner Assigner, m *metrics.ChatMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: st, assigner: assigner, metrics: m, logger: logger, now: time.Now}
}

// CreateRequest carries the fields for an explicit lead creation.
type CreateRequest struct {
	Tenant    string
	BotID     string
	SessionID string
	Name      string
	Email     string
	Phone     string
	Message   string
}

// Create validates and persists a lead, assigning it round-robin.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Lead, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || (email == "" && phone == "") {
		return nil, ErrValidation
	}

	username := strings.TrimSpace(req.Tenant)
	if username == "" {
		username = "anonymous"
	}
	lead := &Lead{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Message:   strings.TrimSpace(req.Message),
		Source:    "chatbot",
		CreatedAt: s.now().UnixMilli(),
		Username:  username,
		Status:    "new",
		SessionID: req.SessionID,
	}
	if s.assigner != nil {
		lead.AssignedTo = s.assigner.Assign(ctx, req.Tenant, assign.KindLeads)
	}

	base := tenancy.BasePath(req.Tenant, req.BotID)
	if err := s.store.Set(ctx, store.Join(base, "leads", lead.ID), lead); err != nil {
		return nil, err
	}
	s.metrics.ObserveLead("endpoint")
	s.logger.Info("leads: lead created", "lead_id", lead.ID, "tenant", req.Tenant, "assigned_to", lead.AssignedTo)
	return lead, nil
}

// SaveCaptured persists a lead completed by the chat capture flow. Phone
// was validated upstream; an empty email or phone is stored as empty.
func (s *Service) SaveCaptured(ctx context.Context, tenant, botID, sessionID, name, phone, email string) error {
	if s.store == nil {
		return ErrNotConfigured
	}

	username := strings.TrimSpace(tenant)
	if username == "" {
		username = "anonymous"
	}
	lead := &Lead{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Source:    "chatbot",
		CreatedAt: s.now().UnixMilli(),
		Username:  username,
		Status:    "new",
		SessionID: sessionID,
	}
	if s.assigner != nil {
		lead.AssignedTo = s.assigner.Assign(ctx, tenant, assign.KindLeads)
	}

	base := tenancy.BasePath(tenant, botID)
	if err := s.store.Set(ctx, store.Join(base, "leads", lead.ID), lead); err != nil {
		return err
	}
	s.metrics.ObserveLead("capture")
	s.logger.Info("leads: captured lead saved", "lead_id", lead.ID, "tenant", tenant, "assigned_to", lead.AssignedTo)
	return nil
}

// List returns the tenant's leads newest-first, consulting the legacy
// unscoped path when the bot-scoped one is empty.
func (s *Service) List(ctx context.Context, tenant, botID string) []Lead {
	if s.store == nil {
		return nil
	}

	leads := s.listAt(ctx, tenancy.BasePath(tenant, botID))
	if len(leads) == 0 && botID != "" {
		leads = s.listAt(ctx, tenancy.LegacyPath(tenant))
	}

	sort.Slice(leads, func(i, j int) bool { return leads[i].CreatedAt > leads[j].CreatedAt })
	return leads
}

func (s *Service) listAt(ctx context.Context, base string) []Lead {
	raw, err := s.store.Get(ctx, store.Join(base, "leads"))
	if err != nil {
		s.logger.Warn("leads: failed to list leads", "base", base, "error", err)
		return nil
	}
	docs, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	leads := make([]Lead, 0, len(docs))
	for id, v := range docs {
		doc, ok := v.(map[string]any)
		if !ok {
			continue
		}
		lead := Lead{
			ID:         id,
			Name:       asString(doc["name"]),
			Email:      asString(doc["email"]),
			Phone:      asString(doc["phone"]),
			Message:    asString(doc["message"]),
			Source:     asString(doc["source"]),
			CreatedAt:  asInt64(doc["created_at"]),
			Username:   asString(doc["username"]),
			Status:     asString(doc["status"]),
			SessionID:  asString(doc["session_id"]),
			AssignedTo: asString(doc["assigned_to"]),
		}
		if v := asString(doc["id"]); v != "" {
			lead.ID = v
		}
		leads = append(leads, lead)
	}
	return leads
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
