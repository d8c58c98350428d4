package appointments

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adityaverma/chatbot-backend/internal/assign"
	"github.com/adityaverma/chatbot-backend/internal/observability/metrics"
	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

var appointmentsTracer = otel.Tracer("chatbot.internal.appointments")

// Assigner picks the sub-admin a new appointment is routed to.
type Assigner interface {
	Assign(ctx context.Context, tenant, kind string) string
}

// Service books and cancels appointments. The conflict check is two-phase
// (existing appointments at the exact time, then the slot lock) and
// best-effort across processes; within this process a per-slot mutex
// serializes bookings for the same slot key.
type Service struct {
	store    store.Store
	assigner Assigner
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
	now      func() time.Time

	slotMu sync.Mutex
	slots  map[string]*sync.Mutex
}

// NewService creates the appointments service.
func NewService(st store.Store, assigner Assigner, m *metrics.ChatMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    st,
		assigner: assigner,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		slots:    make(map[string]*sync.Mutex),
	}
}

// BookRequest carries the structured scheduling fields.
type BookRequest struct {
	Tenant      string
	BotID       string
	Title       string
	Time        string
	SessionID   string
	ContactName string
}

// Book schedules an appointment after checking the slot is free. Returns
// ErrSlotTaken when either phase of the conflict check finds a live booking.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book",
		trace.WithAttributes(attribute.String("chatbot.tenant", req.Tenant)))
	defer span.End()

	if s.store == nil {
		return nil, ErrNotConfigured
	}

	when, err := ParseTime(req.Time)
	if err != nil {
		return nil, err
	}
	slotKey := SlotKey(when)
	span.SetAttributes(attribute.String("chatbot.slot_key", slotKey))

	base := tenancy.BasePath(req.Tenant, req.BotID)

	// Serialize same-slot bookings within this process. Cross-process races
	// remain possible; the lock write below is last-writer-wins.
	mu := s.slotLock(base + "/" + slotKey)
	mu.Lock()
	defer mu.Unlock()

	timeKey := when.Format(time.RFC3339)
	if existing, err := s.store.OrderByChildEqualTo(ctx, store.Join(base, "appointments"), "time", timeKey); err == nil {
		for _, appt := range existing {
			status, _ := appt["status"].(string)
			if status == "" {
				status = StatusPending
			}
			if status != StatusCancelled {
				s.metrics.ObserveBooking("conflict")
				return nil, ErrSlotTaken
			}
		}
	} else {
		s.logger.Warn("appointments: slot availability check failed", "tenant", req.Tenant, "error", err)
	}

	if raw, err := s.store.Get(ctx, store.Join(base, "slot_locks", slotKey)); err == nil {
		if lock, ok := raw.(map[string]any); ok {
			if status, _ := lock["status"].(string); status == "booked" {
				s.metrics.ObserveBooking("conflict")
				return nil, ErrSlotTaken
			}
		}
	} else {
		s.logger.Warn("appointments: slot lock read failed", "tenant", req.Tenant, "error", err)
	}

	now := s.now()
	username := strings.TrimSpace(req.Tenant)
	if username == "" {
		username = "anonymous"
	}
	appt := &Appointment{
		ID:          NewID(now),
		Title:       req.Title,
		Time:        timeKey,
		Status:      StatusPending,
		CreatedAt:   now.UnixMilli(),
		Username:    username,
		BotID:       req.BotID,
		SessionID:   req.SessionID,
		ContactName: req.ContactName,
	}
	if s.assigner != nil {
		appt.AssignedTo = s.assigner.Assign(ctx, req.Tenant, assign.KindAppointments)
	}

	if err := s.store.Set(ctx, store.Join(base, "appointments", appt.ID), appt); err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("error")
		return nil, err
	}
	s.logger.Info("appointments: appointment saved", "appointment_id", appt.ID, "tenant", req.Tenant)

	// Lock write is best-effort: the appointment itself is already saved.
	lock := map[string]any{"status": "booked", "appointment_id": appt.ID}
	if err := s.store.Set(ctx, store.Join(base, "slot_locks", slotKey), lock); err != nil {
		s.logger.Warn("appointments: failed to set slot lock", "slot_key", slotKey, "error", err)
	}

	s.metrics.ObserveBooking("booked")
	return appt, nil
}

// BookFreeform stores an appointment from the chat freeform path. The
// date/time text was not reliably parseable, so the current timestamp is
// stored.
func (s *Service) BookFreeform(ctx context.Context, tenant, botID, title string) (string, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book_freeform")
	defer span.End()

	if s.store == nil {
		return "", ErrNotConfigured
	}

	now := s.now()
	appt := &Appointment{
		ID:        NewID(now),
		Title:     title,
		Time:      now.UTC().Format(time.RFC3339),
		Status:    StatusPending,
		CreatedAt: now.UnixMilli(),
		Username:  tenant,
		BotID:     botID,
	}

	base := tenancy.BasePath(tenant, botID)
	if err := s.store.Set(ctx, store.Join(base, "appointments", appt.ID), appt); err != nil {
		span.RecordError(err)
		return "", err
	}
	s.metrics.ObserveBooking("freeform")
	return appt.ID, nil
}

// Cancel marks the appointment cancelled and frees its slot lock.
func (s *Service) Cancel(ctx context.Context, tenant, botID, appointmentID string) error {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.cancel",
		trace.WithAttributes(attribute.String("chatbot.appointment_id", appointmentID)))
	defer span.End()

	if s.store == nil {
		return ErrNotConfigured
	}

	base := tenancy.BasePath(tenant, botID)
	path := store.Join(base, "appointments", appointmentID)

	raw, err := s.store.Get(ctx, path)
	if err != nil {
		span.RecordError(err)
		return err
	}
	appt, ok := raw.(map[string]any)
	if !ok || len(appt) == 0 {
		return ErrNotFound
	}
	if status, _ := appt["status"].(string); status == StatusCancelled {
		return ErrAlreadyCancelled
	}

	cancelledBy := tenant
	if cancelledBy == "" {
		cancelledBy = "anonymous"
	}
	err = s.store.Update(ctx, path, map[string]any{
		"status":       StatusCancelled,
		"cancelled_by": cancelledBy,
		"cancelled_at": s.now().UnixMilli(),
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("appointments: appointment cancelled", "appointment_id", appointmentID, "tenant", tenant)

	// Free the slot lock so the slot can be rebooked.
	if timeStr, _ := appt["time"].(string); timeStr != "" {
		if when, err := ParseTime(timeStr); err == nil {
			slotKey := SlotKey(when)
			lock := map[string]any{"status": StatusCancelled, "appointment_id": appointmentID}
			if err := s.store.Set(ctx, store.Join(base, "slot_locks", slotKey), lock); err != nil {
				s.logger.Warn("appointments: failed to free slot lock", "slot_key", slotKey, "error", err)
			}
		}
	}

	s.metrics.ObserveBooking("cancelled")
	return nil
}

// List returns the tenant's appointments newest-first, consulting the
// legacy unscoped path when the bot-scoped one is empty. Storage being
// unavailable yields an empty list.
func (s *Service) List(ctx context.Context, tenant, botID string) []Appointment {
	if s.store == nil {
		return nil
	}

	appts := s.listAt(ctx, tenancy.BasePath(tenant, botID))
	if len(appts) == 0 && botID != "" {
		appts = s.listAt(ctx, tenancy.LegacyPath(tenant))
	}

	sort.Slice(appts, func(i, j int) bool { return appts[i].CreatedAt > appts[j].CreatedAt })
	return appts
}

// Get returns one appointment by ID, or ErrNotFound.
func (s *Service) Get(ctx context.Context, tenant, botID, appointmentID string) (*Appointment, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}

	base := tenancy.BasePath(tenant, botID)
	raw, err := s.store.Get(ctx, store.Join(base, "appointments", appointmentID))
	if err != nil {
		return nil, err
	}
	doc, ok := raw.(map[string]any)
	if !ok || len(doc) == 0 {
		return nil, ErrNotFound
	}
	appt := fromDoc(appointmentID, doc)
	return &appt, nil
}

// SlotLocks returns slot lock statuses filtered by a YYYY-MM-DD date,
// keyed by slot key.
func (s *Service) SlotLocks(ctx context.Context, tenant, botID, date string) map[string]string {
	locks := make(map[string]string)
	if s.store == nil {
		return locks
	}
	prefix := strings.ReplaceAll(strings.TrimSpace(date), "-", "") + "-"
	if prefix == "-" {
		return locks
	}

	base := tenancy.BasePath(tenant, botID)
	raw, err := s.store.Get(ctx, store.Join(base, "slot_locks"))
	if err != nil {
		s.logger.Warn("appointments: failed to read slot locks", "tenant", tenant, "error", err)
		return locks
	}
	all, ok := raw.(map[string]any)
	if !ok {
		return locks
	}
	for key, v := range all {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if lock, ok := v.(map[string]any); ok {
			status, _ := lock["status"].(string)
			if status == "" {
				status = "booked"
			}
			locks[key] = status
		}
	}
	return locks
}

func (s *Service) listAt(ctx context.Context, base string) []Appointment {
	raw, err := s.store.Get(ctx, store.Join(base, "appointments"))
	if err != nil {
		s.logger.Warn("appointments: failed to list appointments", "base", base, "error", err)
		return nil
	}
	docs, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	appts := make([]Appointment, 0, len(docs))
	for id, v := range docs {
		doc, ok := v.(map[string]any)
		if !ok {
			continue
		}
		appts = append(appts, fromDoc(id, doc))
	}
	return appts
}

func (s *Service) slotLock(key string) *sync.Mutex {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	mu, ok := s.slots[key]
	if !ok {
		mu = &sync.Mutex{}
		s.slots[key] = mu
	}
	return mu
}

func fromDoc(id string, doc map[string]any) Appointment {
	appt := Appointment{
		ID:          id,
		Title:       asString(doc["title"]),
		Time:        asString(doc["time"]),
		Status:      asString(doc["status"]),
		CreatedAt:   asInt64(doc["created_at"]),
		Username:    asString(doc["username"]),
		BotID:       asString(doc["bot_id"]),
		SessionID:   asString(doc["session_id"]),
		ContactName: asString(doc["contact_name"]),
		AssignedTo:  asString(doc["assigned_to"]),
		CancelledBy: asString(doc["cancelled_by"]),
		CancelledAt: asInt64(doc["cancelled_at"]),
	}
	if v := asString(doc["id"]); v != "" {
		appt.ID = v
	}
	if appt.Status == "" {
		appt.Status = StatusPending
	}
	return appt
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
