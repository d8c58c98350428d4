// Package feedback records end-user satisfaction ratings and aggregates
// them for the dashboard gauge.
package feedback

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

var (
	ErrInvalidRating = errors.New("feedback: rating must be between 1 and 5")
	ErrNotConfigured = errors.New("feedback: store not configured")
)

// Entry is a single satisfaction rating left by an end user.
type Entry struct {
	Rating    int    `json:"rating"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"created_at"`
}

// Summary aggregates a tenant's ratings. Counts holds how many ratings
// landed on each star, index 0 being one star.
type Summary struct {
	Average float64 `json:"average"`
	Total   int     `json:"total"`
	Counts  [5]int  `json:"counts"`
}

// Service stores and aggregates feedback entries.
type Service struct {
	store  store.Store
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates a feedback service.
func NewService(st store.Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: st, logger: logger, now: time.Now}
}

// Save records a rating under the tenant's feedback collection. Storage
// failures are logged but not surfaced: feedback is best-effort.
func (s *Service) Save(ctx context.Context, tenant, botID string, entry Entry) error {
	if entry.Rating < 1 || entry.Rating > 5 {
		return ErrInvalidRating
	}
	if s.store == nil {
		return nil
	}

	entry.CreatedAt = s.now().UnixMilli()
	path := store.Join(tenancy.BasePath(tenant, botID), "feedback", uuid.NewString())
	if err := s.store.Set(ctx, path, entry); err != nil {
		s.logger.Warn("feedback: failed to save entry", "tenant", tenant, "error", err)
	}
	return nil
}

// Summarize returns the tenant's rating distribution and average. Ratings
// outside 1..5 are skipped.
func (s *Service) Summarize(ctx context.Context, tenant, botID string) (*Summary, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}

	summary := &Summary{}
	raw, err := s.store.Get(ctx, store.Join(tenancy.BasePath(tenant, botID), "feedback"))
	if err != nil {
		return nil, err
	}
	docs, _ := raw.(map[string]any)
	for _, item := range docs {
		doc, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rating := 0
		switch v := doc["rating"].(type) {
		case float64:
			rating = int(v)
		case int64:
			rating = int(v)
		}
		if rating < 1 || rating > 5 {
			continue
		}
		summary.Counts[rating-1]++
		summary.Total++
	}

	if summary.Total > 0 {
		sum := 0
		for i, c := range summary.Counts {
			sum += (i + 1) * c
		}
		summary.Average = float64(sum) / float64(summary.Total)
	}
	return summary, nil
}
