// Package bots manages a tenant's chatbot records and the cascade cleanup
// that removes a bot's data when it is deleted.
package bots

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

var (
	ErrNotFound      = errors.New("bots: bot not found")
	ErrNotConfigured = errors.New("bots: store not configured")
)

// Bot is a tenant's chatbot record.
type Bot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Service provides bot CRUD backed by the document store.
type Service struct {
	store  store.Store
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates a bots service.
func NewService(st store.Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: st, logger: logger, now: time.Now}
}

// Create makes a new bot for the tenant. Each tenant keeps a single bot: if
// one already exists it is returned unchanged and created reports false.
func (s *Service) Create(ctx context.Context, tenant, name string) (bot *Bot, created bool, err error) {
	if s.store == nil {
		return nil, false, ErrNotConfigured
	}
	if name == "" {
		name = "My Chatbot"
	}

	existing, err := s.List(ctx, tenant)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return &existing[0], false, nil
	}

	bot = &Bot{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.now().UnixMilli(),
	}
	path := store.Join(tenant, "bots", bot.ID)
	if err := s.store.Set(ctx, path, bot); err != nil {
		return nil, false, err
	}
	s.logger.Info("bots: created bot", "tenant", tenant, "bot_id", bot.ID)
	return bot, true, nil
}

// List returns the tenant's bots, newest first.
func (s *Service) List(ctx context.Context, tenant string) ([]Bot, error) {
	if s.store == nil {
		return nil, ErrNotConfigured
	}

	raw, err := s.store.Get(ctx, store.Join(tenant, "bots"))
	if err != nil {
		return nil, err
	}
	docs, ok := raw.(map[string]any)
	if !ok {
		return nil, nil
	}

	bots := make([]Bot, 0, len(docs))
	for id, entry := range docs {
		doc, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		bot := Bot{ID: id}
		if name, ok := doc["name"].(string); ok {
			bot.Name = name
		}
		switch v := doc["created_at"].(type) {
		case float64:
			bot.CreatedAt = int64(v)
		case int64:
			bot.CreatedAt = v
		}
		bots = append(bots, bot)
	}
	sort.Slice(bots, func(i, j int) bool { return bots[i].CreatedAt > bots[j].CreatedAt })
	return bots, nil
}

// Rename updates a bot's display name.
func (s *Service) Rename(ctx context.Context, tenant, botID, name string) error {
	if s.store == nil {
		return ErrNotConfigured
	}

	path := store.Join(tenant, "bots", botID)
	raw, err := s.store.Get(ctx, path)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	return s.store.Update(ctx, path, map[string]any{"name": name})
}

// Delete removes the bot and all data it accumulated: the scoped leads,
// appointments and conversations subtrees, the legacy unscoped collections,
// and the tenant's company config and knowledge base. Cleanup failures are
// logged and skipped so a partial tree never blocks the delete.
func (s *Service) Delete(ctx context.Context, tenant, botID string) error {
	if s.store == nil {
		return ErrNotConfigured
	}

	botPath := store.Join(tenant, "bots", botID)
	raw, err := s.store.Get(ctx, botPath)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}

	base := tenancy.BasePath(tenant, botID)
	legacy := tenancy.LegacyPath(tenant)
	for _, path := range []string{
		store.Join(base, "leads"),
		store.Join(base, "appointments"),
		store.Join(base, "conversations"),
		store.Join(base, "slot_locks"),
		store.Join(legacy, "leads"),
		store.Join(legacy, "appointments"),
		store.Join(legacy, "conversations"),
	} {
		if err := s.store.Delete(ctx, path); err != nil {
			s.logger.Warn("bots: cascade delete failed", "path", path, "error", err)
		}
	}

	if err := s.store.Delete(ctx, botPath); err != nil {
		return err
	}

	for _, path := range []string{
		store.Join(tenant, "company_config"),
		store.Join(tenant, "knowledge_base"),
	} {
		if err := s.store.Delete(ctx, path); err != nil {
			s.logger.Warn("bots: config delete failed", "path", path, "error", err)
		}
	}

	s.logger.Info("bots: deleted bot and associated data", "tenant", tenant, "bot_id", botID)
	return nil
}
