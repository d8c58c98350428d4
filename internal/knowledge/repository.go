package knowledge

import (
	"context"
	"fmt"
	"sync"

	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

const collection = "knowledge_base"

// Repository loads and caches per-tenant knowledge base documents.
// Updates invalidate the shared response cache via the hook so stale
// generated answers are not served against new knowledge.
type Repository struct {
	store      store.Store
	logger     *logging.Logger
	invalidate func()

	mu    sync.RWMutex
	cache map[string]any // tenant -> document
}

// NewRepository creates a knowledge repository. invalidate may be nil.
func NewRepository(st store.Store, invalidate func(), logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{
		store:      st,
		logger:     logger,
		invalidate: invalidate,
		cache:      make(map[string]any),
	}
}

// Load returns the tenant's knowledge base, preferring the in-process cache.
func (r *Repository) Load(ctx context.Context, tenant string) any {
	if tenant == "" {
		return nil
	}

	r.mu.RLock()
	doc, ok := r.cache[tenant]
	r.mu.RUnlock()
	if ok {
		return doc
	}
	return r.Reload(ctx, tenant)
}

// Reload bypasses the cache and reads the document from the store.
// A fresh load also clears cached generated responses.
func (r *Repository) Reload(ctx context.Context, tenant string) any {
	if r.store == nil || tenant == "" {
		return r.cached(tenant)
	}

	doc, err := r.store.Get(ctx, store.Join(tenant, collection))
	if err != nil {
		r.logger.Error("knowledge: failed to load knowledge base", "tenant", tenant, "error", err)
		return r.cached(tenant)
	}

	r.mu.Lock()
	r.cache[tenant] = doc
	r.mu.Unlock()

	if r.invalidate != nil {
		r.invalidate()
	}
	return doc
}

// Update replaces the tenant's knowledge base and invalidates caches.
func (r *Repository) Update(ctx context.Context, tenant string, doc any) error {
	if r.store == nil {
		return store.ErrNotConfigured
	}
	if tenant == "" {
		return fmt.Errorf("knowledge: tenant is required")
	}

	if err := r.store.Set(ctx, store.Join(tenant, collection), doc); err != nil {
		return fmt.Errorf("knowledge: failed to update knowledge base: %w", err)
	}

	r.mu.Lock()
	r.cache[tenant] = doc
	r.mu.Unlock()

	if r.invalidate != nil {
		r.invalidate()
	}
	return nil
}

// CommonQuestions returns the canned question->answer pairs embedded in the
// knowledge base, if any. Matching against them bypasses generation.
func (r *Repository) CommonQuestions(ctx context.Context, tenant string) map[string]string {
	doc, ok := r.Load(ctx, tenant).(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := doc["common_questions"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for q, a := range raw {
		if text, ok := a.(string); ok {
			out[q] = text
		}
	}
	return out
}

func (r *Repository) cached(tenant string) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[tenant]
}
