package conversation

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Record is one persisted conversation turn.
type Record struct {
	ID          string `json:"id"`
	UserMessage string `json:"user_message"`
	BotResponse string `json:"bot_response"`
	Timestamp   int64  `json:"timestamp"`
	SessionID   string `json:"session_id"`
	Username    string `json:"username"`
	BotID       string `json:"bot_id"`
	ContactName string `json:"contact_name"`
	DisplayKey  string `json:"display_key"`
}

// Records persists conversation turns. All writes are best-effort: failures
// are logged and swallowed so the reply is never blocked on storage.
type Records struct {
	store  store.Store
	logger *logging.Logger
	now    func() time.Time
}

// NewRecords creates the conversation record writer.
func NewRecords(st store.Store, logger *logging.Logger) *Records {
	if logger == nil {
		logger = logging.Default()
	}
	return &Records{store: st, logger: logger, now: time.Now}
}

// Save persists one turn, resolving the contact name from any lead already
// captured for the session.
func (r *Records) Save(ctx context.Context, tenant, botID, sessionID, userMessage, botResponse string) {
	if r.store == nil {
		return
	}

	base := tenancy.BasePath(tenant, botID)
	contactName := r.contactName(ctx, base, sessionID)

	username := tenant
	if username == "" {
		username = "anonymous"
	}
	rec := Record{
		ID:          uuid.NewString(),
		UserMessage: userMessage,
		BotResponse: botResponse,
		Timestamp:   r.now().UnixMilli(),
		SessionID:   sessionID,
		Username:    username,
		BotID:       botID,
		ContactName: contactName,
		DisplayKey:  contactName,
	}

	if err := r.store.Set(ctx, store.Join(base, "conversations", rec.ID), rec); err != nil {
		r.logger.Warn("conversation: failed to save record", "tenant", tenant, "error", err)
	}
}

// TagContact retroactively stamps the captured contact name onto every prior
// record in the session.
func (r *Records) TagContact(ctx context.Context, tenant, botID, sessionID, name string) {
	if r.store == nil || name == "" {
		return
	}

	base := tenancy.BasePath(tenant, botID)
	matches, err := r.store.OrderByChildEqualTo(ctx, store.Join(base, "conversations"), "session_id", sessionID)
	if err != nil {
		r.logger.Warn("conversation: failed to backfill contact name", "tenant", tenant, "error", err)
		return
	}
	for id := range matches {
		path := store.Join(base, "conversations", id)
		if err := r.store.Update(ctx, path, map[string]any{"contact_name": name, "display_key": name}); err != nil {
			r.logger.Warn("conversation: failed to tag record", "path", path, "error", err)
		}
	}
}

// List returns the tenant's conversation records newest-first, consulting
// the legacy unscoped path when the bot-scoped one is empty.
func (r *Records) List(ctx context.Context, tenant, botID string) []Record {
	if r.store == nil {
		return nil
	}

	records := r.listAt(ctx, tenancy.BasePath(tenant, botID))
	if len(records) == 0 && botID != "" {
		records = r.listAt(ctx, tenancy.LegacyPath(tenant))
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp > records[j].Timestamp })
	return records
}

func (r *Records) listAt(ctx context.Context, base string) []Record {
	raw, err := r.store.Get(ctx, store.Join(base, "conversations"))
	if err != nil {
		r.logger.Warn("conversation: failed to list records", "base", base, "error", err)
		return nil
	}
	docs, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	records := make([]Record, 0, len(docs))
	for id, v := range docs {
		doc, ok := v.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, Record{
			ID:          docString(doc, "id", id),
			UserMessage: docString(doc, "user_message", ""),
			BotResponse: docString(doc, "bot_response", ""),
			Timestamp:   docInt64(doc, "timestamp"),
			SessionID:   docString(doc, "session_id", ""),
			Username:    docString(doc, "username", ""),
			BotID:       docString(doc, "bot_id", ""),
			ContactName: docString(doc, "contact_name", ""),
			DisplayKey:  docString(doc, "display_key", ""),
		})
	}
	return records
}

func (r *Records) contactName(ctx context.Context, base, sessionID string) string {
	matches, err := r.store.OrderByChildEqualTo(ctx, store.Join(base, "leads"), "session_id", sessionID)
	if err != nil {
		return ""
	}
	ids := make([]string, 0, len(matches))
	for id := range matches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if name := docString(matches[id], "name", ""); name != "" {
			return name
		}
	}
	return ""
}

func docString(doc map[string]any, key, fallback string) string {
	if s, ok := doc[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func docInt64(doc map[string]any, key string) int64 {
	switch v := doc[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
