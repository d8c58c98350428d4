// Package tenancy holds the tenant identity helpers: the authenticated
// username carried in request context and the per-tenant/per-bot base path
// under which all collections live in the document store.
package tenancy

import (
	"context"
	"strings"
)

type ctxKey string

const userKey ctxKey = "chatbot.username"

// WithUser stores the authenticated tenant username in context.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey, username)
}

// UserFromContext extracts the authenticated tenant username if present.
func UserFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return "", false
	}
	username, ok := val.(string)
	return username, ok && username != ""
}

// BasePath returns the storage prefix for a tenant's bot-scoped data:
// "{tenant}/bots/{botID}" when a bot is given, else the legacy "{tenant}".
// An empty tenant maps to "anonymous" so stray writes stay inspectable.
func BasePath(tenant, botID string) string {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		tenant = "anonymous"
	}
	botID = strings.TrimSpace(botID)
	if botID == "" {
		return tenant
	}
	return tenant + "/bots/" + botID
}

// LegacyPath returns the unscoped fallback prefix consulted when the
// bot-scoped path holds no data. Reads only; new writes go to BasePath.
func LegacyPath(tenant string) string {
	return BasePath(tenant, "")
}
