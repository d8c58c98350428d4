// Package assign distributes leads and appointments across a tenant's
// sub-admin accounts with a persisted round-robin rotation.
package assign

import (
	"context"
	"sort"

	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Assignment kinds. Each kind has its own access flag and counter.
const (
	KindLeads        = "leads"
	KindAppointments = "appointments"
)

func counterKey(kind string) string {
	if kind == KindAppointments {
		return "rr_appts_index"
	}
	return "rr_leads_index"
}

// Assigner performs deterministic round-robin selection over a tenant's
// eligible sub-admins. Counter updates are read-modify-write, best-effort:
// a failed write skews the rotation but never blocks an assignment.
type Assigner struct {
	store  store.Store
	logger *logging.Logger
}

// New creates an assigner.
func New(st store.Store, logger *logging.Logger) *Assigner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Assigner{store: st, logger: logger}
}

// Eligible returns the tenant's sub-admins with access to kind, sorted
// lexicographically so the rotation order is deterministic.
func (a *Assigner) Eligible(ctx context.Context, tenant, kind string) []string {
	if a.store == nil || tenant == "" {
		return nil
	}

	raw, err := a.store.Get(ctx, "users")
	if err != nil {
		a.logger.Warn("assign: failed to fetch users", "error", err)
		return nil
	}
	users, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	var eligible []string
	for uid, v := range users {
		u, ok := v.(map[string]any)
		if !ok {
			continue
		}
		role, _ := u["role"].(string)
		parent, _ := u["parent"].(string)
		if role != "subadmin" || parent != tenant {
			continue
		}
		access, _ := u["access"].(map[string]any)
		if allowed, _ := access[kind].(bool); !allowed {
			continue
		}
		name, _ := u["username"].(string)
		if name == "" {
			name = uid
		}
		eligible = append(eligible, name)
	}
	sort.Strings(eligible)
	return eligible
}

// Assign picks the next sub-admin for (tenant, kind) and advances the
// persisted counter. Returns "" when no sub-admin is eligible.
func (a *Assigner) Assign(ctx context.Context, tenant, kind string) string {
	eligible := a.Eligible(ctx, tenant, kind)
	return a.selectNext(ctx, tenant, kind, eligible)
}

func (a *Assigner) selectNext(ctx context.Context, tenant, kind string, eligible []string) string {
	if len(eligible) == 0 {
		return ""
	}

	path := store.Join("users", tenant, "meta", counterKey(kind))
	idx := 0
	if raw, err := a.store.Get(ctx, path); err == nil {
		idx = toInt(raw)
	}

	selected := eligible[idx%len(eligible)]
	if err := a.store.Set(ctx, path, (idx+1)%len(eligible)); err != nil {
		a.logger.Warn("assign: failed to persist rotation counter", "tenant", tenant, "kind", kind, "error", err)
	}
	return selected
}

// Backfill assigns every item of kind lacking an assignee, walking the
// bot-scoped path first and then the legacy unscoped one. Returns the number
// of items assigned.
func (a *Assigner) Backfill(ctx context.Context, tenant, botID, kind string) int {
	if a.store == nil || tenant == "" {
		return 0
	}

	assigned := 0
	if botID != "" {
		assigned += a.backfillAt(ctx, tenant, tenancy.BasePath(tenant, botID), kind)
	}
	assigned += a.backfillAt(ctx, tenant, tenancy.LegacyPath(tenant), kind)
	return assigned
}

func (a *Assigner) backfillAt(ctx context.Context, tenant, base, kind string) int {
	raw, err := a.store.Get(ctx, store.Join(base, kind))
	if err != nil {
		return 0
	}
	items, ok := raw.(map[string]any)
	if !ok {
		return 0
	}

	ids := sortedKeys(items)
	assigned := 0
	for _, id := range ids {
		obj, ok := items[id].(map[string]any)
		if !ok {
			continue
		}
		if current, _ := obj["assigned_to"].(string); current != "" {
			continue
		}
		assignee := a.Assign(ctx, tenant, kind)
		if err := a.store.Update(ctx, store.Join(base, kind, id), map[string]any{"assigned_to": assignee}); err != nil {
			a.logger.Warn("assign: backfill update failed", "path", store.Join(base, kind, id), "error", err)
			continue
		}
		assigned++
	}
	return assigned
}

// Reassign moves every lead and appointment assigned to removed onto the
// remaining eligible sub-admins, rotating from index zero per collection.
// Returns the number of items reassigned.
func (a *Assigner) Reassign(ctx context.Context, tenant, botID, removed string) int {
	if a.store == nil || tenant == "" || removed == "" {
		return 0
	}

	remaining := func(kind string) []string {
		var out []string
		for _, u := range a.Eligible(ctx, tenant, kind) {
			if u != removed {
				out = append(out, u)
			}
		}
		return out
	}
	leadsEligible := remaining(KindLeads)
	apptsEligible := remaining(KindAppointments)

	total := 0
	bases := []string{tenancy.LegacyPath(tenant)}
	if botID != "" {
		bases = append([]string{tenancy.BasePath(tenant, botID)}, bases...)
	}
	for _, base := range bases {
		total += a.reassignAt(ctx, base, KindLeads, removed, leadsEligible)
		total += a.reassignAt(ctx, base, KindAppointments, removed, apptsEligible)
	}
	return total
}

func (a *Assigner) reassignAt(ctx context.Context, base, kind, removed string, eligible []string) int {
	if len(eligible) == 0 {
		return 0
	}

	raw, err := a.store.Get(ctx, store.Join(base, kind))
	if err != nil {
		return 0
	}
	items, ok := raw.(map[string]any)
	if !ok {
		return 0
	}

	idx := 0
	moved := 0
	for _, id := range sortedKeys(items) {
		obj, ok := items[id].(map[string]any)
		if !ok {
			continue
		}
		if current, _ := obj["assigned_to"].(string); current != removed {
			continue
		}
		assignee := eligible[idx%len(eligible)]
		if err := a.store.Update(ctx, store.Join(base, kind, id), map[string]any{"assigned_to": assignee}); err != nil {
			a.logger.Warn("assign: reassign update failed", "path", store.Join(base, kind, id), "error", err)
			continue
		}
		idx++
		moved++
	}
	return moved
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
