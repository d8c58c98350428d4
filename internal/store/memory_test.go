package store

import (
	"context"
	"testing"
)

func TestMemoryStore_SetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "acme/bots/b1/leads/l1", map[string]any{"name": "John", "status": "new"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, "acme/bots/b1/leads/l1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lead, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}
	if lead["name"] != "John" {
		t.Errorf("expected name John, got %v", lead["name"])
	}
}

func TestMemoryStore_GetInteriorNode(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "acme/leads/l1", map[string]any{"name": "A"})
	_ = s.Set(ctx, "acme/leads/l2", map[string]any{"name": "B"})

	got, err := s.Get(ctx, "acme/leads")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node, ok := got.(map[string]any)
	if !ok || len(node) != 2 {
		t.Fatalf("expected 2 children, got %v", got)
	}
}

func TestMemoryStore_GetMissingReturnsNil(t *testing.T) {
	s := NewMemoryStore()

	got, err := s.Get(context.Background(), "nobody/here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing path, got %v", got)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "acme/appointments/a1", map[string]any{"status": "pending", "title": "Demo"})
	if err := s.Update(ctx, "acme/appointments/a1", map[string]any{"status": "cancelled"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.Get(ctx, "acme/appointments/a1")
	appt := got.(map[string]any)
	if appt["status"] != "cancelled" {
		t.Errorf("expected cancelled, got %v", appt["status"])
	}
	if appt["title"] != "Demo" {
		t.Errorf("update should preserve other fields, got %v", appt["title"])
	}
}

func TestMemoryStore_UpdateCreatesMissing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Update(ctx, "acme/meta", map[string]any{"rr_leads_index": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s.Get(ctx, "acme/meta")
	if got.(map[string]any)["rr_leads_index"] != float64(1) {
		t.Errorf("expected counter 1, got %v", got)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "acme/bots/b1/appointments/a1", map[string]any{"status": "pending"})
	if err := s.Delete(ctx, "acme/bots/b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.Get(ctx, "acme/bots/b1/appointments/a1")
	if got != nil {
		t.Errorf("expected subtree deleted, got %v", got)
	}
	if err := s.Delete(ctx, "acme/bots/b1"); err != nil {
		t.Errorf("deleting missing path should be a no-op, got %v", err)
	}
}

func TestMemoryStore_OrderByChildEqualTo(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "acme/leads/l1", map[string]any{"session_id": "s1", "name": "A"})
	_ = s.Set(ctx, "acme/leads/l2", map[string]any{"session_id": "s2", "name": "B"})
	_ = s.Set(ctx, "acme/leads/l3", map[string]any{"session_id": "s1", "name": "C"})

	matches, err := s.OrderByChildEqualTo(ctx, "acme/leads", "session_id", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if _, ok := matches["l2"]; ok {
		t.Error("l2 should not match session s1")
	}
}

func TestMemoryStore_InvalidPath(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.Get(context.Background(), ""); err != ErrInvalidPath {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
	if err := s.Set(context.Background(), "a//b", 1); err != ErrInvalidPath {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}

func TestMemoryStore_CopiesOnRead(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "acme/config", map[string]any{"tone": "Friendly"})
	got, _ := s.Get(ctx, "acme/config")
	got.(map[string]any)["tone"] = "Humorous"

	again, _ := s.Get(ctx, "acme/config")
	if again.(map[string]any)["tone"] != "Friendly" {
		t.Error("mutating a read result should not affect the store")
	}
}

func TestJoin(t *testing.T) {
	if got := Join("acme", "", "bots/b1", "leads"); got != "acme/bots/b1/leads" {
		t.Errorf("unexpected join result: %s", got)
	}
}
