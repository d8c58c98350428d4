package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/adityaverma/chatbot-backend/internal/store"
)

func TestRecordsSaveAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	records := NewRecords(mem, nil)

	ts := time.Unix(1700000000, 0)
	records.now = func() time.Time { return ts }
	records.Save(ctx, "acme", "bot-1", "s1", "first question", "first answer")
	ts = ts.Add(time.Second)
	records.Save(ctx, "acme", "bot-1", "s1", "second question", "second answer")

	recs := records.List(ctx, "acme", "bot-1")
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].UserMessage != "second question" {
		t.Errorf("first listed = %q, want newest", recs[0].UserMessage)
	}
	if recs[0].Username != "acme" || recs[0].SessionID != "s1" || recs[0].BotID != "bot-1" {
		t.Errorf("record scope = %+v", recs[0])
	}
}

func TestRecordsAnonymousTenant(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	records := NewRecords(mem, nil)

	records.Save(ctx, "", "", "s1", "hello", "hi")
	recs := records.List(ctx, "", "")
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].Username != "anonymous" {
		t.Errorf("username = %q, want anonymous", recs[0].Username)
	}
}

func TestRecordsTagContact(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	records := NewRecords(mem, nil)

	records.Save(ctx, "acme", "", "s1", "q1", "a1")
	records.Save(ctx, "acme", "", "s2", "q2", "a2")
	records.TagContact(ctx, "acme", "", "s1", "Jane Doe")

	for _, rec := range records.List(ctx, "acme", "") {
		want := ""
		if rec.SessionID == "s1" {
			want = "Jane Doe"
		}
		if rec.ContactName != want {
			t.Errorf("session %s contact = %q, want %q", rec.SessionID, rec.ContactName, want)
		}
	}
}

func TestRecordsLegacyFallback(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	records := NewRecords(mem, nil)

	// Turns written before bots existed live at the unscoped path.
	records.Save(ctx, "acme", "", "s1", "old question", "old answer")

	recs := records.List(ctx, "acme", "bot-1")
	if len(recs) != 1 || recs[0].UserMessage != "old question" {
		t.Fatalf("legacy fallback records = %+v", recs)
	}

	// Once scoped records exist they win.
	records.Save(ctx, "acme", "bot-1", "s1", "new question", "new answer")
	recs = records.List(ctx, "acme", "bot-1")
	if len(recs) != 1 || recs[0].UserMessage != "new question" {
		t.Fatalf("scoped records = %+v", recs)
	}
}
