package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/adityaverma/chatbot-backend/internal/persona"
	"github.com/adityaverma/chatbot-backend/internal/store"
)

type capturedLead struct {
	tenant, botID, sessionID, name, phone, email string
}

type fakeLeadSaver struct {
	saved []capturedLead
}

func (f *fakeLeadSaver) SaveCaptured(_ context.Context, tenant, botID, sessionID, name, phone, email string) error {
	f.saved = append(f.saved, capturedLead{tenant, botID, sessionID, name, phone, email})
	return nil
}

func newTestCapture(t *testing.T) (*Capture, *Sessions, *fakeLeadSaver) {
	t.Helper()
	mem := store.NewMemoryStore()
	sessions := NewSessions()
	saver := &fakeLeadSaver{}
	capture := NewCapture(sessions, persona.NewLoader(mem, 20, nil), saver, NewRecords(mem, nil), nil)
	return capture, sessions, saver
}

func startCapture(sessions *Sessions, key string) {
	sessions.With(key, func(s *Session) {
		s.Capture = &CaptureState{Step: 1}
	})
}

func TestCaptureFullFlow(t *testing.T) {
	ctx := context.Background()
	capture, sessions, saver := newTestCapture(t)
	key := SessionKey("acme", "s1")
	startCapture(sessions, key)

	reply := capture.Handle(ctx, "acme", "bot-1", "s1", "Jane Doe")
	if !strings.Contains(reply, "phone") {
		t.Fatalf("after name, reply = %q, want phone prompt", reply)
	}

	reply = capture.Handle(ctx, "acme", "bot-1", "s1", "9876543210")
	if !strings.Contains(reply, "email") {
		t.Fatalf("after phone, reply = %q, want email prompt", reply)
	}

	reply = capture.Handle(ctx, "acme", "bot-1", "s1", "jane@example.com")
	if !strings.Contains(reply, "Jane Doe") {
		t.Fatalf("completion = %q, want it to greet by name", reply)
	}
	if !strings.Contains(reply, "Phone: +919876543210") || !strings.Contains(reply, "Email: jane@example.com") {
		t.Errorf("completion = %q, want contact snippet", reply)
	}

	if len(saver.saved) != 1 {
		t.Fatalf("leads saved = %d, want 1", len(saver.saved))
	}
	lead := saver.saved[0]
	if lead.name != "Jane Doe" || lead.phone != "+919876543210" || lead.email != "jane@example.com" {
		t.Errorf("saved lead = %+v", lead)
	}

	snap := sessions.Snapshot(key)
	if snap.Capture != nil {
		t.Error("capture state must clear on completion")
	}
	if !snap.CaptureCompleted {
		t.Error("session must be marked capture-completed")
	}
}

func TestCaptureRejectsShortName(t *testing.T) {
	ctx := context.Background()
	capture, sessions, _ := newTestCapture(t)
	key := SessionKey("acme", "s1")
	startCapture(sessions, key)

	reply := capture.Handle(ctx, "acme", "", "s1", "J")
	if reply != "I didn't catch your full name. Please provide first and last name." {
		t.Errorf("reply = %q", reply)
	}
	if sessions.Snapshot(key).Capture.Step != 1 {
		t.Error("invalid name must not advance the step")
	}
}

func TestCaptureTruncatesLongNames(t *testing.T) {
	ctx := context.Background()
	capture, sessions, _ := newTestCapture(t)
	key := SessionKey("acme", "s1")
	startCapture(sessions, key)

	capture.Handle(ctx, "acme", "", "s1", "Jane Alexandra Doe Smith")
	state := sessions.Snapshot(key).Capture
	if state.Name != "Jane Alexandra" {
		t.Errorf("name = %q, want first two words only", state.Name)
	}
}

func TestCaptureRejectsInvalidPhone(t *testing.T) {
	ctx := context.Background()
	capture, sessions, _ := newTestCapture(t)
	key := SessionKey("acme", "s1")
	startCapture(sessions, key)
	capture.Handle(ctx, "acme", "", "s1", "Jane Doe")

	for _, input := range []string{"12345", "5876543210", "98765432101"} {
		reply := capture.Handle(ctx, "acme", "", "s1", input)
		if reply != "Please enter a valid phone number." {
			t.Errorf("input %q: reply = %q", input, reply)
		}
	}
	if sessions.Snapshot(key).Capture.Step != 2 {
		t.Error("invalid phone must not advance the step")
	}
}

func TestCaptureSkipPhoneRequiresEmail(t *testing.T) {
	ctx := context.Background()
	capture, sessions, saver := newTestCapture(t)
	key := SessionKey("acme", "s1")
	startCapture(sessions, key)
	capture.Handle(ctx, "acme", "", "s1", "Jane Doe")
	capture.Handle(ctx, "acme", "", "s1", "skip")

	// With no phone on file, skipping email is refused.
	reply := capture.Handle(ctx, "acme", "", "s1", "skip")
	if !strings.Contains(reply, "at least one contact method") {
		t.Fatalf("reply = %q, want contact-required message", reply)
	}
	if len(saver.saved) != 0 {
		t.Fatal("lead must not be saved without any contact")
	}

	reply = capture.Handle(ctx, "acme", "", "s1", "reach me at jane@example.com please")
	if len(saver.saved) != 1 {
		t.Fatalf("leads saved = %d, want 1 after email", len(saver.saved))
	}
	if saver.saved[0].email != "jane@example.com" {
		t.Errorf("email = %q", saver.saved[0].email)
	}
	if !strings.Contains(reply, "Jane Doe") {
		t.Errorf("completion = %q", reply)
	}
}

func TestCapturePhoneOnFileAllowsNonEmailFinish(t *testing.T) {
	ctx := context.Background()
	capture, sessions, saver := newTestCapture(t)
	key := SessionKey("acme", "s1")
	startCapture(sessions, key)
	capture.Handle(ctx, "acme", "", "s1", "Jane Doe")
	capture.Handle(ctx, "acme", "", "s1", "98765 43210")

	// Any reply without an email completes when a phone was captured.
	reply := capture.Handle(ctx, "acme", "", "s1", "no thanks")
	if len(saver.saved) != 1 {
		t.Fatalf("leads saved = %d, want 1", len(saver.saved))
	}
	if saver.saved[0].phone != "+919876543210" {
		t.Errorf("phone = %q, want normalized number", saver.saved[0].phone)
	}
	if saver.saved[0].email != "" {
		t.Errorf("email = %q, want empty", saver.saved[0].email)
	}
	if !strings.Contains(reply, "Phone: +919876543210") {
		t.Errorf("completion = %q", reply)
	}
}
