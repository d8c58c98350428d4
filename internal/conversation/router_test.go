package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/adityaverma/chatbot-backend/internal/appointments"
	"github.com/adityaverma/chatbot-backend/internal/knowledge"
	"github.com/adityaverma/chatbot-backend/internal/persona"
	"github.com/adityaverma/chatbot-backend/internal/store"
)

type fakeScheduler struct {
	cancelled []string
	cancelErr error
	bookedID  string
	bookErr   error
	titles    []string
}

func (f *fakeScheduler) Cancel(_ context.Context, _, _, appointmentID string) error {
	f.cancelled = append(f.cancelled, appointmentID)
	return f.cancelErr
}

func (f *fakeScheduler) BookFreeform(_ context.Context, _, _, title string) (string, error) {
	f.titles = append(f.titles, title)
	if f.bookErr != nil {
		return "", f.bookErr
	}
	return f.bookedID, nil
}

func newConvRouter(t *testing.T, gen Generator, scheduler Scheduler) (*Router, *Sessions, *fakeLeadSaver) {
	t.Helper()
	mem := store.NewMemoryStore()
	sessions := NewSessions()
	personas := persona.NewLoader(mem, 20, nil)
	kb := knowledge.NewRepository(mem, nil, nil)
	responder := NewResponder(gen, kb, personas, NewResponseCache(time.Hour), nil, nil)
	records := NewRecords(mem, nil)
	saver := &fakeLeadSaver{}
	capture := NewCapture(sessions, personas, saver, records, nil)
	return NewRouter(sessions, responder, capture, scheduler, records, personas, nil, 2, nil), sessions, saver
}

func echoGenerator() Generator {
	return GeneratorFunc(func(_ context.Context, _ string) (string, error) {
		return "Here is a grounded answer with enough words to clear the refinement threshold for these tests.", nil
	})
}

func TestRouteCancelByID(t *testing.T) {
	sched := &fakeScheduler{}
	router, _, _ := newConvRouter(t, echoGenerator(), sched)

	reply := router.Route(context.Background(), "acme", "", "s1", "APT-1700000000-abc12345")
	if reply != "Appointment APT-1700000000-abc12345 has been cancelled successfully." {
		t.Errorf("reply = %q", reply)
	}
	if len(sched.cancelled) != 1 || sched.cancelled[0] != "APT-1700000000-abc12345" {
		t.Errorf("cancelled = %v", sched.cancelled)
	}
}

func TestRouteCancelByIDNotFound(t *testing.T) {
	sched := &fakeScheduler{cancelErr: appointments.ErrNotFound}
	router, _, _ := newConvRouter(t, echoGenerator(), sched)

	reply := router.Route(context.Background(), "acme", "", "s1", "Appointment ID: APT-1-deadbeef")
	if !strings.Contains(reply, "not found") {
		t.Errorf("reply = %q, want not-found message", reply)
	}
}

func TestRouteScheduleIntentSetsAwaitingTitle(t *testing.T) {
	router, sessions, _ := newConvRouter(t, echoGenerator(), &fakeScheduler{})

	reply := router.Route(context.Background(), "acme", "", "s1", "I want to schedule a consultation")
	if !strings.Contains(reply, "title of your appointment") {
		t.Fatalf("reply = %q", reply)
	}
	if !sessions.Snapshot(SessionKey("acme", "s1")).AwaitingTitle {
		t.Error("session must await the title")
	}

	// The next message is consumed as the title.
	reply = router.Route(context.Background(), "acme", "", "s1", "Quarterly review")
	if !strings.Contains(reply, "Your appointment title is: Quarterly review") {
		t.Fatalf("reply = %q", reply)
	}
	if sessions.Snapshot(SessionKey("acme", "s1")).AwaitingTitle {
		t.Error("awaiting-title flag must clear after the title")
	}
}

func TestRouteCancelIntent(t *testing.T) {
	router, _, _ := newConvRouter(t, echoGenerator(), &fakeScheduler{})

	reply := router.Route(context.Background(), "acme", "", "s1", "please cancel my booking")
	if !strings.Contains(reply, "provide your appointment ID") {
		t.Errorf("reply = %q", reply)
	}
}

func TestRouteScheduleIntentBeatsCancelKeyword(t *testing.T) {
	router, _, _ := newConvRouter(t, echoGenerator(), &fakeScheduler{})

	// Both keyword families appear; the schedule rule sits higher.
	reply := router.Route(context.Background(), "acme", "", "s1", "cancel or reschedule my appointment")
	if !strings.Contains(reply, "title of your appointment") {
		t.Errorf("reply = %q, want schedule path", reply)
	}
}

func TestRouteFreeformScheduling(t *testing.T) {
	sched := &fakeScheduler{bookedID: "APT-1700000000-aa11bb22"}
	router, _, _ := newConvRouter(t, echoGenerator(), sched)

	msg := "Title: Strategy call\nDate and Time: 2026-09-01 14:00"
	reply := router.Route(context.Background(), "acme", "bot-1", "s1", msg)
	if !strings.Contains(reply, "Appointment ID: APT-1700000000-aa11bb22") {
		t.Fatalf("reply = %q", reply)
	}
	if len(sched.titles) != 1 || sched.titles[0] != "Strategy call" {
		t.Errorf("titles = %v", sched.titles)
	}
}

func TestRouteFreeformMissingPartsReprompts(t *testing.T) {
	sched := &fakeScheduler{}
	router, _, _ := newConvRouter(t, echoGenerator(), sched)

	reply := router.Route(context.Background(), "acme", "", "s1", "Title: Strategy call and nothing about when")
	if !strings.Contains(reply, "Please provide both Title and Date/Time") {
		t.Errorf("reply = %q", reply)
	}
	if len(sched.titles) != 0 {
		t.Error("incomplete freeform must not book")
	}
}

func TestRouteListAppointments(t *testing.T) {
	router, _, _ := newConvRouter(t, echoGenerator(), &fakeScheduler{})

	reply := router.Route(context.Background(), "acme", "", "s1", "show appointments please")
	if !strings.Contains(reply, "show you your appointments") {
		t.Errorf("reply = %q", reply)
	}
}

func TestRouteCaptureTriggersAtThreshold(t *testing.T) {
	router, sessions, _ := newConvRouter(t, echoGenerator(), &fakeScheduler{})
	ctx := context.Background()

	first := router.Route(ctx, "acme", "", "s1", "tell me about your services")
	if strings.Contains(first, "share your name") {
		t.Errorf("first message must not start capture: %q", first)
	}

	second := router.Route(ctx, "acme", "", "s1", "and what about pricing")
	if !strings.Contains(second, "please share your name") {
		t.Errorf("second message must append the name prompt: %q", second)
	}

	snap := sessions.Snapshot(SessionKey("acme", "s1"))
	if snap.Capture == nil || snap.Capture.Step != 1 {
		t.Errorf("capture state = %+v, want step 1", snap.Capture)
	}
}

func TestRouteCaptureNotRetriggeredAfterCompletion(t *testing.T) {
	router, sessions, _ := newConvRouter(t, echoGenerator(), &fakeScheduler{})
	ctx := context.Background()
	key := SessionKey("acme", "s1")

	sessions.With(key, func(s *Session) {
		s.Count = 10
		s.CaptureCompleted = true
	})

	reply := router.Route(ctx, "acme", "", "s1", "one more question about your product")
	if strings.Contains(reply, "share your name") {
		t.Errorf("completed session must not re-enter capture: %q", reply)
	}
}

func TestRouteDefaultsSessionID(t *testing.T) {
	router, sessions, _ := newConvRouter(t, echoGenerator(), &fakeScheduler{})

	router.Route(context.Background(), "acme", "", "", "hello there friend")
	if got := sessions.Snapshot(SessionKey("acme", "default")).Count; got != 1 {
		t.Errorf("default session count = %d, want 1", got)
	}
}
