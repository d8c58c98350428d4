package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/adityaverma/chatbot-backend/internal/store"
)

func TestSaveRejectsInvalidRating(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)
	for _, rating := range []int{0, -1, 6} {
		if err := svc.Save(context.Background(), "acme", "", Entry{Rating: rating}); err != ErrInvalidRating {
			t.Errorf("rating %d: err = %v, want ErrInvalidRating", rating, err)
		}
	}
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore(), nil)

	for _, rating := range []int{5, 5, 4, 1} {
		if err := svc.Save(ctx, "acme", "bot-1", Entry{Rating: rating, SessionID: "s1"}); err != nil {
			t.Fatalf("Save rating %d: %v", rating, err)
		}
	}

	summary, err := svc.Summarize(ctx, "acme", "bot-1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Total != 4 {
		t.Errorf("total = %d, want 4", summary.Total)
	}
	want := [5]int{1, 0, 0, 1, 2}
	if summary.Counts != want {
		t.Errorf("counts = %v, want %v", summary.Counts, want)
	}
	if summary.Average != 3.75 {
		t.Errorf("average = %v, want 3.75", summary.Average)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)
	summary, err := svc.Summarize(context.Background(), "acme", "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Total != 0 || summary.Average != 0 {
		t.Errorf("summary = %+v, want zeroes", summary)
	}
}

func TestFeedbackHandlers(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)
	handler := NewHandler(svc, nil)

	post := func(body map[string]any) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/feedback", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		handler.Save(rec, req)
		return rec
	}

	rec := post(map[string]any{"username": "acme", "rating": 7})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid rating status = %d, want 400", rec.Code)
	}

	rec = post(map[string]any{"username": "acme", "rating": 4, "session_id": "s1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/feedback_summary/acme", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("username", "acme")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec = httptest.NewRecorder()
	handler.Summary(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var body struct {
		Success bool    `json:"success"`
		Average float64 `json:"average"`
		Total   int     `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if !body.Success || body.Total != 1 || body.Average != 4 {
		t.Errorf("summary = %+v, want one rating of 4", body)
	}
}
