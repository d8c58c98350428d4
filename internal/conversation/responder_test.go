package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adityaverma/chatbot-backend/internal/knowledge"
	"github.com/adityaverma/chatbot-backend/internal/persona"
	"github.com/adityaverma/chatbot-backend/internal/store"
)

// countingGenerator records every prompt and replies from a queue.
type countingGenerator struct {
	replies []string
	prompts []string
	err     error
}

func (g *countingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	reply := "ok"
	if len(g.replies) > 0 {
		reply = g.replies[0]
		g.replies = g.replies[1:]
	}
	return reply, nil
}

func newResponderWith(t *testing.T, gen Generator, seed map[string]any) *Responder {
	t.Helper()
	mem := store.NewMemoryStore()
	if seed != nil {
		if err := mem.Set(context.Background(), "acme/knowledge_base", seed); err != nil {
			t.Fatalf("seed knowledge: %v", err)
		}
	}
	kb := knowledge.NewRepository(mem, nil, nil)
	personas := persona.NewLoader(mem, 20, nil)
	return NewResponder(gen, kb, personas, NewResponseCache(time.Hour), nil, nil)
}

func words(s string) int { return len(strings.Fields(s)) }

func TestAnswerCommonQuestionBypassesGeneration(t *testing.T) {
	gen := &countingGenerator{}
	r := newResponderWith(t, gen, map[string]any{
		"common_questions": map[string]any{
			"business hours": "We are open 9 to 5, Monday through Friday.",
		},
	})

	got := r.Answer(context.Background(), "acme", "What are your Business Hours today?")
	if got != "We are open 9 to 5, Monday through Friday." {
		t.Errorf("reply = %q", got)
	}
	if len(gen.prompts) != 0 {
		t.Errorf("generator called %d times, want 0", len(gen.prompts))
	}
}

func TestAnswerCachesByRawInput(t *testing.T) {
	gen := &countingGenerator{replies: []string{
		"We offer a full range of consulting services for growing businesses and established firms across every market segment today.",
		"A different answer entirely for the second call given here instead now with several extra words appended for length.",
	}}
	r := newResponderWith(t, gen, nil)

	first := r.Answer(context.Background(), "acme", "tell me about pricing")
	second := r.Answer(context.Background(), "acme", "tell me about pricing")
	if first != second {
		t.Errorf("cache miss on identical input: %q vs %q", first, second)
	}

	// Different casing is a different key.
	third := r.Answer(context.Background(), "acme", "Tell Me About Pricing")
	if third == first {
		t.Error("case-variant input must not hit the cache")
	}
}

func TestAnswerNilGeneratorApologizes(t *testing.T) {
	r := newResponderWith(t, nil, nil)
	if got := r.Answer(context.Background(), "acme", "hello"); got != ApologyReply {
		t.Errorf("reply = %q, want apology", got)
	}
}

func TestAnswerGenerationErrorApologizes(t *testing.T) {
	gen := &countingGenerator{err: errors.New("backend down")}
	r := newResponderWith(t, gen, nil)
	if got := r.Answer(context.Background(), "acme", "hello"); got != ApologyReply {
		t.Errorf("reply = %q, want apology", got)
	}
}

func TestBudgetTruncatesLongReply(t *testing.T) {
	long := strings.Repeat("word ", 35) // 35 words, no terminal punctuation
	gen := &countingGenerator{replies: []string{long}}
	r := newResponderWith(t, gen, nil)

	got := r.Answer(context.Background(), "acme", "long question")
	if n := words(got); n != 20 {
		t.Errorf("word count = %d, want 20", n)
	}
	if !strings.HasSuffix(got, ".") {
		t.Errorf("truncated reply must end with punctuation: %q", got)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("generator called %d times, want 1", len(gen.prompts))
	}
}

func TestBudgetRefinesShortReplyOnce(t *testing.T) {
	gen := &countingGenerator{replies: []string{
		"Too short by far here now.", // 6 words, under 20-2
		"This refined answer is expanded to read naturally and it lands close enough to the requested twenty word target.",
	}}
	r := newResponderWith(t, gen, nil)

	got := r.Answer(context.Background(), "acme", "short question")
	if len(gen.prompts) != 2 {
		t.Fatalf("generator called %d times, want answer + one refine", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[1], "Too short by far here now.") {
		t.Errorf("refine prompt should carry the draft, got %q", gen.prompts[1])
	}
	if words(got) > 20 {
		t.Errorf("refined reply exceeds budget: %d words", words(got))
	}
}

func TestBudgetStripsAsterisks(t *testing.T) {
	gen := &countingGenerator{replies: []string{
		"**Our services** include *consulting* and support for teams of every size and industry vertical worldwide with flexible plans available.",
	}}
	r := newResponderWith(t, gen, nil)

	got := r.Answer(context.Background(), "acme", "formatting question")
	if strings.Contains(got, "*") {
		t.Errorf("asterisks survived: %q", got)
	}
}

func TestBudgetCapsLines(t *testing.T) {
	tall := strings.TrimSpace(strings.Repeat("word word\n", 10)) // 20 words, 10 lines
	gen := &countingGenerator{replies: []string{tall}}
	r := newResponderWith(t, gen, nil)

	got := r.Answer(context.Background(), "acme", "list question")
	if n := len(strings.Split(got, "\n")); n > 6 {
		t.Errorf("line count = %d, want at most 6", n)
	}
}

func TestInvalidateCacheClearsReplies(t *testing.T) {
	gen := &countingGenerator{replies: []string{
		"First answer for the visitor with plenty of words included here to satisfy the response budget checks in place.",
		"Second answer for the visitor with plenty of words included here to satisfy the response budget checks in place.",
	}}
	r := newResponderWith(t, gen, nil)

	first := r.Answer(context.Background(), "acme", "about you")
	r.InvalidateCache()
	second := r.Answer(context.Background(), "acme", "about you")
	if first == second {
		t.Error("expected regeneration after invalidation")
	}
}
