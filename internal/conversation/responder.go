package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/adityaverma/chatbot-backend/internal/knowledge"
	"github.com/adityaverma/chatbot-backend/internal/observability/metrics"
	"github.com/adityaverma/chatbot-backend/internal/persona"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

const maxReplyLines = 6

// Responder computes knowledge-grounded answers: canned common questions
// first, then the response cache, then one generation call with the tenant's
// persona prompt and a post-generation word budget pass.
type Responder struct {
	gen       Generator
	knowledge *knowledge.Repository
	personas  *persona.Loader
	cache     *ResponseCache
	metrics   *metrics.ChatMetrics
	logger    *logging.Logger
}

// NewResponder wires the grounded-answer path. gen may be nil when no
// generation backend is configured; every generated path then returns the
// apology reply.
func NewResponder(gen Generator, kb *knowledge.Repository, personas *persona.Loader, cache *ResponseCache, m *metrics.ChatMetrics, logger *logging.Logger) *Responder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Responder{
		gen:       gen,
		knowledge: kb,
		personas:  personas,
		cache:     cache,
		metrics:   m,
		logger:    logger,
	}
}

// Answer returns the reply for one user input. It never returns an error:
// generation failures map to the fixed apology reply.
func (r *Responder) Answer(ctx context.Context, tenant, input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	for question, reply := range r.knowledge.CommonQuestions(ctx, tenant) {
		if strings.Contains(lower, strings.ToLower(question)) {
			r.metrics.ObserveCache("common_question")
			return reply
		}
	}

	if cached, ok := r.cache.Get(input); ok {
		r.metrics.ObserveCache("hit")
		return cached
	}
	r.metrics.ObserveCache("miss")

	if r.gen == nil {
		r.logger.Warn("conversation: no generation backend configured")
		return ApologyReply
	}

	knowledgeContext := ""
	if doc := r.knowledge.Load(ctx, tenant); doc != nil {
		knowledgeContext = knowledge.Format(doc)
	} else {
		r.logger.Warn("conversation: no knowledge base found", "tenant", tenant)
	}

	cfg := r.personas.Load(ctx, tenant)
	maxWords := r.personas.DefaultMaxWords()
	if cfg != nil {
		maxWords = cfg.MaxWords
	}

	prompt := persona.BuildPrompt(cfg, input, knowledgeContext, maxWords)

	start := time.Now()
	reply, err := r.gen.Generate(ctx, prompt)
	r.metrics.ObserveGeneration("answer", time.Since(start).Seconds())
	if err != nil {
		r.logger.Error("conversation: generation failed", "tenant", tenant, "error", err)
		return ApologyReply
	}

	reply = r.enforceBudget(ctx, reply, maxWords)
	r.cache.Put(input, reply)
	return reply
}

// enforceBudget applies the word budget: one refinement call when the draft
// lands more than two words short, a hard truncation when over, then a
// six-line cap. Asterisks are stripped before counting.
func (r *Responder) enforceBudget(ctx context.Context, reply string, maxWords int) string {
	reply = strings.ReplaceAll(strings.TrimSpace(reply), "*", "")

	words := strings.Fields(reply)
	if len(words) < maxWords-2 {
		start := time.Now()
		refined, err := r.gen.Generate(ctx, persona.RefinePrompt(reply, maxWords))
		r.metrics.ObserveGeneration("refine", time.Since(start).Seconds())
		if err == nil {
			if refined = strings.TrimSpace(refined); refined != "" {
				reply = strings.ReplaceAll(refined, "*", "")
			}
		}
		words = strings.Fields(reply)
	}

	if len(words) > maxWords {
		reply = strings.Join(words[:maxWords], " ")
		if !strings.HasSuffix(reply, ".") && !strings.HasSuffix(reply, "!") && !strings.HasSuffix(reply, "?") {
			reply += "."
		}
	}

	lines := strings.Split(reply, "\n")
	if len(lines) > maxReplyLines {
		reply = strings.Join(lines[:maxReplyLines], "\n")
	}
	return reply
}

// InvalidateCache clears the response cache. Wired as the knowledge
// repository's invalidation hook.
func (r *Responder) InvalidateCache() {
	r.cache.Clear()
}
