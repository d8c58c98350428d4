// Package persona turns a tenant's company configuration into the voice of
// their chatbot: system prompts for the generator and the fixed copy used by
// the lead-capture flow, both varying by tone and industry.
package persona

import (
	"context"
	"strings"

	"github.com/adityaverma/chatbot-backend/internal/store"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Tones supported by the persona tables. Unknown tones fall back to
// Professional everywhere.
const (
	ToneProfessional = "Professional"
	ToneFriendly     = "Friendly"
	ToneHumorous     = "Humorous"
	ToneExpert       = "Expert"
	ToneCaring       = "Caring"
	ToneEnthusiastic = "Enthusiastic"
	ToneFormal       = "Formal"
	ToneCasual       = "Casual"
)

// Config is a tenant's company configuration document.
type Config struct {
	CompanyName        string
	CompanyURL         string
	CompanyDescription string
	Tone               string
	Industry           string
	MaxWords           int
}

// Loader reads company configuration documents from storage.
type Loader struct {
	store           store.Store
	logger          *logging.Logger
	defaultMaxWords int
}

// NewLoader creates a config loader. defaultMaxWords applies when a tenant
// has not configured a response length.
func NewLoader(st store.Store, defaultMaxWords int, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultMaxWords <= 0 {
		defaultMaxWords = 20
	}
	return &Loader{store: st, logger: logger, defaultMaxWords: defaultMaxWords}
}

// Load returns the tenant's company config, or nil if none exists.
func (l *Loader) Load(ctx context.Context, tenant string) *Config {
	if l.store == nil || tenant == "" {
		return nil
	}

	raw, err := l.store.Get(ctx, store.Join(tenant, "company_config"))
	if err != nil {
		l.logger.Error("persona: failed to load company config", "tenant", tenant, "error", err)
		return nil
	}
	doc, ok := raw.(map[string]any)
	if !ok || len(doc) == 0 {
		return nil
	}

	cfg := &Config{
		CompanyName:        stringField(doc, "companyName"),
		CompanyURL:         stringField(doc, "companyUrl"),
		CompanyDescription: stringField(doc, "companyDescription"),
		Tone:               stringField(doc, "tone"),
		Industry:           stringField(doc, "industry"),
		MaxWords:           intField(doc, "responseLength"),
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = "our company"
	}
	if cfg.Tone == "" {
		cfg.Tone = ToneProfessional
	}
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = l.defaultMaxWords
	}
	return cfg
}

// DefaultMaxWords is the response word budget used when no config exists.
func (l *Loader) DefaultMaxWords() int {
	return l.defaultMaxWords
}

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return strings.TrimSpace(s)
}

func intField(doc map[string]any, key string) int {
	switch v := doc[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}
