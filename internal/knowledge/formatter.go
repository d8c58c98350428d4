// Package knowledge manages per-tenant knowledge bases: the store-backed
// repository with its in-process cache, and the formatter that turns an
// arbitrary nested document into the flat text block used to ground
// generated answers.
package knowledge

import (
	"fmt"
	"sort"
	"strings"
)

// technicalFields are skipped when formatting knowledge for the prompt.
// Matched case-insensitively as substrings, so "api_token" and "Password"
// are both dropped.
var technicalFields = []string{
	"password", "last_login", "created_at", "updated_at",
	"user_id", "session_id", "token", "key", "secret", "hash", "salt",
	"database", "table", "admin_id", "login_time",
}

func isTechnicalKey(key string) bool {
	lower := strings.ToLower(key)
	for _, tech := range technicalFields {
		if strings.Contains(lower, tech) {
			return true
		}
	}
	return false
}

// Format converts a knowledge base document into a readable text block,
// filtering out technical details. Returns "" for empty input; if nothing
// survives filtering, falls back to listing the top-level keys so the
// prompt still carries a diagnostic hint.
func Format(doc any) string {
	if doc == nil {
		return ""
	}

	var parts []string

	switch v := doc.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			if !isTechnicalKey(key) {
				formatValue(&parts, key, v[key], "")
			}
		}
	case []any:
		parts = append(parts, "Available information:")
		limit := len(v)
		if limit > 10 {
			limit = 10
		}
		for i, item := range v[:limit] {
			if m, ok := item.(map[string]any); ok {
				if hasRelevantData(m) {
					for _, k := range sortedKeys(m) {
						if !isTechnicalKey(k) {
							formatValue(&parts, k, m[k], "- ")
						}
					}
				}
			} else if !isTechnicalKey(fmt.Sprint(item)) {
				parts = append(parts, fmt.Sprintf("- Item %d: %v", i+1, item))
			}
		}
		if len(parts) == 1 {
			parts = nil
		}
	default:
		if !isTechnicalKey(fmt.Sprint(v)) {
			parts = append(parts, fmt.Sprintf("Information: %v", v))
		}
	}

	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}

	// Nothing survived filtering: surface the shape of the data instead.
	switch v := doc.(type) {
	case map[string]any:
		keys := sortedKeys(v)
		if len(keys) > 5 {
			keys = keys[:5]
		}
		if len(keys) > 0 {
			return "Available data keys: " + strings.Join(keys, ", ")
		}
	case []any:
		if len(v) > 0 {
			return fmt.Sprintf("Available data: %d items", len(v))
		}
	}
	return ""
}

func formatValue(parts *[]string, key string, value any, indent string) {
	if isTechnicalKey(key) {
		return
	}

	switch v := value.(type) {
	case map[string]any:
		if !hasRelevantData(v) {
			return
		}
		for _, k := range sortedKeys(v) {
			if !isTechnicalKey(k) {
				formatValue(parts, k, v[k], indent+"- ")
			}
		}
	case []any:
		relevant := filterListItems(v)
		if len(relevant) == 0 {
			return
		}
		if len(relevant) <= 5 {
			*parts = append(*parts, fmt.Sprintf("%s%s: %s", indent, key, joinItems(relevant)))
		} else {
			*parts = append(*parts, fmt.Sprintf("%s%s: %s and %d more",
				indent, key, joinItems(relevant[:3]), len(relevant)-3))
		}
	default:
		text := strings.TrimSpace(fmt.Sprint(v))
		if text != "" && !isTechnicalKey(text) {
			*parts = append(*parts, fmt.Sprintf("%s%s: %s", indent, key, text))
		}
	}
}

func hasRelevantData(m map[string]any) bool {
	for k := range m {
		if !isTechnicalKey(k) {
			return true
		}
	}
	return false
}

func filterListItems(items []any) []any {
	relevant := make([]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if hasRelevantData(m) {
				relevant = append(relevant, item)
			}
		} else if !isTechnicalKey(fmt.Sprint(item)) {
			relevant = append(relevant, item)
		}
	}
	return relevant
}

func joinItems(items []any) string {
	strs := make([]string, len(items))
	for i, item := range items {
		strs[i] = fmt.Sprint(item)
	}
	return strings.Join(strs, ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
