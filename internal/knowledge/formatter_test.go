package knowledge

import (
	"strings"
	"testing"
)

func TestFormatScalar(t *testing.T) {
	if got := Format("open 9 to 5"); got != "open 9 to 5" {
		t.Errorf("expected scalar passthrough, got %q", got)
	}
	if got := Format(42); got != "42" {
		t.Errorf("expected number formatting, got %q", got)
	}
}

func TestFormatHidesTechnicalFields(t *testing.T) {
	out := Format(map[string]any{
		"services":   "haircuts",
		"password":   "hunter2",
		"user_id":    "u-1",
		"api_key":    "sk-xyz",
		"last_login": "yesterday",
	})
	if !strings.Contains(out, "haircuts") {
		t.Errorf("expected services in output, got %q", out)
	}
	for _, secret := range []string{"hunter2", "u-1", "sk-xyz", "yesterday"} {
		if strings.Contains(out, secret) {
			t.Errorf("technical field leaked %q in %q", secret, out)
		}
	}
}

func TestFormatShortList(t *testing.T) {
	out := Format(map[string]any{"services": []any{"cut", "color", "shave"}})
	if !strings.Contains(out, "cut, color, shave") {
		t.Errorf("expected joined list, got %q", out)
	}
}

func TestFormatLongList(t *testing.T) {
	out := Format(map[string]any{"items": []any{"a", "b", "c", "d", "e", "f", "g"}})
	if !strings.Contains(out, "a, b, c") {
		t.Errorf("expected first three items, got %q", out)
	}
	if !strings.Contains(out, "and 4 more") {
		t.Errorf("expected overflow note, got %q", out)
	}
}

func TestFormatNestedMap(t *testing.T) {
	out := Format(map[string]any{
		"hours": map[string]any{
			"monday": "9-5",
			"sunday": "closed",
		},
	})
	if !strings.Contains(out, "Hours:") {
		t.Errorf("expected section header, got %q", out)
	}
	if !strings.Contains(out, "- Monday: 9-5") {
		t.Errorf("expected indented entry, got %q", out)
	}
}

func TestFormatDeterministicOrder(t *testing.T) {
	doc := map[string]any{"zebra": "z", "apple": "a", "mango": "m"}
	first := Format(doc)
	for i := 0; i < 10; i++ {
		if got := Format(doc); got != first {
			t.Fatalf("output not deterministic: %q vs %q", first, got)
		}
	}
	if strings.Index(first, "Apple") > strings.Index(first, "Zebra") {
		t.Errorf("expected sorted keys, got %q", first)
	}
}

func TestFormatAllHiddenFallback(t *testing.T) {
	out := Format(map[string]any{"password": "x", "token": "y"})
	if !strings.Contains(out, "Available data keys:") {
		t.Errorf("expected fallback key listing, got %q", out)
	}
}
