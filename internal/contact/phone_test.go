package contact

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"9876543210", "+919876543210"},
		{"919876543210", "+919876543210"},
		{"+91 98765 43210", "+919876543210"},
		{"+1 415 555 0100", "+14155550100"},
		{"98765-43210", "+919876543210"},
		{"12345", ""},
		{"", ""},
		{"not a number", ""},
		{"4155550100", "+914155550100"}, // ten digits always assumed Indian
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsValidMobile(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"6123456789", true},
		{"9876543210", true},
		{"5123456789", false},          // leading 5 rejected
		{"+916123456789", false},       // 12 digits total, not exactly 10
		{"612345678", false},           // too short
		{"my number 6123456789", true}, // digits in surrounding text still count
		{"6123456789 and 1", false},    // stray extra digit rejects
	}
	for _, c := range cases {
		if got := IsValidMobile(c.in); got != c.want {
			t.Errorf("IsValidMobile(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestExtractEmail(t *testing.T) {
	if got := ExtractEmail("reach me at john@x.com please"); got != "john@x.com" {
		t.Errorf("expected john@x.com, got %q", got)
	}
	if got := ExtractEmail("no email here"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
