package schema

import (
	"regexp"
	"testing"
)

var sanitizedPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Acme-Corp", "acme_corp"},
		{"leading digit", "123tenant", "r_123tenant"},
		{"spaces and dots", "my.tenant name", "my_tenant_name"},
		{"already safe", "already_safe_1", "already_safe_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if !sanitizedPattern.MatchString(got) {
				t.Errorf("Sanitize(%q) = %q does not match %s", tt.input, got, sanitizedPattern)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"Acme-Corp", "123tenant", "my.tenant name", "already_safe_1", "_"}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
