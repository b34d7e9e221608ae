package strings

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "hello",
			n:        10,
			expected: "hello",
		},
		{
			name:     "exact length unchanged",
			input:    "hello",
			n:        5,
			expected: "hello",
		},
		{
			name:     "truncated with ellipsis",
			input:    "hello world",
			n:        8,
			expected: "hello...",
		},
		{
			name:     "tiny n clamped to 4",
			input:    "hello",
			n:        1,
			expected: "h...",
		},
		{
			name:     "empty string",
			input:    "",
			n:        4,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input, tt.n)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, result, tt.expected)
			}
		})
	}
}

func TestGetCwd(t *testing.T) {
	cwd := GetCwd()
	if cwd == "" {
		t.Error("expected non-empty cwd")
	}
	if cwd == "unknown" {
		t.Error("expected real cwd, got fallback")
	}
}
