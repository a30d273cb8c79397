package utils

import (
	"testing"
)

func TestCleanMarkdownCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text",
			input:    "Just plain text",
			expected: "Just plain text",
		},
		{
			name:     "text in code block",
			input:    "```\nRaport 12\n```",
			expected: "Raport 12",
		},
		{
			name:     "code block with language",
			input:    "```text\nA\nB\n```",
			expected: "A\nB",
		},
		{
			name:     "indented fences",
			input:    "  ```  \nline\n  ```",
			expected: "line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanMarkdownCode(tt.input)
			if result != tt.expected {
				t.Errorf("CleanMarkdownCode() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCleanOCRText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "windows line endings",
			input:    "a\r\nb",
			expected: "a\nb",
		},
		{
			name:     "collapse blank lines",
			input:    "a\n\n\n\nb",
			expected: "a\n\nb",
		},
		{
			name:     "trailing spaces",
			input:    "a   \nb\t",
			expected: "a\nb",
		},
		{
			name:     "fenced with blank padding",
			input:    "```\n\nRepair note\n\n```",
			expected: "Repair note",
		},
		{
			name:     "empty",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanOCRText(tt.input)
			if result != tt.expected {
				t.Errorf("CleanOCRText() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"whitespace collapsed", "a\n  b\tc", 10, "a b c"},
		{"truncated", "abcdefgh", 3, "abc…"},
		{"unicode", "zażółć gęślą", 6, "zażółć…"},
		{"no limit", "a b", 0, "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.input, tt.max); got != tt.expected {
				t.Errorf("Preview() = %q, want %q", got, tt.expected)
			}
		})
	}
}
