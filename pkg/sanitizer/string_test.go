package sanitizer

import (
	"strings"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  Bean There  ", "Bean There"},
		{"multiple spaces between words", "Bean    There", "Bean There"},
		{"tabs and newlines", "Bean\t\nThere", "Bean There"},
		{"control characters dropped", "Bean\x00There", "BeanThere"},
		{"empty string", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"preserve special characters", " Café & Co™ ", "Café & Co™"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeName(NormalizeName(tt.input)); again != tt.want {
				t.Errorf("NormalizeName is not idempotent for %q", tt.input)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestNormalizeSearch(t *testing.T) {
	long := strings.Repeat("á", MaxSearchLength+20)
	if got := []rune(NormalizeSearch(long)); len(got) != MaxSearchLength {
		t.Errorf("expected %d runes, got %d", MaxSearchLength, len(got))
	}
	if got := NormalizeSearch("  cowork   almaty "); got != "cowork almaty" {
		t.Errorf("NormalizeSearch() = %q", got)
	}
}
