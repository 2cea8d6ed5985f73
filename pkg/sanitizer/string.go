package sanitizer

import (
	"strings"
	"unicode"
)

// MaxSearchLength bounds search terms before they are turned into regexes.
const MaxSearchLength = 100

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else if unicode.IsControl(r) {
			continue
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeSearch trims a search term and cuts it to MaxSearchLength runes.
func NormalizeSearch(term string) string {
	term = TrimAndNormalize(term)
	runes := []rune(term)
	if len(runes) > MaxSearchLength {
		term = string(runes[:MaxSearchLength])
	}
	return term
}
