package search

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const minTriggerLen = 10

// Keywords hinting that a message carries property addresses.
var Keywords = []string{"calle", "av", "avenida", "road", "st", "street", "casa", "address", "#"}

// ShouldSearch reports whether text looks like it names an address: it must
// contain one of Keywords (case-insensitive, plain substring) and be longer
// than ten characters. Coincidental matches like "just" are accepted.
func ShouldSearch(text string) bool {
	if utf8.RuneCountInString(text) <= minTriggerLen {
		return false
	}
	lower := cases.Lower(language.Und).String(text)
	for _, kw := range Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
