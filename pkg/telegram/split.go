package telegram

import (
	"strings"
	"unicode/utf16"
)

// telegram rejects longer messages, counted in UTF-16 code units
const maxMessageLen = 4096

// SplitMessage cuts text into parts of at most limit UTF-16 units, preferring
// line breaks so tour scripts stay readable.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageLen
	}
	runes := []rune(text)
	if unitLen(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for unitLen(runes) > limit {
		cut, units, nl := 0, 0, -1
		for cut < len(runes) {
			n := runeUnits(runes[cut])
			if units+n > limit {
				break
			}
			units += n
			if runes[cut] == '\n' {
				nl = cut
			}
			cut++
		}
		if cut == 0 {
			// a surrogate pair wider than limit
			cut = 1
		}
		if nl > cut/2 {
			cut = nl + 1
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

func unitLen(rs []rune) (n int) {
	for _, r := range rs {
		n += runeUnits(r)
	}
	return
}
