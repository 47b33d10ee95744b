package session

import (
	"strings"
	"unicode/utf8"
)

// Counters are the document statistics shown in the status bar.
type Counters struct {
	Words int
	Chars int
	Lines int
}

// Count computes the counters for text. Words are separated by runs of ASCII
// whitespace once the text is trimmed, so a no-break space joins two words.
// Chars are runes and an empty document still has one line.
func Count(text string) Counters {
	return Counters{
		Words: len(strings.FieldsFunc(strings.TrimSpace(text), isASCIISpace)),
		Chars: utf8.RuneCountInString(text),
		Lines: strings.Count(text, "\n") + 1,
	}
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
