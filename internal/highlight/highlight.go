// Package highlight turns a rule set into color spans over a document and
// paints those spans for display. It never changes the text itself.
package highlight

import (
	"regexp"
	"strings"

	"github.com/zjrosen/codepad/internal/log"
	"github.com/zjrosen/codepad/internal/rules"
)

// Category is the kind of token a span colors.
type Category int

const (
	Keyword Category = iota
	Operator
	Number
	String
	Comment
	Function

	numCategories
)

// Order is the fixed application order. Where spans of different categories
// overlap, the later category wins.
var Order = [numCategories]Category{Keyword, Operator, Number, String, Comment, Function}

func (c Category) String() string {
	switch c {
	case Keyword:
		return "keyword"
	case Operator:
		return "operator"
	case Number:
		return "number"
	case String:
		return "string"
	case Comment:
		return "comment"
	case Function:
		return "function"
	default:
		return "unknown"
	}
}

// Span colors text[Start:End] (byte offsets, End exclusive).
type Span struct {
	Start    int
	End      int
	Category Category
}

// Highlighter holds the compiled patterns of one rule set. It is safe for
// concurrent use.
type Highlighter struct {
	language string
	patterns [numCategories]*regexp.Regexp
}

// Compile prepares a rule set for repeated highlighting. Categories whose
// pattern is absent or does not compile are skipped.
func Compile(rs rules.RuleSet) *Highlighter {
	h := &Highlighter{language: rs.Language}
	sources := [numCategories]string{
		Keyword:  keywordPattern(rs.Keywords),
		Operator: operatorPattern(rs.Operators),
		Number:   rs.Numbers,
		String:   rs.Strings,
		Comment:  rs.Comments,
		Function: rs.Functions,
	}
	for _, cat := range Order {
		src := sources[cat]
		if src == "" {
			continue
		}
		re, err := regexp.Compile("(?m)" + src)
		if err != nil {
			log.Warn(log.CatHighlight, "skipping pattern", "language", rs.Language, "category", cat, "error", err)
			continue
		}
		h.patterns[cat] = re
	}
	return h
}

// Language returns the language tag of the compiled rule set.
func (h *Highlighter) Language() string {
	return h.language
}

// Highlight returns every span for text, grouped by category in application
// order and by position within a category.
func (h *Highlighter) Highlight(text string) []Span {
	if text == "" {
		return nil
	}
	var spans []Span
	for _, cat := range Order {
		re := h.patterns[cat]
		if re == nil {
			continue
		}
		for _, m := range re.FindAllStringIndex(text, -1) {
			if m[0] >= m[1] {
				continue
			}
			spans = append(spans, Span{Start: m[0], End: m[1], Category: cat})
		}
	}
	return spans
}

// Highlight compiles rs and highlights text in one step.
func Highlight(text string, rs rules.RuleSet) []Span {
	return Compile(rs).Highlight(text)
}

func keywordPattern(keywords []string) string {
	alts := quoteAll(keywords)
	if len(alts) == 0 {
		return ""
	}
	return `\b(?:` + strings.Join(alts, "|") + `)\b`
}

// operatorPattern keeps the configured order: the regexp engine prefers the
// leftmost alternative, so "==" must precede "=" to win.
func operatorPattern(operators []string) string {
	alts := quoteAll(operators)
	if len(alts) == 0 {
		return ""
	}
	return `(?:` + strings.Join(alts, "|") + `)`
}

func quoteAll(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, regexp.QuoteMeta(w))
	}
	return out
}
