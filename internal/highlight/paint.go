package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Segment is a maximal run of text with a single resolved color.
type Segment struct {
	Start    int
	End      int
	Category Category
	Styled   bool
}

// Resolve overlays spans onto text in the order given and returns the
// resulting runs, covering text from 0 to len(text). Later spans win where
// they overlap, so passing Highlight's output preserves the fixed category
// order. Out-of-range spans are clipped.
func Resolve(text string, spans []Span) []Segment {
	n := len(text)
	if n == 0 {
		return nil
	}

	const none = -1
	cats := make([]int8, n)
	for i := range cats {
		cats[i] = none
	}
	for _, sp := range spans {
		start, end := max(sp.Start, 0), min(sp.End, n)
		for i := start; i < end; i++ {
			cats[i] = int8(sp.Category)
		}
	}

	var segs []Segment
	runStart := 0
	for i := 1; i <= n; i++ {
		if i < n && cats[i] == cats[runStart] {
			continue
		}
		seg := Segment{Start: runStart, End: i}
		if c := cats[runStart]; c != none {
			seg.Category = Category(c)
			seg.Styled = true
		}
		segs = append(segs, seg)
		runStart = i
	}
	return segs
}

// Theme maps categories to display styles.
type Theme struct {
	styles [numCategories]lipgloss.Style
}

// DefaultColors are the category colors used when the config sets none.
var DefaultColors = map[string]string{
	"keyword":  "#C678DD",
	"operator": "#56B6C2",
	"number":   "#D19A66",
	"string":   "#98C379",
	"comment":  "#7F848E",
	"function": "#61AFEF",
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() Theme {
	return NewTheme(nil)
}

// NewTheme builds a theme from category-name → color overrides, falling back
// to DefaultColors for anything not set.
func NewTheme(colors map[string]string) Theme {
	var t Theme
	for _, cat := range Order {
		color := DefaultColors[cat.String()]
		if c, ok := colors[cat.String()]; ok && c != "" {
			color = c
		}
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(color)).
			TabWidth(lipgloss.NoTabConversion)
		if cat == Keyword {
			style = style.Bold(true)
		}
		if cat == Comment {
			style = style.Italic(true)
		}
		t.styles[cat] = style
	}
	return t
}

// Style returns the style for c.
func (t Theme) Style(c Category) lipgloss.Style {
	if c < 0 || c >= numCategories {
		return lipgloss.NewStyle()
	}
	return t.styles[c]
}

// Render paints text with spans. Styles are applied per line so that
// multi-line spans (block comments) survive line-oriented terminals.
func (t Theme) Render(text string, spans []Span) string {
	var b strings.Builder
	b.Grow(len(text) * 2)
	for _, seg := range Resolve(text, spans) {
		chunk := text[seg.Start:seg.End]
		if !seg.Styled {
			b.WriteString(chunk)
			continue
		}
		style := t.styles[seg.Category]
		lines := strings.Split(chunk, "\n")
		for i, line := range lines {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(style.Render(line))
			}
		}
	}
	return b.String()
}
