package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/codepad/internal/session"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#343433", Dark: "#C1C6B2"}).
			Background(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#353533"})
	languageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#6124DF")).
			Padding(0, 1)
	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#A550DF")).
			Padding(0, 1)
)

// statusBar renders the language badge, file name, flags and counters on one
// line of the given width.
func statusBar(u session.Update, editable bool, width int) string {
	left := languageStyle.Render(u.Language)

	var flags []string
	if u.Modified {
		flags = append(flags, "modified")
	}
	if !editable {
		flags = append(flags, "read-only")
	}
	if u.Job != nil && !u.Job.Status().Terminal() {
		flags = append(flags, u.Job.Status().String())
	}
	right := fmt.Sprintf(" Words: %d  Chars: %d  Lines: %d ", u.Counts.Words, u.Counts.Chars, u.Counts.Lines)
	if len(flags) > 0 {
		right = flagStyle.Render(strings.Join(flags, " · ")) + right
	}

	name := u.Filename
	if name == "" {
		name = "untitled"
	}
	room := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if room < 0 {
		room = 0
	}
	name = runewidth.Truncate(name, room, "…")
	middle := " " + name + strings.Repeat(" ", room-runewidth.StringWidth(name)) + " "

	return statusStyle.Width(width).MaxWidth(width).Render(left + middle + right)
}

// wrapOutput word-wraps compile output to the panel width. Escape sequences
// the agent may have captured are dropped so they cannot restyle the panel.
func wrapOutput(s string, width int) string {
	s = ansi.Strip(s)
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}
