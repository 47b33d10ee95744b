package app

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/codepad/internal/session"
)

func TestStatusBar(t *testing.T) {
	tests := []struct {
		name     string
		update   session.Update
		editable bool
		want     []string
		notWant  []string
	}{
		{
			name:     "untitled text",
			update:   session.Update{Language: "Text"},
			editable: true,
			want:     []string{"Text", "untitled", "Words: 0"},
			notWant:  []string{"modified", "read-only"},
		},
		{
			name: "modified file",
			update: session.Update{
				Language: "C",
				Filename: "main.c",
				Modified: true,
				Counts:   session.Counters{Words: 3, Chars: 12, Lines: 2},
			},
			editable: true,
			want:     []string{"main.c", "modified", "Words: 3", "Chars: 12", "Lines: 2"},
		},
		{
			name:     "locked",
			update:   session.Update{Language: "Python", Filename: "a.py"},
			editable: false,
			want:     []string{"read-only"},
			notWant:  []string{"modified"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := statusBar(tt.update, tt.editable, 100)
			require.Equal(t, 100, lipgloss.Width(bar))
			for _, s := range tt.want {
				assert.Contains(t, bar, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, bar, s)
			}
		})
	}
}

func TestStatusBar_TruncatesLongNames(t *testing.T) {
	long := strings.Repeat("x", 200) + ".c"
	bar := statusBar(session.Update{Language: "C", Filename: long}, true, 80)

	require.LessOrEqual(t, lipgloss.Width(bar), 80)
	assert.Contains(t, bar, "…")
}

func TestWrapOutput(t *testing.T) {
	got := wrapOutput("one two three four", 9)
	require.Equal(t, "one two\nthree\nfour", got)
	require.Equal(t, "as is", wrapOutput("as is", 0))
	require.Equal(t, "red", wrapOutput("\x1b[31mred\x1b[0m", 20))
}

func TestHelpMarkdown(t *testing.T) {
	md := helpMarkdown()
	assert.Contains(t, md, "## File")
	assert.Contains(t, md, "`ctrl+s`")
	assert.Contains(t, md, "**Python** (`py`)")
}
