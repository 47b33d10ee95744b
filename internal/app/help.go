package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"

	"github.com/zjrosen/codepad/internal/keys"
	"github.com/zjrosen/codepad/internal/rules"
)

// noMarginStyle removes glamour's document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

var helpGroups = []string{"File", "Editing", "View"}

// helpMarkdown documents the key bindings and supported languages.
func helpMarkdown() string {
	var b strings.Builder
	b.WriteString("# codepad\n\n")
	for i, group := range keys.Editor.FullHelp() {
		name := "More"
		if i < len(helpGroups) {
			name = helpGroups[i]
		}
		fmt.Fprintf(&b, "## %s\n\n| Key | Action |\n|---|---|\n", name)
		for _, binding := range group {
			writeBindingRow(&b, binding)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Languages\n\n")
	for _, lang := range rules.Languages() {
		ext := rules.Extension(lang)
		fmt.Fprintf(&b, "- **%s** (`%s`)\n", lang, ext)
	}
	return b.String()
}

func writeBindingRow(b *strings.Builder, binding key.Binding) {
	h := binding.Help()
	fmt.Fprintf(b, "| `%s` | %s |\n", h.Key, h.Desc)
}

// renderHelp renders the help screen. style is "dark" or "light". The style
// is fixed rather than auto-detected, which would query the terminal and leak
// the reply into the input stream.
func renderHelp(width int, style string) (string, error) {
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(helpMarkdown())
}
