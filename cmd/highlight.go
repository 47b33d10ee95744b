package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/codepad/internal/highlight"
	"github.com/zjrosen/codepad/internal/rules"
	"github.com/zjrosen/codepad/internal/storage"
)

var (
	hlLanguage string
	hlSpans    bool
)

var highlightCmd = &cobra.Command{
	Use:   "highlight <file>",
	Short: "Print a file with syntax highlighting",
	Long: `Print a file with syntax highlighting, or its spans with --spans.

The language comes from the file extension unless --lang is given.

Examples:
  codepad highlight main.c
  codepad highlight --lang Python script.txt
  codepad highlight --spans Main.java`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readPath(args[0])
		if err != nil {
			return err
		}
		lang := hlLanguage
		if lang == "" {
			lang = rules.LanguageFor(args[0])
		}
		if !rules.IsSupported(lang) {
			return fmt.Errorf("unsupported language %q", lang)
		}
		rs := newRuleStore(cfg.Rules.Dir).Load(lang)
		return printHighlight(cmd.OutOrStdout(), text, rs, highlight.NewTheme(cfg.Theme.Colors), hlSpans)
	},
}

func init() {
	rootCmd.AddCommand(highlightCmd)

	highlightCmd.Flags().StringVarP(&hlLanguage, "lang", "l", "", "language to highlight as")
	highlightCmd.Flags().BoolVar(&hlSpans, "spans", false, "print spans instead of colored text")
}

func printHighlight(w io.Writer, text string, rs rules.RuleSet, theme highlight.Theme, spansOnly bool) error {
	spans := highlight.Highlight(text, rs)
	if !spansOnly {
		_, err := fmt.Fprintln(w, theme.Render(text, spans))
		return err
	}
	for _, sp := range spans {
		if _, err := fmt.Fprintf(w, "%d\t%d\t%s\t%q\n", sp.Start, sp.End, sp.Category, text[sp.Start:sp.End]); err != nil {
			return err
		}
	}
	return nil
}

// readPath reads a file given on the command line, relative to the working
// directory.
func readPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return storage.NewOS(filepath.Dir(abs)).Read(filepath.Base(abs))
}
