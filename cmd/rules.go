package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/codepad/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect highlighting rules",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check [language]...",
	Short: "Validate rule definitions",
	Long: `Load each language's rules strictly and report any that would fall back
to the default rules in the editor. With no arguments every language is
checked, including overrides from rules.dir.

Examples:
  codepad rules check
  codepad rules check Kotlin C++`,
	RunE: func(cmd *cobra.Command, args []string) error {
		langs := args
		if len(langs) == 0 {
			langs = rules.Languages()
		}
		return checkRules(cmd.OutOrStdout(), newRuleStore(cfg.Rules.Dir), langs)
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
}

var errRulesInvalid = errors.New("some rule definitions are invalid")

func checkRules(w io.Writer, store *rules.Store, langs []string) error {
	failed := false
	for _, lang := range langs {
		rs, err := store.Check(lang)
		if err != nil {
			failed = true
			fmt.Fprintf(w, "FAIL  %-12s %v\n", lang, err)
			continue
		}
		fmt.Fprintf(w, "ok    %-12s %d keywords, %d operators\n", lang, len(rs.Keywords), len(rs.Operators))
	}
	if failed {
		return errRulesInvalid
	}
	return nil
}
