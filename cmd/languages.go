package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/codepad/internal/rules"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and their file extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printLanguages(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func printLanguages(w io.Writer) error {
	for _, lang := range rules.Languages() {
		if _, err := fmt.Fprintf(w, "%-12s .%s\n", lang, rules.Extension(lang)); err != nil {
			return err
		}
	}
	return nil
}
