package cmd

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/codepad/internal/presentation"
	"github.com/zjrosen/codepad/internal/rules"
	"github.com/zjrosen/codepad/internal/session"
)

var statsCmd = &cobra.Command{
	Use:   "stats <file>...",
	Short: "Print word, character and line counts",
	Long: `Print the counters the editor status bar shows for each file.

Words are whitespace-separated runs, characters are Unicode code points and
lines are newline count plus one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printStats(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func printStats(w io.Writer, paths []string) error {
	rows := make([][]string, 0, len(paths))
	for _, p := range paths {
		text, err := readPath(p)
		if err != nil {
			return err
		}
		c := session.Count(text)
		rows = append(rows, []string{
			p,
			rules.LanguageFor(p),
			strconv.Itoa(c.Words),
			strconv.Itoa(c.Chars),
			strconv.Itoa(c.Lines),
		})
	}
	return presentation.NewFormatter(w).Table([]string{"FILE", "LANGUAGE", "WORDS", "CHARS", "LINES"}, rows)
}
