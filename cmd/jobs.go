package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/codepad/internal/compile"
	"github.com/zjrosen/codepad/internal/infrastructure/sqlite"
	"github.com/zjrosen/codepad/internal/presentation"
)

var (
	jobsSource   string
	jobsStatuses []string
	jobsLimit    int
	jobsJSON     bool
	jobsKeep     int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List finished compile jobs",
	Long: `List compile jobs recorded in compile.history_db, newest first.

Examples:
  codepad jobs
  codepad jobs --source main.c --limit 5
  codepad jobs --status failed --status timed_out --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openJobs()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		filter := sqlite.ListFilter{SourceName: jobsSource, Limit: jobsLimit}
		for _, s := range jobsStatuses {
			st, err := parseStatusFlag(s)
			if err != nil {
				return err
			}
			filter.Statuses = append(filter.Statuses, st)
		}

		results, err := db.Jobs().List(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatJobs(presentation.FromResults(results), jobsJSON)
	},
}

var jobsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count recorded jobs per status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openJobs()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		stats, err := db.Jobs().Stats(cmd.Context())
		if err != nil {
			return err
		}
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatStats(stats, jobsJSON)
	},
}

var jobsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest recorded jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openJobs()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		n, err := db.Jobs().Prune(cmd.Context(), jobsKeep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d job(s), kept the newest %d\n", n, jobsKeep)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsStatsCmd, jobsPruneCmd)

	jobsCmd.PersistentFlags().BoolVar(&jobsJSON, "json", false, "print JSON")
	jobsCmd.Flags().StringVarP(&jobsSource, "source", "s", "", "only jobs for this source file")
	jobsCmd.Flags().StringSliceVar(&jobsStatuses, "status", nil, "only jobs with this status (repeatable)")
	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "maximum jobs to list (0 for all)")
	jobsPruneCmd.Flags().IntVar(&jobsKeep, "keep", 100, "jobs to keep")
}

func parseStatusFlag(s string) (compile.Status, error) {
	st := compile.ParseStatus(strings.ToLower(strings.TrimSpace(s)))
	if st == compile.Idle {
		return st, fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}
