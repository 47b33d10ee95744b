package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"

	"github.com/zjrosen/codepad/internal/app"
	"github.com/zjrosen/codepad/internal/clipboard"
)

var editCmd = &cobra.Command{
	Use:   "edit [file]",
	Short: "Open the editor",
	Long: `Open the editor, optionally loading a file from the code directory.

Examples:
  codepad edit
  codepad edit main.c`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(_ *cobra.Command, args []string) error {
	cleanup, err := setupLogging("codepad")
	if err != nil {
		return err
	}
	defer cleanup()

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	var open string
	if len(args) == 1 {
		open = args[0]
	}

	zone.NewGlobal()
	model := app.New(app.Config{
		Rules:         svc.rules,
		Store:         svc.store,
		Clipboard:     clipboard.NewSystem(),
		Monitor:       svc.monitor,
		Tracer:        svc.tracing.Tracer(),
		Theme:         svc.theme,
		Debounce:      cfg.Highlight.Debounce,
		HistoryDepth:  cfg.History.Depth,
		ShowStatusBar: cfg.UI.ShowStatusBar,
		MarkdownStyle: cfg.UI.MarkdownStyle,
		Open:          open,
		Debug:         debugEnabled(),
	})
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
