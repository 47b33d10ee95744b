package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/codepad/internal/compile"
	"github.com/zjrosen/codepad/internal/rules"
)

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Submit a file to the compile agent and wait for its answer",
	Long: `Copy a file into the code directory, write request.txt and wait for the
agent's <name>.txt answer, polling on the configured schedule. Exits non-zero
when compilation fails or the agent does not answer in time.

Examples:
  codepad compile main.c
  codepad compile --code-dir /sdcard/codes Main.java`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	cleanup, err := setupLogging("codepad-compile")
	if err != nil {
		return err
	}
	defer cleanup()

	text, err := readPath(args[0])
	if err != nil {
		return err
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := filepath.Base(args[0])
	fmt.Fprintf(cmd.ErrOrStderr(), "🔄 Compiling %s...\n", name)
	return compileAndWait(ctx, cmd.OutOrStdout(), svc.monitor, compile.SourceFile{
		Name:     name,
		Language: rules.LanguageFor(name),
		Content:  text,
	})
}

// compileAndWait submits src, waits for the job and prints its report.
func compileAndWait(ctx context.Context, w io.Writer, m *compile.Monitor, src compile.SourceFile) error {
	job, err := m.Submit(ctx, src)
	if err != nil {
		return err
	}
	res, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, res.Report())
	if res.Failed() {
		return fmt.Errorf("compile %s: %s", src.Name, res.Status)
	}
	return nil
}
