package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/codepad/internal/compile"
	"github.com/zjrosen/codepad/internal/highlight"
	"github.com/zjrosen/codepad/internal/infrastructure/sqlite"
	"github.com/zjrosen/codepad/internal/log"
	"github.com/zjrosen/codepad/internal/rules"
	"github.com/zjrosen/codepad/internal/storage"
	"github.com/zjrosen/codepad/internal/tracing"
	"github.com/zjrosen/codepad/internal/watcher"
)

// services bundles what the editor and the compile command share.
type services struct {
	rules   *rules.Store
	store   *storage.Store
	theme   highlight.Theme
	tracing *tracing.Provider
	db      *sqlite.DB
	monitor *compile.Monitor
}

// newRuleStore returns the built-in rules, overridden from dir when set.
func newRuleStore(dir string) *rules.Store {
	if dir == "" {
		return rules.NewStore()
	}
	return rules.NewStore(rules.WithOverrideDir(dir))
}

// openServices validates the config and wires storage, rules, tracing, job
// history and the compile monitor.
func openServices() (*services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &services{
		rules: newRuleStore(cfg.Rules.Dir),
		store: storage.NewOS(cfg.CodeDir),
		theme: highlight.NewTheme(cfg.Theme.Colors),
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		log.Warn(log.CatConfig, "Tracing disabled", "error", err)
		provider = tracing.Noop()
	}
	s.tracing = provider

	opts := []compile.Option{
		compile.WithConfig(compile.Config{
			InitialDelay: cfg.Compile.InitialDelay,
			Interval:     cfg.Compile.Interval,
			MaxAttempts:  cfg.Compile.MaxAttempts,
		}),
		compile.WithTracer(provider.Tracer()),
	}
	if cfg.Compile.Watch {
		opts = append(opts, compile.WithNudges(watcher.Nudges))
	}
	if cfg.Compile.HistoryDB != "" {
		db, err := sqlite.NewDB(cfg.Compile.HistoryDB)
		if err != nil {
			// Job history is optional; compiling works without it.
			log.ErrorErr(log.CatDB, "Job history unavailable", err, "path", cfg.Compile.HistoryDB)
		} else {
			s.db = db
			opts = append(opts, compile.WithRecorder(db.Jobs()))
		}
	}
	s.monitor = compile.NewMonitor(s.store, opts...)
	return s, nil
}

// Close cancels the running compile and flushes traces.
func (s *services) Close() {
	s.monitor.CancelActive()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.tracing.Shutdown(ctx); err != nil {
		log.Warn(log.CatConfig, "Tracing shutdown failed", "error", err)
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Warn(log.CatDB, "Closing job history failed", "error", err)
		}
	}
}

// openJobs opens the job history database alone.
func openJobs() (*sqlite.DB, error) {
	if cfg.Compile.HistoryDB == "" {
		return nil, fmt.Errorf("job history is disabled (compile.history_db is empty)")
	}
	db, err := sqlite.NewDB(cfg.Compile.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("opening job history: %w", err)
	}
	return db, nil
}
