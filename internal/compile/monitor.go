// Package compile hands source files to an external compile agent through the
// shared code directory and watches for the agent's result file.
//
// The protocol is file based: the source is written next to a request.txt
// holding its file name, and the agent answers by writing <base>.txt.
package compile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/codepad/internal/log"
	"github.com/zjrosen/codepad/internal/scheduler"
	"github.com/zjrosen/codepad/internal/storage"
	"github.com/zjrosen/codepad/internal/tracing"
)

// RequestFile is the file the agent watches for new submissions.
const RequestFile = "request.txt"

// Polling defaults.
const (
	DefaultInitialDelay = 2 * time.Second
	DefaultInterval     = 4 * time.Second
	DefaultMaxAttempts  = 30
)

var (
	// ErrEmptySource rejects submissions with no code.
	ErrEmptySource = errors.New("no code to compile")
	// ErrTimeout is attached to results whose attempts ran out.
	ErrTimeout = errors.New("compilation timed out")
)

// Config controls polling.
type Config struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

// DefaultConfig returns the standard 2s delay, 4s interval and 30 attempts.
func DefaultConfig() Config {
	return Config{
		InitialDelay: DefaultInitialDelay,
		Interval:     DefaultInterval,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	return c
}

// Recorder persists finished jobs.
type Recorder interface {
	RecordJob(ctx context.Context, r Result) error
}

// NudgeSource starts change notifications for a result file inside dir. The
// returned stop function releases them.
type NudgeSource func(dir, name string) (<-chan struct{}, func(), error)

// Option configures a Monitor.
type Option func(*Monitor)

// WithConfig overrides the polling configuration.
func WithConfig(cfg Config) Option {
	return func(m *Monitor) { m.cfg = cfg.withDefaults() }
}

// WithRecorder stores every finished job.
func WithRecorder(r Recorder) Option {
	return func(m *Monitor) { m.recorder = r }
}

// WithTracer wraps submissions and jobs in spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Monitor) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithNudges lets a file watcher trigger early checks.
func WithNudges(src NudgeSource) Option {
	return func(m *Monitor) { m.nudges = src }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor submits source files and polls for their results. At most one job
// is active; a new submission cancels the previous one.
type Monitor struct {
	store    *storage.Store
	cfg      Config
	recorder Recorder
	tracer   trace.Tracer
	nudges   NudgeSource
	now      func() time.Time

	// beforeCheck runs ahead of every check; tests use it to stage results.
	beforeCheck func(scheduler.Attempt)

	mu     sync.Mutex
	active *Job
	subs   []func(*Job)
}

// NewMonitor creates a monitor writing into store's code directory.
func NewMonitor(store *storage.Store, opts ...Option) *Monitor {
	m := &Monitor{
		store:  store,
		cfg:    DefaultConfig(),
		tracer: noop.NewTracerProvider().Tracer("compile"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the polling configuration in use.
func (m *Monitor) Config() Config {
	return m.cfg
}

// OnUpdate registers fn to be called on every status change of any job.
// fn runs on the job's goroutine and must not block.
func (m *Monitor) OnUpdate(fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Active returns the job currently being monitored, if any.
func (m *Monitor) Active() *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// CancelActive cancels the active job, if any.
func (m *Monitor) CancelActive() {
	m.mu.Lock()
	job := m.active
	m.active = nil
	m.mu.Unlock()
	if job != nil {
		job.Cancel()
	}
}

// Submit writes src and the request file, then starts polling for the result
// in the background. ctx bounds the job's lifetime.
func (m *Monitor) Submit(ctx context.Context, src SourceFile) (*Job, error) {
	ctx, span := m.tracer.Start(ctx, tracing.SpanCompileSubmit, trace.WithAttributes(
		attribute.String(tracing.AttrFile, src.Name),
		attribute.String(tracing.AttrLanguage, src.Language),
	))
	defer span.End()

	if src.Content == "" {
		span.SetStatus(codes.Error, ErrEmptySource.Error())
		return nil, ErrEmptySource
	}
	if err := storage.ValidateName(src.Name); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := m.writeRequest(src); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	job := newJob(uuid.NewString(), src, m.now())
	span.SetAttributes(attribute.String(tracing.AttrJobID, job.ID))

	var nudge <-chan struct{}
	stop := func() {}
	if m.nudges != nil {
		ch, stopFn, err := m.nudges(m.store.Dir(), job.OutputName)
		if err != nil {
			log.Warn(log.CatCompile, "Result watcher unavailable, polling only", "error", err)
		} else {
			nudge, stop = ch, stopFn
		}
	}

	log.Info(log.CatCompile, "Compile submitted", "job", job.ID, "file", src.Name, "output", job.OutputName)
	m.notify(job)

	m.mu.Lock()
	prev := m.active
	m.active = job
	m.mu.Unlock()
	if prev != nil {
		log.Info(log.CatCompile, "Replacing in-flight compile job", "old", prev.ID, "new", job.ID)
		prev.Cancel()
	}

	job.mu.Lock()
	job.task = scheduler.Go(context.WithoutCancel(ctx), func(taskCtx context.Context) {
		defer stop()
		m.run(taskCtx, job, nudge)
	})
	cancelled := job.cancelled
	job.mu.Unlock()
	if cancelled {
		job.task.Cancel()
	}

	// Parent cancellation still ends the job.
	go func() {
		select {
		case <-ctx.Done():
			job.Cancel()
		case <-job.Done():
		}
	}()

	return job, nil
}

func (m *Monitor) writeRequest(src SourceFile) error {
	if err := m.store.EnsureDir(); err != nil {
		return err
	}
	out := OutputName(src.Name)
	if out != src.Name {
		if err := m.store.Remove(out); err != nil {
			return fmt.Errorf("clearing stale result: %w", err)
		}
	}
	if err := m.store.Write(src.Name, src.Content); err != nil {
		return fmt.Errorf("writing source: %w", err)
	}
	if err := m.store.Write(RequestFile, src.Name); err != nil {
		return fmt.Errorf("writing request: %w", err)
	}
	return nil
}

func (m *Monitor) run(ctx context.Context, job *Job, nudge <-chan struct{}) {
	ctx, span := m.tracer.Start(ctx, tracing.SpanCompileJob, trace.WithAttributes(
		attribute.String(tracing.AttrJobID, job.ID),
		attribute.String(tracing.AttrOutputFile, job.OutputName),
	))
	defer span.End()

	var (
		res   Result
		found bool
	)
	err := scheduler.Poll(ctx, scheduler.PollConfig{
		InitialDelay: m.cfg.InitialDelay,
		Interval:     m.cfg.Interval,
		MaxAttempts:  m.cfg.MaxAttempts,
		Nudge:        nudge,
	}, func(a scheduler.Attempt) bool {
		if job.Status() == Submitted {
			job.setStatus(Polling)
			m.notify(job)
		}
		if !a.Nudged {
			job.setAttempts(a.N)
		}
		span.AddEvent(tracing.EventPollAttempt, trace.WithAttributes(
			attribute.Int(tracing.AttrAttempts, a.N),
			attribute.Bool("nudged", a.Nudged),
		))
		if m.beforeCheck != nil {
			m.beforeCheck(a)
		}
		res, found = m.check(job)
		return found
	})

	switch {
	case err == nil:
	case errors.Is(err, scheduler.ErrAttemptsExhausted):
		res = job.baseResult(m.now())
		res.Status = TimedOut
		res.Err = ErrTimeout
		log.Warn(log.CatCompile, "Compile timed out", "job", job.ID, "attempts", res.Attempts)
	default:
		res = job.baseResult(m.now())
		res.Status = Cancelled
		res.Err = err
		log.Debug(log.CatCompile, "Compile job cancelled", "job", job.ID)
	}

	span.SetAttributes(
		attribute.String(tracing.AttrJobStatus, res.Status.String()),
		attribute.Int(tracing.AttrAttempts, res.Attempts),
	)
	if res.Failed() {
		span.SetStatus(codes.Error, res.Status.String())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	job.finish(res)

	m.mu.Lock()
	if m.active == job {
		m.active = nil
	}
	m.mu.Unlock()

	if res.Status != Cancelled && m.recorder != nil {
		if err := m.recorder.RecordJob(context.WithoutCancel(ctx), res); err != nil {
			log.ErrorErr(log.CatCompile, "Failed to record compile job", err, "job", job.ID)
		}
	}
	m.notify(job)
}

// check looks for the result file. It reports true once the job is decided.
func (m *Monitor) check(job *Job) (Result, bool) {
	exists, err := m.store.Exists(job.OutputName)
	if err == nil && !exists {
		return Result{}, false
	}

	res := job.baseResult(m.now())
	if err == nil {
		res.Content, err = m.store.Read(job.OutputName)
	}
	if err != nil {
		res.Status = Failed
		res.Outcome = OutcomeCompileError
		res.Err = err
		log.ErrorErr(log.CatCompile, "Error reading output", err, "job", job.ID)
		return res, true
	}

	res.Status, res.Outcome = classify(res.Content)
	log.Info(log.CatCompile, "Compile finished", "job", job.ID, "status", res.Status, "attempts", res.Attempts)
	return res, true
}

func (m *Monitor) notify(job *Job) {
	m.mu.Lock()
	subs := append([]func(*Job){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(job)
	}
}
