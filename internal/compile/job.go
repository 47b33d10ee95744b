package compile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/codepad/internal/scheduler"
)

// Status is the lifecycle state of a compile job.
type Status int

const (
	Idle Status = iota
	Submitted
	Polling
	Succeeded
	Failed
	TimedOut
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitted:
		return "submitted"
	case Polling:
		return "polling"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus is the inverse of Status.String. Unknown names map to Idle.
func ParseStatus(s string) Status {
	for st := Idle; st <= Cancelled; st++ {
		if st.String() == s {
			return st
		}
	}
	return Idle
}

// Terminal reports whether no further transitions happen from s.
func (s Status) Terminal() bool {
	return s >= Succeeded
}

// Markers the compile agent writes into a result to flag failures.
const (
	CompileErrorMarker = "❌"
	RuntimeErrorMarker = "💥"
)

// Outcome lines shown above the agent output.
const (
	OutcomeSuccess      = "✅ COMPILATION SUCCESSFUL"
	OutcomeCompileError = "🔴 COMPILATION FAILED"
	OutcomeRuntimeError = "🔴 RUNTIME ERROR"
)

// SourceFile is what gets handed to the compile agent.
type SourceFile struct {
	Name     string
	Language string
	Content  string
}

// OutputName is the result file the agent writes for a source file name:
// the base name with its last extension replaced by ".txt".
func OutputName(source string) string {
	if i := strings.LastIndexByte(source, '.'); i > 0 {
		source = source[:i]
	}
	return source + ".txt"
}

// Result is the outcome of a finished job.
type Result struct {
	JobID      string
	Status     Status
	Outcome    string
	Content    string
	SourceName string
	OutputName string
	Language   string
	Attempts   int
	Submitted  time.Time
	Finished   time.Time
	Err        error
}

// Failed reports whether the result should be shown as a failure.
func (r Result) Failed() bool {
	return r.Status != Succeeded
}

// Report renders the result the way the output panel shows it.
func (r Result) Report() string {
	switch r.Status {
	case TimedOut:
		return fmt.Sprintf("⏱️ Compilation timeout - no response after %d attempts", r.Attempts)
	case Cancelled:
		return fmt.Sprintf("Compilation of %s cancelled", r.SourceName)
	}
	if r.Err != nil && r.Content == "" {
		return fmt.Sprintf("Error reading output: %v", r.Err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📁 File: %s\n", r.SourceName)
	fmt.Fprintf(&b, "🕐 Time: %s\n", r.Finished.Format("15:04:05"))
	fmt.Fprintf(&b, "💻 Language: %s\n", r.Language)
	b.WriteString(strings.Repeat("=", 30))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%s:\n", r.Outcome)
	b.WriteString(r.Content)
	return b.String()
}

// classify maps agent output to a status and outcome line.
func classify(content string) (Status, string) {
	switch {
	case strings.Contains(content, CompileErrorMarker):
		return Failed, OutcomeCompileError
	case strings.Contains(content, RuntimeErrorMarker):
		return Failed, OutcomeRuntimeError
	default:
		return Succeeded, OutcomeSuccess
	}
}

// Job is one submission being monitored.
type Job struct {
	ID         string
	Source     SourceFile
	OutputName string
	Submitted  time.Time

	mu        sync.Mutex
	status    Status
	attempts  int
	result    Result
	task      *scheduler.Task
	cancelled bool
	done      chan struct{}
}

func newJob(id string, src SourceFile, now time.Time) *Job {
	return &Job{
		ID:         id,
		Source:     src,
		OutputName: OutputName(src.Name),
		Submitted:  now,
		status:     Submitted,
		done:       make(chan struct{}),
	}
}

// Status returns the current state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Attempts returns the number of interval checks made so far.
func (j *Job) Attempts() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempts
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result returns the final result and whether the job has finished.
func (j *Job) Result() (Result, bool) {
	select {
	case <-j.done:
		return j.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (Result, error) {
	select {
	case <-j.done:
		return j.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Cancel stops polling. The job finishes as Cancelled unless it already ended.
func (j *Job) Cancel() {
	j.mu.Lock()
	j.cancelled = true
	task := j.task
	j.mu.Unlock()
	task.Cancel()
}

func (j *Job) setStatus(s Status) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.status.Terminal() {
		j.status = s
	}
}

func (j *Job) setAttempts(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = n
}

func (j *Job) baseResult(now time.Time) Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Result{
		JobID:      j.ID,
		SourceName: j.Source.Name,
		OutputName: j.OutputName,
		Language:   j.Source.Language,
		Attempts:   j.attempts,
		Submitted:  j.Submitted,
		Finished:   now,
	}
}

func (j *Job) finish(r Result) {
	j.mu.Lock()
	j.status = r.Status
	j.result = r
	j.mu.Unlock()
	close(j.done)
}
