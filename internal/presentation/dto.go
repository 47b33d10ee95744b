package presentation

import (
	"time"

	"github.com/zjrosen/codepad/internal/compile"
)

// JobDTO is a finished compile job as printed by the jobs command.
type JobDTO struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Output      string    `json:"output"`
	Language    string    `json:"language"`
	Status      string    `json:"status"`
	Outcome     string    `json:"outcome,omitempty"`
	Attempts    int       `json:"attempts"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMs  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
}

// FromResult converts a job result to a DTO.
func FromResult(r compile.Result) JobDTO {
	dto := JobDTO{
		ID:          r.JobID,
		Source:      r.SourceName,
		Output:      r.OutputName,
		Language:    r.Language,
		Status:      r.Status.String(),
		Outcome:     r.Outcome,
		Attempts:    r.Attempts,
		SubmittedAt: r.Submitted,
		FinishedAt:  r.Finished,
	}
	if !r.Finished.IsZero() && !r.Submitted.IsZero() {
		dto.DurationMs = r.Finished.Sub(r.Submitted).Milliseconds()
	}
	if r.Err != nil {
		dto.Error = r.Err.Error()
	}
	return dto
}

// FromResults converts a list of job results.
func FromResults(rs []compile.Result) []JobDTO {
	out := make([]JobDTO, len(rs))
	for i, r := range rs {
		out[i] = FromResult(r)
	}
	return out
}

// Row returns the DTO as a table row matching JobHeaders.
func (d JobDTO) Row() []string {
	return []string{
		shortID(d.ID),
		d.Source,
		d.Language,
		d.Status,
		d.Outcome,
		itoa(d.Attempts),
		d.FinishedAt.Local().Format(time.DateTime),
	}
}

// JobHeaders are the table columns of JobDTO.Row.
var JobHeaders = []string{"ID", "SOURCE", "LANGUAGE", "STATUS", "OUTCOME", "ATTEMPTS", "FINISHED"}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
