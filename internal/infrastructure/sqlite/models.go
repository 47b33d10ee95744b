package sqlite

import (
	"errors"
	"time"

	"github.com/zjrosen/codepad/internal/compile"
)

// jobModel is a compile_jobs row. Times are Unix milliseconds.
type jobModel struct {
	ID          int64
	GUID        string
	SourceName  string
	OutputName  string
	Language    string
	Status      string
	Outcome     *string
	Content     *string
	Error       *string
	Attempts    int
	SubmittedAt int64
	FinishedAt  int64
	DurationMs  int64
}

func toJobModel(r compile.Result) *jobModel {
	m := &jobModel{
		GUID:        r.JobID,
		SourceName:  r.SourceName,
		OutputName:  r.OutputName,
		Language:    r.Language,
		Status:      r.Status.String(),
		Attempts:    r.Attempts,
		SubmittedAt: r.Submitted.UnixMilli(),
		FinishedAt:  r.Finished.UnixMilli(),
		DurationMs:  r.Finished.Sub(r.Submitted).Milliseconds(),
	}
	if m.Language == "" {
		m.Language = "Text"
	}
	if r.Outcome != "" {
		m.Outcome = &r.Outcome
	}
	if r.Content != "" {
		m.Content = &r.Content
	}
	if r.Err != nil {
		msg := r.Err.Error()
		m.Error = &msg
	}
	return m
}

func (m *jobModel) toResult() compile.Result {
	r := compile.Result{
		JobID:      m.GUID,
		Status:     compile.ParseStatus(m.Status),
		SourceName: m.SourceName,
		OutputName: m.OutputName,
		Language:   m.Language,
		Attempts:   m.Attempts,
		Submitted:  time.UnixMilli(m.SubmittedAt),
		Finished:   time.UnixMilli(m.FinishedAt),
	}
	if m.Outcome != nil {
		r.Outcome = *m.Outcome
	}
	if m.Content != nil {
		r.Content = *m.Content
	}
	if m.Error != nil {
		r.Err = errors.New(*m.Error)
	}
	return r
}
