package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zjrosen/codepad/internal/compile"
)

// ErrJobNotFound is returned when a job GUID has no row.
var ErrJobNotFound = errors.New("compile job not found")

const jobColumns = `id, guid, source_name, output_name, language, status, outcome, content, error,
	attempts, submitted_at, finished_at, duration_ms`

// JobRepository stores finished compile jobs.
type JobRepository struct {
	db *sql.DB
}

func newJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ compile.Recorder = (*JobRepository)(nil)

func scanJob(scanner interface{ Scan(...any) error }) (*jobModel, error) {
	var m jobModel
	err := scanner.Scan(
		&m.ID, &m.GUID, &m.SourceName, &m.OutputName, &m.Language, &m.Status,
		&m.Outcome, &m.Content, &m.Error,
		&m.Attempts, &m.SubmittedAt, &m.FinishedAt, &m.DurationMs,
	)
	return &m, err
}

// RecordJob inserts a finished job. Recording the same job twice replaces it.
func (r *JobRepository) RecordJob(ctx context.Context, res compile.Result) error {
	m := toJobModel(res)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO compile_jobs (
			guid, source_name, output_name, language, status, outcome, content, error,
			attempts, submitted_at, finished_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
			status = excluded.status, outcome = excluded.outcome, content = excluded.content,
			error = excluded.error, attempts = excluded.attempts,
			finished_at = excluded.finished_at, duration_ms = excluded.duration_ms`,
		m.GUID, m.SourceName, m.OutputName, m.Language, m.Status, m.Outcome, m.Content, m.Error,
		m.Attempts, m.SubmittedAt, m.FinishedAt, m.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert compile job: %w", err)
	}
	return nil
}

// FindByGUID returns one job.
func (r *JobRepository) FindByGUID(ctx context.Context, guid string) (compile.Result, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM compile_jobs WHERE guid = ?`, guid)
	m, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return compile.Result{}, fmt.Errorf("%w: %s", ErrJobNotFound, guid)
	}
	if err != nil {
		return compile.Result{}, fmt.Errorf("failed to find compile job: %w", err)
	}
	return m.toResult(), nil
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	SourceName string
	Statuses   []compile.Status
	Limit      int
}

// List returns jobs newest first.
func (r *JobRepository) List(ctx context.Context, f ListFilter) ([]compile.Result, error) {
	query := `SELECT ` + jobColumns + ` FROM compile_jobs WHERE 1 = 1`
	var args []any
	if f.SourceName != "" {
		query += ` AND source_name = ?`
		args = append(args, f.SourceName)
	}
	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, st.String())
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY finished_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list compile jobs: %w", err)
	}
	defer rows.Close()

	var out []compile.Result
	for rows.Next() {
		m, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compile job: %w", err)
		}
		out = append(out, m.toResult())
	}
	return out, rows.Err()
}

// Stats summarizes the recorded jobs per status.
func (r *JobRepository) Stats(ctx context.Context) (map[compile.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM compile_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count compile jobs: %w", err)
	}
	defer rows.Close()

	out := make(map[compile.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[compile.ParseStatus(status)] = n
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep jobs and returns how many were removed.
func (r *JobRepository) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM compile_jobs WHERE id NOT IN (
			SELECT id FROM compile_jobs ORDER BY finished_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune compile jobs: %w", err)
	}
	return res.RowsAffected()
}
