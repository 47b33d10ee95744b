package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/zjrosen/codepad/internal/compile"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// JSON writes v as indented JSON.
func (f *Formatter) JSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Table writes rows under headers with a plain border.
func (f *Formatter) Table(headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(f.writer, t.String())
	return err
}

// FormatJobs writes jobs as a table, or as JSON when asJSON is set.
func (f *Formatter) FormatJobs(jobs []JobDTO, asJSON bool) error {
	if asJSON {
		return f.JSON(jobs)
	}
	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		rows[i] = j.Row()
	}
	return f.Table(JobHeaders, rows)
}

// FormatStats writes job counts per status in a stable order.
func (f *Formatter) FormatStats(stats map[compile.Status]int, asJSON bool) error {
	statuses := make([]compile.Status, 0, len(stats))
	for s := range stats {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	if asJSON {
		byName := make(map[string]int, len(stats))
		for _, s := range statuses {
			byName[s.String()] = stats[s]
		}
		return f.JSON(byName)
	}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{s.String(), itoa(stats[s])})
	}
	return f.Table([]string{"STATUS", "JOBS"}, rows)
}

func itoa(n int) string { return strconv.Itoa(n) }
