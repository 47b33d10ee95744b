package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type toastStyle int

const (
	toastSuccess toastStyle = iota
	toastError
	toastInfo
)

var (
	toastSuccessColor = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#98C379"}
	toastErrorColor   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E06C75"}
	toastInfoColor    = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#61AFEF"}
)

// toast is a short notification shown above the status bar.
type toast struct {
	message string
	style   toastStyle
	seq     int
}

// dismissToastMsg hides the toast with the matching sequence number, so a
// newer toast outlives the timer of an older one.
type dismissToastMsg struct{ seq int }

func (t toast) show(message string, style toastStyle) (toast, tea.Cmd) {
	t.message = message
	t.style = style
	t.seq++
	seq := t.seq
	return t, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return dismissToastMsg{seq: seq}
	})
}

func (t toast) dismiss(seq int) toast {
	if seq == t.seq {
		t.message = ""
	}
	return t
}

func (t toast) visible() bool { return t.message != "" }

func (t toast) view() string {
	if !t.visible() {
		return ""
	}
	style := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	switch t.style {
	case toastError:
		return style.BorderForeground(toastErrorColor).Render("❌ " + t.message)
	case toastInfo:
		return style.BorderForeground(toastInfoColor).Render("ℹ️ " + t.message)
	default:
		return style.BorderForeground(toastSuccessColor).Render("✅ " + t.message)
	}
}
