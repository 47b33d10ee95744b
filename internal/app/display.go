package app

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/codepad/internal/highlight"
)

// pane is the session's Display. The session paints into it from inside
// Update, so the model copies bubbletea hands around share it by pointer.
type pane struct {
	mu      sync.Mutex
	text    string
	spans   []highlight.Span
	pending bool // SetText arrived and the textarea has not caught up
	painted bool
}

func (p *pane) Paint(text string, spans []highlight.Span) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = text
	p.spans = spans
	p.painted = true
}

func (p *pane) SetText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = text
	p.spans = nil
	p.pending = true
}

// takeText returns text set by the session since the last call.
func (p *pane) takeText() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.pending {
		return "", false
	}
	p.pending = false
	return p.text, true
}

// takePaint returns the latest painted text and spans since the last call.
func (p *pane) takePaint() (string, []highlight.Span, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.painted {
		return "", nil, false
	}
	p.painted = false
	return p.text, p.spans, true
}

// runMsg carries a highlight pass onto the event loop.
type runMsg struct{ fn func() }

// executor queues debounced passes for the event loop. One queued pass is
// enough since a pass always reads the latest text.
type executor struct {
	ctx context.Context
	ch  chan func()
}

func newExecutor(ctx context.Context) *executor {
	return &executor{ctx: ctx, ch: make(chan func(), 1)}
}

func (e *executor) run(fn func()) {
	select {
	case e.ch <- fn:
	default:
	}
}

func (e *executor) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-e.ctx.Done():
			return nil
		case fn := <-e.ch:
			return runMsg{fn: fn}
		}
	}
}
