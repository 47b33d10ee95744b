// Package app contains the root application model.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/codepad/internal/clipboard"
	"github.com/zjrosen/codepad/internal/compile"
	"github.com/zjrosen/codepad/internal/highlight"
	"github.com/zjrosen/codepad/internal/keys"
	"github.com/zjrosen/codepad/internal/log"
	"github.com/zjrosen/codepad/internal/pubsub"
	"github.com/zjrosen/codepad/internal/rules"
	"github.com/zjrosen/codepad/internal/session"
	"github.com/zjrosen/codepad/internal/storage"
)

const (
	maxLogLines   = 200
	minOutputRows = 4

	zoneEditor = "codepad-editor"
	zoneOutput = "codepad-output"
)

// Config wires the application to its services.
type Config struct {
	Rules     *rules.Store
	Store     *storage.Store
	Clipboard clipboard.Clipboard
	Monitor   *compile.Monitor
	Tracer    trace.Tracer
	Theme     highlight.Theme

	Debounce     time.Duration
	HistoryDepth int

	ShowStatusBar bool
	MarkdownStyle string

	// Open is loaded into the editor on start when set.
	Open string
	// Debug enables the log overlay.
	Debug bool
}

type promptKind int

const (
	promptNone promptKind = iota
	promptOpen
	promptSave
	promptSaveCompile
	promptFind
)

func (p promptKind) label() string {
	switch p {
	case promptOpen:
		return "Open: "
	case promptSave, promptSaveCompile:
		return "Save as: "
	case promptFind:
		return "Find: "
	}
	return ""
}

type focus int

const (
	focusEditor focus = iota
	focusOutput
)

// Model is the root application state.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	sess     *session.Session
	pane     *pane
	exec     *executor
	events   *pubsub.Listener[session.Update]
	broker   *pubsub.Broker[session.Update]
	logs     *log.Listener
	theme    highlight.Theme
	mdStyle  string
	showBar  bool
	debug    bool
	startErr error

	editor  textarea.Model
	preview viewport.Model
	output  viewport.Model
	help    viewport.Model

	prompt  promptKind
	input   textinput.Model
	replace textinput.Model

	focus    focus
	showHelp bool
	showLogs bool
	logLines []string
	toast    toast

	width  int
	height int
}

// New creates the application model and its document session.
func New(cfg Config) Model {
	ctx, cancel := context.WithCancel(context.Background())

	p := &pane{}
	exec := newExecutor(ctx)
	broker := pubsub.NewBroker[session.Update]()

	opts := []session.Option{
		session.WithDisplay(p),
		session.WithBroker(broker),
		session.WithExecutor(exec.run),
		session.WithDebounce(cfg.Debounce),
	}
	if cfg.Rules != nil {
		opts = append(opts, session.WithRules(cfg.Rules))
	}
	if cfg.Store != nil {
		opts = append(opts, session.WithStore(cfg.Store))
	}
	if cfg.Clipboard != nil {
		opts = append(opts, session.WithClipboard(cfg.Clipboard))
	}
	if cfg.Monitor != nil {
		opts = append(opts, session.WithMonitor(cfg.Monitor))
	}
	if cfg.Tracer != nil {
		opts = append(opts, session.WithTracer(cfg.Tracer))
	}
	if cfg.HistoryDepth > 0 {
		opts = append(opts, session.WithHistoryDepth(cfg.HistoryDepth))
	}

	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Placeholder = "Start typing..."
	ta.Focus()

	in := textinput.New()
	in.CharLimit = 256
	rep := textinput.New()
	rep.Prompt = "Replace: "

	m := Model{
		ctx:     ctx,
		cancel:  cancel,
		sess:    session.New(opts...),
		pane:    p,
		exec:    exec,
		broker:  broker,
		events:  pubsub.NewListener(ctx, broker),
		theme:   cfg.Theme,
		mdStyle: cfg.MarkdownStyle,
		showBar: cfg.ShowStatusBar,
		debug:   cfg.Debug,
		editor:  ta,
		preview: viewport.New(0, 0),
		output:  viewport.New(0, 0),
		help:    viewport.New(0, 0),
		input:   in,
		replace: rep,
	}
	if cfg.Debug {
		m.logs = log.NewListener(ctx)
	}

	if cfg.Open != "" {
		if err := m.sess.Open(cfg.Open); err != nil {
			log.ErrorErr(log.CatUI, "Open on start failed", err, "file", cfg.Open)
			m.startErr = err
		}
	}
	m.sync()
	return m
}

// Session returns the document session behind the editor.
func (m Model) Session() *session.Session { return m.sess }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.events.Listen(), m.exec.listen()}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	if m.startErr != nil {
		err := m.startErr
		cmds = append(cmds, func() tea.Msg { return errMsg{err: err} })
	}
	return tea.Batch(cmds...)
}

// errMsg reports a failure that happened outside Update.
type errMsg struct{ err error }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case runMsg:
		msg.fn()
		m.sync()
		return m, m.exec.listen()

	case pubsub.Event[session.Update]:
		if msg.Type == pubsub.CompileEvent && !m.showLogs {
			m.refreshOutput(msg.Payload.Output)
		}
		m.sync()
		return m, m.events.Listen()

	case pubsub.Event[string]:
		m.logLines = append(m.logLines, msg.Payload)
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
		if m.showLogs {
			m.refreshLogs()
		}
		return m, m.logs.Listen()

	case errMsg:
		return m.notify(msg.err.Error(), toastError)

	case dismissToastMsg:
		m.toast = m.toast.dismiss(msg.seq)
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Editor.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, keys.Editor.Help) {
		m.showHelp = !m.showHelp
		if m.showHelp {
			m.refreshHelp()
		}
		return m, nil
	}
	if m.debug && key.Matches(msg, keys.Editor.Logs) {
		m.showLogs = !m.showLogs
		m.refreshLogs()
		return m, nil
	}
	if m.showHelp {
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Editor.New):
		m.sess.NewDocument()
		m.sync()
		return m.notify("New document", toastInfo)

	case key.Matches(msg, keys.Editor.Open):
		return m.openPrompt(promptOpen, "")

	case key.Matches(msg, keys.Editor.Save):
		return m.openPrompt(promptSave, m.sess.Filename())

	case key.Matches(msg, keys.Editor.Compile):
		return m.compile()

	case key.Matches(msg, keys.Editor.Undo):
		if !m.sess.Undo() {
			return m.notify("Nothing to undo", toastInfo)
		}
		m.sync()
		return m, nil

	case key.Matches(msg, keys.Editor.Redo):
		if !m.sess.Redo() {
			return m.notify("Nothing to redo", toastInfo)
		}
		m.sync()
		return m, nil

	case key.Matches(msg, keys.Editor.Copy):
		// The textarea has no selection, so an empty one copies everything.
		if err := m.sess.Copy(0, 0); err != nil {
			return m.notify(err.Error(), toastError)
		}
		return m.notify("Copied document", toastSuccess)

	case key.Matches(msg, keys.Editor.Paste):
		at := m.cursorOffset()
		if err := m.sess.Paste(at, at); err != nil {
			return m.notify(err.Error(), toastError)
		}
		m.sync()
		return m, nil

	case key.Matches(msg, keys.Editor.FindReplace):
		return m.openPrompt(promptFind, "")

	case key.Matches(msg, keys.Editor.ToggleEdit):
		m.sess.SetEditable(!m.sess.Editable())
		if m.sess.Editable() {
			return m.notify("Editing unlocked", toastInfo)
		}
		return m.notify("Editing locked", toastInfo)

	case key.Matches(msg, keys.Editor.Changes):
		changes := m.sess.Changes()
		if changes == "" {
			changes = "No unsaved changes."
		}
		m.output.SetContent(wrapOutput(changes, m.output.Width))
		return m, nil

	case key.Matches(msg, keys.Editor.FocusOutput):
		if m.focus == focusEditor {
			m.focus = focusOutput
			m.editor.Blur()
			return m, nil
		}
		m.focus = focusEditor
		cmd := m.editor.Focus()
		return m, cmd
	}

	if m.focus == focusOutput {
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	return m.edit(msg)
}

// handleMouse moves focus to the clicked pane and scrolls the output panel.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || m.prompt != promptNone {
		return m, nil
	}
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		if z := zone.Get(zoneOutput); z != nil && z.InBounds(msg) {
			m.focus = focusOutput
			m.editor.Blur()
			return m, nil
		}
		if z := zone.Get(zoneEditor); z != nil && z.InBounds(msg) {
			m.focus = focusEditor
			cmd := m.editor.Focus()
			return m, cmd
		}
	}
	if z := zone.Get(zoneOutput); z != nil && z.InBounds(msg) {
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	return m, nil
}

// edit forwards a key to the textarea and reports the new text to the session.
func (m Model) edit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.editor.Value()
	next, cmd := m.editor.Update(msg)
	after := next.Value()
	if after != before && !m.sess.Editable() {
		return m.notify(session.ErrReadOnly.Error(), toastInfo)
	}
	m.editor = next
	if after != before {
		m.sess.TextChanged(after)
		m.sync()
	}
	return m, cmd
}

func (m Model) openPrompt(kind promptKind, value string) (tea.Model, tea.Cmd) {
	m.prompt = kind
	m.input.Prompt = kind.label()
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.replace.SetValue("")
	m.replace.Blur()
	m.editor.Blur()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) closePrompt() (Model, tea.Cmd) {
	m.prompt = promptNone
	m.input.Blur()
	m.replace.Blur()
	cmd := m.editor.Focus()
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Prompt.Cancel):
		return m.closePrompt()

	case m.prompt == promptFind && key.Matches(msg, keys.Prompt.Next):
		if m.input.Focused() {
			m.input.Blur()
			cmd := m.replace.Focus()
			return m, cmd
		}
		m.replace.Blur()
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, keys.Prompt.Confirm):
		kind := m.prompt
		value := strings.TrimSpace(m.input.Value())
		repl := m.replace.Value()
		var focusCmd tea.Cmd
		m, focusCmd = m.closePrompt()
		next, cmd := m.confirm(kind, value, repl)
		return next, tea.Batch(focusCmd, cmd)
	}

	var cmd tea.Cmd
	if m.replace.Focused() {
		m.replace, cmd = m.replace.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) confirm(kind promptKind, value, repl string) (tea.Model, tea.Cmd) {
	switch kind {
	case promptOpen:
		if value == "" {
			return m, nil
		}
		if err := m.sess.Open(value); err != nil {
			return m.fail("Open failed", err)
		}
		m.sync()
		return m.notify("Opened "+m.sess.Filename(), toastSuccess)

	case promptSave:
		if err := m.sess.Save(value); err != nil {
			return m.fail("Save failed", err)
		}
		m.sync()
		return m.notify("Saved "+m.sess.Filename(), toastSuccess)

	case promptSaveCompile:
		if _, err := m.sess.SaveAndCompile(m.ctx, value); err != nil {
			return m.fail("Compile failed", err)
		}
		m.refreshOutput(m.sess.Output())
		return m, nil

	case promptFind:
		n, err := m.sess.Replace(value, repl)
		if err != nil {
			return m.fail("Replace failed", err)
		}
		m.sync()
		return m.notify(fmt.Sprintf("Replaced %d occurrence(s)", n), toastInfo)
	}
	return m, nil
}

func (m Model) compile() (tea.Model, tea.Cmd) {
	_, err := m.sess.Compile(m.ctx)
	switch {
	case errors.Is(err, session.ErrFilenameRequired):
		return m.openPrompt(promptSaveCompile, "")
	case err != nil:
		return m.fail("Compile failed", err)
	}
	m.refreshOutput(m.sess.Output())
	return m, nil
}

// fail shows err in the output panel and as a toast.
func (m Model) fail(what string, err error) (tea.Model, tea.Cmd) {
	log.ErrorErr(log.CatUI, what, err)
	m.output.SetContent(wrapOutput("Error: "+err.Error(), m.output.Width))
	return m.notify(err.Error(), toastError)
}

func (m Model) notify(message string, style toastStyle) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.toast, cmd = m.toast.show(message, style)
	return m, cmd
}

// sync pulls what the session pushed into the pane: replaced text into the
// textarea and the latest paint into the preview.
func (m *Model) sync() {
	if text, ok := m.pane.takeText(); ok {
		m.editor.SetValue(text)
		m.preview.SetContent(text)
	}
	if text, spans, ok := m.pane.takePaint(); ok {
		m.preview.SetContent(m.theme.Render(text, spans))
	}
}

func (m *Model) refreshOutput(out string) {
	m.output.SetContent(wrapOutput(out, m.output.Width))
	m.output.GotoTop()
}

func (m *Model) refreshLogs() {
	if !m.showLogs {
		m.refreshOutput(m.sess.Output())
		return
	}
	m.output.SetContent(strings.Join(m.logLines, "\n"))
	m.output.GotoBottom()
}

func (m *Model) refreshHelp() {
	content, err := renderHelp(m.help.Width, m.mdStyle)
	if err != nil {
		log.Warn(log.CatUI, "Help render failed", "error", err)
		content = helpMarkdown()
	}
	m.help.SetContent(content)
	m.help.GotoTop()
}

// cursorOffset returns the textarea cursor as a rune offset into the text.
func (m Model) cursorOffset() int {
	lines := strings.Split(m.editor.Value(), "\n")
	row := m.editor.Line()
	offset := 0
	for i := 0; i < row && i < len(lines); i++ {
		offset += utf8.RuneCountInString(lines[i]) + 1
	}
	li := m.editor.LineInfo()
	return offset + li.StartColumn + li.ColumnOffset
}

var (
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5C6370"))
	activeStyle = paneStyle.BorderForeground(lipgloss.Color("#61AFEF"))
	promptStyle = lipgloss.NewStyle().Padding(0, 1)
)

// layout sizes the panes for the current window.
func (m *Model) layout() {
	rows := m.height - 1 // prompt line
	if m.showBar {
		rows--
	}
	outRows := rows / 4
	if outRows < minOutputRows {
		outRows = minOutputRows
	}
	bodyRows := rows - outRows - 4 // two bordered panes
	if bodyRows < 1 {
		bodyRows = 1
	}

	half := m.width / 2
	m.editor.SetWidth(half - 2)
	m.editor.SetHeight(bodyRows)
	m.preview.Width = m.width - half - 2
	m.preview.Height = bodyRows
	m.help.Width = m.width - 2
	m.help.Height = bodyRows
	m.output.Width = m.width - 2
	m.output.Height = outRows
	m.input.Width = m.width - 4
	m.replace.Width = m.width - 4

	m.refreshOutput(m.sess.Output())
	if m.showHelp {
		m.refreshHelp()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var body string
	if m.showHelp {
		body = activeStyle.Render(m.help.View())
	} else {
		edStyle, outStyle := activeStyle, paneStyle
		if m.focus == focusOutput {
			edStyle, outStyle = paneStyle, activeStyle
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			zone.Mark(zoneEditor, edStyle.Render(m.editor.View())),
			paneStyle.Render(m.preview.View()),
		)
		body = lipgloss.JoinVertical(lipgloss.Left, body,
			zone.Mark(zoneOutput, outStyle.Render(m.output.View())))
	}

	var line string
	switch {
	case m.prompt == promptFind:
		line = promptStyle.Render(m.input.View() + "  " + m.replace.View())
	case m.prompt != promptNone:
		line = promptStyle.Render(m.input.View())
	case m.toast.visible():
		line = m.toast.view()
	}

	parts := []string{body, line}
	if m.showBar {
		u := session.Update{
			Language: m.sess.Language(),
			Filename: m.sess.Filename(),
			Counts:   m.sess.Counts(),
			Modified: m.sess.Modified(),
			Job:      m.sess.Job(),
		}
		parts = append(parts, statusBar(u, m.sess.Editable(), m.width))
	}
	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	m.cancel()
	m.sess.Close()
	m.broker.Close()
	return nil
}
