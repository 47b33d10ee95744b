package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/codepad/internal/clipboard"
	"github.com/zjrosen/codepad/internal/compile"
	"github.com/zjrosen/codepad/internal/highlight"
	"github.com/zjrosen/codepad/internal/pubsub"
	"github.com/zjrosen/codepad/internal/rules"
	"github.com/zjrosen/codepad/internal/session"
	"github.com/zjrosen/codepad/internal/storage"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
	zone.NewGlobal()
}

// createTestModel creates a model with synchronous highlighting over an
// in-memory code directory.
func createTestModel(t *testing.T, opts ...func(*Config)) (Model, *storage.Store) {
	t.Helper()
	store := storage.New(afero.NewMemMapFs(), "/codes")
	cfg := Config{
		Store:         store,
		Clipboard:     &clipboard.Memory{},
		Theme:         highlight.DefaultTheme(),
		ShowStatusBar: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	m := New(cfg)
	t.Cleanup(func() { _ = m.Close() })
	m = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, store
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func sessionEvent(u session.Update) pubsub.Event[session.Update] {
	return pubsub.Event[session.Update]{Type: pubsub.CompileEvent, Payload: u, Timestamp: time.Now()}
}

func pubsubLogEvent(entry string) pubsub.Event[string] {
	return pubsub.Event[string]{Type: pubsub.LogEvent, Payload: entry, Timestamp: time.Now()}
}

func typeText(m Model, s string) Model {
	return update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestApp_WindowSizeMsg(t *testing.T) {
	m, _ := createTestModel(t)

	m = update(m, tea.WindowSizeMsg{Width: 150, Height: 60})

	assert.Equal(t, 150, m.width)
	assert.Equal(t, 60, m.height)
	assert.Equal(t, 148, m.output.Width)
}

func TestApp_TypingUpdatesSessionAndPreview(t *testing.T) {
	m, _ := createTestModel(t)

	m = typeText(m, "hello world")

	require.Equal(t, "hello world", m.sess.Text())
	require.Equal(t, session.Counters{Words: 2, Chars: 11, Lines: 1}, m.sess.Counts())
	assert.Contains(t, m.preview.View(), "hello world")
	assert.Contains(t, m.View(), "Words: 2")
}

func TestApp_UndoRedoRestoresEditor(t *testing.T) {
	m, _ := createTestModel(t)
	m = typeText(m, "int x")
	m = typeText(m, " = 1")
	require.Equal(t, "int x = 1", m.editor.Value())

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	require.Equal(t, "int x", m.editor.Value())
	require.Equal(t, "int x", m.sess.Text())

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	require.Equal(t, "int x = 1", m.editor.Value())
}

func TestApp_UndoWithNothingShowsToast(t *testing.T) {
	m, _ := createTestModel(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlZ})

	require.True(t, m.toast.visible())
	assert.Contains(t, m.toast.view(), "Nothing to undo")
}

func TestApp_SavePromptWritesFile(t *testing.T) {
	m, store := createTestModel(t)
	m = typeText(m, "int main() {}")

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, promptSave, m.prompt)
	m = typeText(m, "main.c")
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, promptNone, m.prompt)
	got, err := store.Read("main.c")
	require.NoError(t, err)
	require.Equal(t, "int main() {}", got)
	require.Equal(t, "main.c", m.sess.Filename())
	require.Equal(t, rules.C, m.sess.Language())
	require.False(t, m.sess.Modified())
}

func TestApp_SavePromptPrefillsName(t *testing.T) {
	m, _ := createTestModel(t)
	m = typeText(m, "x")
	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = typeText(m, "a.py")
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, "a.py", m.input.Value())

	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, promptNone, m.prompt)
}

func TestApp_SaveEmptyDocumentFails(t *testing.T) {
	m, store := createTestModel(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = typeText(m, "empty.c")
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	exists, err := store.Exists("empty.c")
	require.NoError(t, err)
	require.False(t, exists)
	require.Empty(t, m.sess.Filename())
	assert.Contains(t, m.output.View(), "text is empty")
}

func TestApp_OpenPromptLoadsFile(t *testing.T) {
	m, store := createTestModel(t)
	require.NoError(t, store.Write("hello.py", "def f():\n    pass"))

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m = typeText(m, "hello.py")
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, "def f():\n    pass", m.editor.Value())
	require.Equal(t, rules.Python, m.sess.Language())
	assert.Contains(t, m.preview.View(), "def")
}

func TestApp_OpenOnStart(t *testing.T) {
	store := storage.New(afero.NewMemMapFs(), "/codes")
	require.NoError(t, store.Write("Main.java", "class Main {}"))

	m := New(Config{Store: store, Open: "Main.java"})
	defer func() { _ = m.Close() }()

	require.NoError(t, m.startErr)
	require.Equal(t, "class Main {}", m.editor.Value())
	require.Equal(t, rules.Java, m.sess.Language())
}

func TestApp_OpenMissingOnStartReportsError(t *testing.T) {
	m := New(Config{Store: storage.New(afero.NewMemMapFs(), "/codes"), Open: "nope.c"})
	defer func() { _ = m.Close() }()

	require.Error(t, m.startErr)
	require.Empty(t, m.editor.Value())
}

func TestApp_FindReplace(t *testing.T) {
	m, _ := createTestModel(t)
	m = typeText(m, "a b a")

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, promptFind, m.prompt)
	m = typeText(m, "a")
	m = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, "z")
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, "z b z", m.sess.Text())
	require.Equal(t, "z b z", m.editor.Value())
	assert.Contains(t, m.toast.view(), "Replaced 2")
}

func TestApp_ReadOnlyIgnoresTyping(t *testing.T) {
	m, _ := createTestModel(t)
	m = typeText(m, "keep")

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.False(t, m.sess.Editable())
	m = typeText(m, "!")

	require.Equal(t, "keep", m.sess.Text())
	require.Equal(t, "keep", m.editor.Value())
	assert.Contains(t, m.View(), "read-only")

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlE})
	m = typeText(m, "!")
	require.Equal(t, "keep!", m.sess.Text())
}

func TestApp_CopyPaste(t *testing.T) {
	clip := &clipboard.Memory{}
	m, _ := createTestModel(t, func(c *Config) { c.Clipboard = clip })
	m = typeText(m, "ab")

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}, Alt: true})
	got, err := clip.ReadAll()
	require.NoError(t, err)
	require.Equal(t, "ab", got)

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}, Alt: true})
	require.Equal(t, "abab", m.sess.Text())
	require.Equal(t, "abab", m.editor.Value())
}

func TestApp_NewDocumentClears(t *testing.T) {
	m, _ := createTestModel(t)
	m = typeText(m, "scratch")

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlN})

	require.Empty(t, m.sess.Text())
	require.Empty(t, m.editor.Value())
	require.False(t, m.sess.CanUndo())
}

func TestApp_CompileWithoutMonitorFails(t *testing.T) {
	m, _ := createTestModel(t)
	m = typeText(m, "int x;")

	m = update(m, tea.KeyMsg{Type: tea.KeyF5})

	require.True(t, m.toast.visible())
	assert.Contains(t, m.output.View(), session.ErrNoCompiler.Error())
}

func TestApp_CompileUnsavedAsksForName(t *testing.T) {
	m, store := createTestModel(t, func(c *Config) {
		c.Monitor = compile.NewMonitor(c.Store, compile.WithConfig(compile.Config{
			InitialDelay: time.Hour,
			Interval:     time.Hour,
			MaxAttempts:  1,
		}))
	})
	m = typeText(m, "int main() {}")

	m = update(m, tea.KeyMsg{Type: tea.KeyF5})
	require.Equal(t, promptSaveCompile, m.prompt)
	m = typeText(m, "prog.c")
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	job := m.sess.Job()
	require.NotNil(t, job)
	require.Equal(t, "prog.txt", job.OutputName)
	assert.Contains(t, m.output.View(), "Compiling prog.c")

	req, err := store.Read(compile.RequestFile)
	require.NoError(t, err)
	require.Equal(t, "prog.c", req)
}

func TestApp_ChangesShowsPatch(t *testing.T) {
	m, _ := createTestModel(t)
	m = typeText(m, "new line")

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlD})

	assert.Contains(t, m.output.View(), "+new line")
}

func TestApp_FocusOutputStopsEditing(t *testing.T) {
	m, _ := createTestModel(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusOutput, m.focus)
	m = typeText(m, "ignored")
	require.Empty(t, m.sess.Text())

	m = update(m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusEditor, m.focus)
}

func TestApp_HelpToggle(t *testing.T) {
	m, _ := createTestModel(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyF1})
	require.True(t, m.showHelp)
	require.NotEmpty(t, m.help.View())

	m = update(m, tea.KeyMsg{Type: tea.KeyF1})
	require.False(t, m.showHelp)
}

func TestApp_LogOverlayOnlyInDebug(t *testing.T) {
	m, _ := createTestModel(t)
	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlX})
	require.False(t, m.showLogs)

	d, _ := createTestModel(t, func(c *Config) { c.Debug = true })
	d = update(d, pubsubLogEvent("first entry"))
	d = update(d, tea.KeyMsg{Type: tea.KeyCtrlX})
	require.True(t, d.showLogs)
	assert.Contains(t, d.output.View(), "first entry")
}

func TestApp_SessionEventRefreshesOutput(t *testing.T) {
	m, _ := createTestModel(t)

	m = update(m, sessionEvent(session.Update{Output: "✅ COMPILATION SUCCESSFUL:\nok"}))

	assert.Contains(t, m.output.View(), "COMPILATION SUCCESSFUL")
}

func TestApp_QuitKey(t *testing.T) {
	m, _ := createTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlQ})

	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestExecutor_RunsOnListen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := newExecutor(ctx)

	ran := 0
	e.run(func() { ran++ })
	e.run(func() { ran += 10 }) // dropped, one pass is already queued

	msg := e.listen()()
	rm, ok := msg.(runMsg)
	require.True(t, ok)
	rm.fn()
	require.Equal(t, 1, ran)

	cancel()
	require.Nil(t, e.listen()())
}

func TestPane_TakeOnce(t *testing.T) {
	p := &pane{}
	p.SetText("abc")

	text, ok := p.takeText()
	require.True(t, ok)
	require.Equal(t, "abc", text)
	_, ok = p.takeText()
	require.False(t, ok)

	spans := []highlight.Span{{Start: 0, End: 1, Category: highlight.Keyword}}
	p.Paint("abc", spans)
	_, got, ok := p.takePaint()
	require.True(t, ok)
	require.Equal(t, spans, got)
}

func TestToast_DismissMatchesSequence(t *testing.T) {
	var ts toast
	ts, _ = ts.show("first", toastInfo)
	first := ts.seq
	ts, _ = ts.show("second", toastSuccess)

	ts = ts.dismiss(first)
	require.True(t, ts.visible(), "stale timer must not hide newer toast")

	ts = ts.dismiss(ts.seq)
	require.False(t, ts.visible())
}

func TestApp_Program(t *testing.T) {
	store := storage.New(afero.NewMemMapFs(), "/codes")
	m := New(Config{Store: store, Theme: highlight.DefaultTheme(), ShowStatusBar: true})
	defer func() { _ = m.Close() }()

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))
	tm.Type("int x = 1;")
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlQ})
	tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))

	final, ok := tm.FinalModel(t).(Model)
	require.True(t, ok)
	require.Equal(t, "int x = 1;", final.sess.Text())
	require.Equal(t, session.Counters{Words: 4, Chars: 10, Lines: 1}, final.sess.Counts())
}

func TestApp_MouseFocusesOutput(t *testing.T) {
	m, _ := createTestModel(t)
	_ = m.View()

	// Clicks outside any zone leave focus alone.
	m = update(m, tea.MouseMsg{X: -1, Y: -1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.Equal(t, focusEditor, m.focus)
}
