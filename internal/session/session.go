// Package session owns one open document: its text, language, rule set, edit
// history and highlight state. A UI drives it through TextChanged and the
// command methods and receives paints through a Display.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/codepad/internal/clipboard"
	"github.com/zjrosen/codepad/internal/compile"
	"github.com/zjrosen/codepad/internal/highlight"
	"github.com/zjrosen/codepad/internal/history"
	"github.com/zjrosen/codepad/internal/log"
	"github.com/zjrosen/codepad/internal/pubsub"
	"github.com/zjrosen/codepad/internal/rules"
	"github.com/zjrosen/codepad/internal/scheduler"
	"github.com/zjrosen/codepad/internal/storage"
	"github.com/zjrosen/codepad/internal/tracing"
)

// DefaultDebounce is the quiet period between the last edit and a highlight pass.
const DefaultDebounce = 100 * time.Millisecond

var (
	// ErrEmptyText rejects saving an empty document.
	ErrEmptyText = errors.New("text is empty")
	// ErrFilenameRequired means the document must be saved before compiling.
	ErrFilenameRequired = errors.New("file must be saved before compiling")
	// ErrReadOnly rejects edits while the document is locked.
	ErrReadOnly = errors.New("document is read-only")
	// ErrNoStore means no document store is configured.
	ErrNoStore = errors.New("no document store configured")
	// ErrNoCompiler means no compile monitor is configured.
	ErrNoCompiler = errors.New("no compile monitor configured")
)

// HighlightState guards against the paint of a pass being taken for an edit.
type HighlightState int

const (
	Idle HighlightState = iota
	Highlighting
)

func (s HighlightState) String() string {
	if s == Highlighting {
		return "highlighting"
	}
	return "idle"
}

// Display is the view a session paints into. Both methods may synchronously
// call back into TextChanged with the text they were given.
type Display interface {
	// Paint shows text with spans applied. The text is unchanged.
	Paint(text string, spans []highlight.Span)
	// SetText replaces the shown text after undo, redo, open or replace.
	SetText(text string)
}

// Update is the payload of every session event.
type Update struct {
	Language string
	Filename string
	Counts   Counters
	Modified bool
	Spans    []highlight.Span
	Output   string
	Job      *compile.Job
}

// Option configures a Session.
type Option func(*Session)

// WithDisplay sets the view to paint into.
func WithDisplay(d Display) Option {
	return func(s *Session) { s.display = d }
}

// WithRules sets the rule set store. The default uses the embedded rules.
func WithRules(r *rules.Store) Option {
	return func(s *Session) { s.rules = r }
}

// WithStore sets the document store used by Open and Save.
func WithStore(st *storage.Store) Option {
	return func(s *Session) { s.store = st }
}

// WithClipboard sets the clipboard used by Copy and Paste.
func WithClipboard(c clipboard.Clipboard) Option {
	return func(s *Session) { s.clip = c }
}

// WithMonitor sets the compile monitor.
func WithMonitor(m *compile.Monitor) Option {
	return func(s *Session) { s.monitor = m }
}

// WithBroker publishes session events to b.
func WithBroker(b *pubsub.Broker[Update]) Option {
	return func(s *Session) { s.broker = b }
}

// WithDebounce sets the highlight quiet period. Zero highlights on every edit
// synchronously.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithHistoryDepth bounds the undo history.
func WithHistoryDepth(n int) Option {
	return func(s *Session) { s.history = history.New(n) }
}

// WithExecutor routes debounced highlight passes through run, so a UI can
// execute them on its own event loop.
func WithExecutor(run func(func())) Option {
	return func(s *Session) { s.exec = run }
}

// WithTracer records spans around highlight passes and file operations.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Session is one open document.
type Session struct {
	display   Display
	rules     *rules.Store
	store     *storage.Store
	clip      clipboard.Clipboard
	monitor   *compile.Monitor
	broker    *pubsub.Broker[Update]
	tracer    trace.Tracer
	exec      func(func())
	debounce  time.Duration
	debounced *scheduler.Debouncer

	mu        sync.Mutex
	text      string
	saved     string
	language  string
	filename  string
	ruleSet   rules.RuleSet
	hl        *highlight.Highlighter
	history   *history.History
	state     HighlightState
	painting  string // text handed to Display.Paint by the running pass
	replaying bool
	editable  bool
	counts    Counters
	spans     []highlight.Span
	output    string
	job       *compile.Job
}

// New creates an empty Text document.
func New(opts ...Option) *Session {
	s := &Session{
		tracer:   noop.NewTracerProvider().Tracer("session"),
		exec:     func(fn func()) { fn() },
		debounce: DefaultDebounce,
		history:  history.New(history.DefaultDepth),
		language: rules.Text,
		editable: true,
		counts:   Count(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rules == nil {
		s.rules = rules.NewStore()
	}
	if s.clip == nil {
		s.clip = &clipboard.Memory{}
	}
	s.setRulesLocked(rules.Text)
	if s.debounce > 0 {
		s.debounced = scheduler.NewDebouncer(s.debounce, func() { s.exec(s.Highlight) })
	}
	if s.monitor != nil {
		s.monitor.OnUpdate(s.onJobUpdate)
	}
	return s
}

// Close stops pending highlight passes and cancels this session's compile job.
func (s *Session) Close() {
	if s.debounced != nil {
		s.debounced.Stop()
	}
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()
	if job != nil {
		job.Cancel()
	}
}

// Text returns the current document text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Language returns the language tag.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// Filename returns the saved file name, "" when unsaved.
func (s *Session) Filename() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filename
}

// RuleSet returns the active rule set.
func (s *Session) RuleSet() rules.RuleSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ruleSet
}

// Counts returns the counters for the current text.
func (s *Session) Counts() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Spans returns the spans of the last highlight pass.
func (s *Session) Spans() []highlight.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spans
}

// State returns the highlight state.
func (s *Session) State() HighlightState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Output returns the compile output panel text.
func (s *Session) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

// Job returns the latest compile job, if any.
func (s *Session) Job() *compile.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Editable reports whether edits are accepted.
func (s *Session) Editable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editable
}

// SetEditable locks or unlocks the document.
func (s *Session) SetEditable(on bool) {
	s.mu.Lock()
	s.editable = on
	s.mu.Unlock()
	log.Debug(log.CatSession, "Edit mode changed", "editable", on)
}

// TextChanged is called by the display after every change to its text. A call
// carrying the text a running pass is painting is the paint's own echo and is
// ignored; any other text is a real edit, even mid-paint.
func (s *Session) TextChanged(newText string) {
	s.mu.Lock()
	if s.state == Highlighting && newText == s.painting {
		s.mu.Unlock()
		return
	}
	if newText == s.text {
		s.mu.Unlock()
		return
	}
	if !s.editable && !s.replaying {
		s.mu.Unlock()
		log.Debug(log.CatSession, "Edit ignored, document is read-only")
		return
	}
	if !s.replaying {
		s.history.Record(s.text)
	}
	s.text = newText
	s.counts = Count(newText)
	s.mu.Unlock()

	s.publish(pubsub.TextChangedEvent)
	s.schedule()
}

// Undo restores the previous snapshot. It reports false when there is none.
func (s *Session) Undo() bool {
	return s.replay("undo", s.history.Undo)
}

// Redo re-applies the last undone snapshot. It reports false when there is none.
func (s *Session) Redo() bool {
	return s.replay("redo", s.history.Redo)
}

func (s *Session) replay(op string, step func(string) (string, bool)) bool {
	s.mu.Lock()
	text, ok := step(s.text)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.replaying = true
	s.text = text
	s.counts = Count(text)
	display := s.display
	s.mu.Unlock()

	if display != nil {
		display.SetText(text)
	}

	s.mu.Lock()
	s.replaying = false
	s.mu.Unlock()

	log.Debug(log.CatHistory, "Replayed snapshot", "op", op, "bytes", len(text))
	s.publish(pubsub.TextChangedEvent)
	s.schedule()
	return true
}

// NewDocument discards the document: empty text, no history, Text language,
// no file name and no compile output. An in-flight compile is cancelled.
func (s *Session) NewDocument() {
	if s.debounced != nil {
		s.debounced.Cancel()
	}

	s.mu.Lock()
	job := s.job
	s.job = nil
	s.replaying = true
	s.text = ""
	s.saved = ""
	s.filename = ""
	s.output = ""
	s.spans = nil
	s.history.Clear()
	s.counts = Count("")
	s.setRulesLocked(rules.Text)
	display := s.display
	s.mu.Unlock()

	if job != nil {
		job.Cancel()
	}
	if display != nil {
		display.SetText("")
	}

	s.mu.Lock()
	s.replaying = false
	s.mu.Unlock()

	log.Info(log.CatSession, "New document")
	s.publish(pubsub.LanguageChangedEvent)
	s.publish(pubsub.TextChangedEvent)
}

// Open loads name from the document store and makes it the current document.
func (s *Session) Open(name string) error {
	if s.store == nil {
		return ErrNoStore
	}
	_, span := s.tracer.Start(context.Background(), tracing.SpanDocumentOpen,
		trace.WithAttributes(attribute.String(tracing.AttrFile, name)))
	defer span.End()

	content, err := s.store.Read(name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatSession, "Open failed", err, "file", name)
		return fmt.Errorf("open %s: %w", name, err)
	}

	base := baseName(name)
	lang := rules.LanguageFor(base)

	s.mu.Lock()
	prev := s.text
	switch {
	case prev != content:
		s.history.Record(prev)
	case !s.history.CanUndo():
		s.history.Record("")
	}
	s.replaying = true
	s.text = content
	s.saved = content
	s.filename = base
	s.counts = Count(content)
	s.setRulesLocked(lang)
	display := s.display
	s.mu.Unlock()

	if display != nil {
		display.SetText(content)
	}

	s.mu.Lock()
	s.replaying = false
	s.mu.Unlock()

	span.SetAttributes(attribute.String(tracing.AttrLanguage, lang), attribute.Int(tracing.AttrTextBytes, len(content)))
	log.Info(log.CatSession, "File opened", "file", base, "language", lang)
	s.publish(pubsub.LanguageChangedEvent)
	s.publish(pubsub.TextChangedEvent)
	s.Highlight()
	return nil
}

// Save writes the document as name. On failure nothing about the session
// changes.
func (s *Session) Save(name string) error {
	if s.store == nil {
		return ErrNoStore
	}
	name = strings.TrimSpace(name)

	s.mu.Lock()
	text := s.text
	s.mu.Unlock()

	if text == "" {
		return ErrEmptyText
	}

	_, span := s.tracer.Start(context.Background(), tracing.SpanDocumentSave,
		trace.WithAttributes(attribute.String(tracing.AttrFile, name)))
	defer span.End()

	if err := s.store.Write(name, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("save %s: %w", name, err)
	}

	lang := rules.LanguageFor(name)
	s.mu.Lock()
	changed := lang != s.language
	s.filename = name
	s.saved = text
	s.setRulesLocked(lang)
	s.mu.Unlock()

	log.Info(log.CatSession, "File saved", "file", name, "language", lang)
	if changed {
		s.publish(pubsub.LanguageChangedEvent)
	}
	s.Highlight()
	return nil
}

// Replace substitutes every literal occurrence of find with repl as a single
// undoable edit and returns the number of replacements.
func (s *Session) Replace(find, repl string) (int, error) {
	if find == "" {
		return 0, nil
	}

	s.mu.Lock()
	if !s.editable {
		s.mu.Unlock()
		return 0, ErrReadOnly
	}
	n := strings.Count(s.text, find)
	if n == 0 || find == repl {
		s.mu.Unlock()
		return n, nil
	}
	s.mu.Unlock()

	s.apply(strings.ReplaceAll(s.Text(), find, repl))
	log.Debug(log.CatSession, "Replaced text", "find", find, "count", n)
	return n, nil
}

// Copy puts the selection, given as rune offsets, on the clipboard. An empty
// selection copies the whole document.
func (s *Session) Copy(selStart, selEnd int) error {
	text := s.Text()
	start, end := selection(text, selStart, selEnd)
	if start == end {
		start, end = 0, len(text)
	}
	if err := s.clip.WriteAll(text[start:end]); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

// Paste replaces the selection, given as rune offsets, with the clipboard
// content.
func (s *Session) Paste(selStart, selEnd int) error {
	if !s.Editable() {
		return ErrReadOnly
	}
	clip, err := s.clip.ReadAll()
	if err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	if clip == "" {
		return nil
	}

	text := s.Text()
	start, end := selection(text, selStart, selEnd)
	s.apply(text[:start] + clip + text[end:])
	return nil
}

// apply makes newText the document as a user edit and shows it.
func (s *Session) apply(newText string) {
	s.TextChanged(newText)

	s.mu.Lock()
	display := s.display
	s.mu.Unlock()
	if display != nil {
		display.SetText(newText)
	}
}

// Highlight runs a pass now and paints the result. A pass requested while
// another is painting is dropped.
func (s *Session) Highlight() {
	s.mu.Lock()
	if s.state == Highlighting {
		s.mu.Unlock()
		log.Debug(log.CatHighlight, "Highlight pass already running, skipped")
		return
	}
	s.state = Highlighting
	text, hl, display := s.text, s.hl, s.display
	s.painting = text
	s.mu.Unlock()

	_, span := s.tracer.Start(context.Background(), tracing.SpanHighlightPass, trace.WithAttributes(
		attribute.String(tracing.AttrLanguage, hl.Language()),
		attribute.Int(tracing.AttrTextBytes, len(text)),
	))
	spans := hl.Highlight(text)
	span.SetAttributes(attribute.Int(tracing.AttrSpanCount, len(spans)))

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error(log.CatHighlight, "Paint failed", "panic", r)
			}
		}()
		if display != nil {
			display.Paint(text, spans)
			span.AddEvent(tracing.EventPainted)
		}
	}()
	span.End()

	s.mu.Lock()
	s.state = Idle
	s.painting = ""
	s.spans = spans
	stale := s.text != text
	s.mu.Unlock()

	s.publish(pubsub.HighlightedEvent)
	if stale {
		// An edit landed mid-paint and its own pass was dropped.
		s.schedule()
	}
}

// Flush runs a pending debounced highlight pass immediately.
func (s *Session) Flush() bool {
	if s.debounced == nil {
		return false
	}
	return s.debounced.Flush()
}

func (s *Session) schedule() {
	if s.debounced == nil {
		s.Highlight()
		return
	}
	s.debounced.Trigger()
}

// Compile submits the saved document to the compile agent, replacing any job
// still running. It returns ErrFilenameRequired for unsaved documents so the
// caller can ask for a name, Save and retry.
func (s *Session) Compile(ctx context.Context) (*compile.Job, error) {
	if s.monitor == nil {
		return nil, ErrNoCompiler
	}

	s.mu.Lock()
	text, name, lang := s.text, s.filename, s.language
	prev := s.job
	s.mu.Unlock()

	if text == "" {
		return nil, compile.ErrEmptySource
	}
	if name == "" {
		return nil, ErrFilenameRequired
	}
	if prev != nil {
		prev.Cancel()
	}

	job, err := s.monitor.Submit(ctx, compile.SourceFile{Name: name, Language: lang, Content: text})
	if err != nil {
		s.mu.Lock()
		s.output = "Error: " + err.Error()
		s.mu.Unlock()
		s.publish(pubsub.CompileEvent)
		return nil, err
	}

	s.mu.Lock()
	s.job = job
	s.output = fmt.Sprintf("🔄 Compiling %s...\nWaiting for compile agent response...", name)
	s.mu.Unlock()
	s.publish(pubsub.CompileEvent)

	// The job may have finished before it was stored above.
	s.onJobUpdate(job)
	return job, nil
}

// SaveAndCompile saves under name, then compiles.
func (s *Session) SaveAndCompile(ctx context.Context, name string) (*compile.Job, error) {
	if err := s.Save(name); err != nil {
		return nil, err
	}
	return s.Compile(ctx)
}

func (s *Session) onJobUpdate(job *compile.Job) {
	res, done := job.Result()
	if !done {
		return
	}

	s.mu.Lock()
	if s.job != job {
		s.mu.Unlock()
		return
	}
	if res.Status != compile.Cancelled {
		s.output = res.Report()
	}
	s.mu.Unlock()

	s.publish(pubsub.CompileEvent)
}

// Modified reports whether the text differs from the last open or save.
func (s *Session) Modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text != s.saved
}

// Changes returns a patch from the last opened or saved text to the current
// text, or "" when unmodified.
func (s *Session) Changes() string {
	s.mu.Lock()
	saved, text := s.saved, s.text
	s.mu.Unlock()

	if saved == text {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(saved, text, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(saved, diffs))
}

func (s *Session) setRulesLocked(lang string) {
	s.language = lang
	s.ruleSet = s.rules.Load(lang)
	s.hl = highlight.Compile(s.ruleSet)
}

func (s *Session) snapshot() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Update{
		Language: s.language,
		Filename: s.filename,
		Counts:   s.counts,
		Modified: s.text != s.saved,
		Spans:    s.spans,
		Output:   s.output,
		Job:      s.job,
	}
}

func (s *Session) publish(t pubsub.EventType) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(t, s.snapshot())
}

// selection converts rune offsets to ordered, clamped byte offsets.
func selection(text string, a, b int) (int, int) {
	if a > b {
		a, b = b, a
	}
	return byteOffset(text, a), byteOffset(text, b)
}

func byteOffset(text string, runes int) int {
	if runes <= 0 {
		return 0
	}
	n := 0
	for i := range text {
		if n == runes {
			return i
		}
		n++
	}
	return len(text)
}

// baseName strips any directory from a path opened from outside the code
// directory.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
