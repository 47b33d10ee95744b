package tracing

// Span names.
const (
	SpanHighlightPass = "highlight.pass"
	SpanCompileSubmit = "compile.submit"
	SpanCompileJob    = "compile.job"
	SpanDocumentOpen  = "document.open"
	SpanDocumentSave  = "document.save"
)

// Attribute keys.
const (
	AttrLanguage   = "doc.language"
	AttrFile       = "doc.file"
	AttrTextBytes  = "doc.bytes"
	AttrSpanCount  = "highlight.spans"
	AttrJobID      = "compile.job_id"
	AttrJobStatus  = "compile.status"
	AttrAttempts   = "compile.attempts"
	AttrOutputFile = "compile.output"
)

// Event names.
const (
	EventPollAttempt = "poll.attempt"
	EventNudged      = "poll.nudged"
	EventPainted     = "highlight.painted"
)
