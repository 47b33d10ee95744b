package log

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/codepad/internal/pubsub"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2026, 1, 2, 10, 45, 0, 0, time.UTC)

	got := Format(ts, LevelWarn, CatRules, "fallback", "language", "C", "orphan")
	require.Equal(t, "2026-01-02T10:45:00 [WARN] [rules] fallback language=C orphan=<missing>\n", got)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelInfo, ParseLevel("INFO"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel(" error "))
	require.Equal(t, LevelDebug, ParseLevel("whatever"))
}

func TestWriterAndLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(func() { install(nil) })

	Debug(CatSession, "opened", "file", "main.c")
	SetMinLevel(LevelWarn)
	Info(CatSession, "hidden")
	ErrorErr(CatStorage, "save failed", errors.New("disk full"))

	out := buf.String()
	require.Contains(t, out, "[DEBUG] [session] opened file=main.c")
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[ERROR] [storage] save failed error=disk full")

	SetEnabled(false)
	Error(CatStorage, "muted")
	require.NotContains(t, buf.String(), "muted")
}

func TestListenerReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(func() { install(nil) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener(ctx)
	require.NotNil(t, l)

	Warn(CatCompile, "timed out", "file", "main.c")

	event, ok := l.Listen()().(pubsub.Event[string])
	require.True(t, ok)
	require.Equal(t, pubsub.LogEvent, event.Type)
	require.Contains(t, event.Payload, "timed out file=main.c")
}

func TestUninitializedIsSilent(t *testing.T) {
	install(nil)
	require.NotPanics(t, func() { Error(CatUI, "nobody listening") })
	require.Nil(t, NewListener(context.Background()))
}
