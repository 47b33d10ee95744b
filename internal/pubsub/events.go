// Package pubsub fans session, compile and log events out to any number of listeners.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened.
type EventType string

const (
	TextChangedEvent     EventType = "text_changed"
	LanguageChangedEvent EventType = "language_changed"
	HighlightedEvent     EventType = "highlighted"
	CompileEvent         EventType = "compile"
	LogEvent             EventType = "log"
)

// Event is a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
