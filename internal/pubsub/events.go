// Package pubsub fans events out from one producer (the logger, the file
// watcher) to any number of listeners, including the Bubble Tea loop.
package pubsub

import (
	"context"
	"time"
)

// EventType tags what happened.
type EventType string

const (
	// EntryEvent carries a freshly written log entry.
	EntryEvent EventType = "entry"
	// ChangedEvent signals that a watched file was written.
	ChangedEvent EventType = "changed"
	// RemovedEvent signals that a watched file was removed or renamed away.
	RemovedEvent EventType = "removed"
)

// Event is a published payload stamped with its type and publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out subscription channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes payloads.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
