// Package journal
package journal

import (
	"context"
	"time"
)

// Event types recorded by the scanner and executor.
const (
	EventSignal   = "signal"
	EventOrder    = "order"
	EventDegraded = "degraded" // fallback balance/price was substituted
	EventError    = "error"
)

// Event represents a journaled event.
type Event struct {
	Time        time.Time
	Type        string
	Description string
	Data        map[string]any
}

// Journaler interface for journaling events.
type Journaler interface {
	LogEvent(ctx context.Context, event Event) error
	GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]Event, error)
}
