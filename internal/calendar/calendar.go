// Package calendar defines the Calendar Service contract the scheduler talks
// to and the decorators shared by every backend.
package calendar

import (
	"context"
	"errors"
	"time"

	"smartscheduler/internal/domain"
)

// ErrUnavailable means the backend could not be reached or is being shed by
// a circuit breaker. It is never reported as "no busy time".
var ErrUnavailable = errors.New("calendar unavailable")

// EventInput describes an event to create. A non-empty ID makes the create
// idempotent: replaying the same input returns the existing event.
type EventInput struct {
	ID        string
	Title     string
	Notes     string
	Attendees []string
	Start     time.Time
	End       time.Time
}

func (in EventInput) Interval() domain.TimeInterval {
	return domain.TimeInterval{Start: in.Start.UTC(), End: in.End.UTC()}
}

// Service is implemented by every calendar backend. Busy intervals and
// events are returned in UTC. Backends report missing events as
// store.ErrNotFound and overlapping writes as store.ErrConflict.
type Service interface {
	BusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error)
	ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error)
	CreateEvent(ctx context.Context, calendarID string, in EventInput) (domain.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Intervals projects events onto their time ranges.
func Intervals(events []domain.Event) []domain.TimeInterval {
	out := make([]domain.TimeInterval, 0, len(events))
	for _, e := range events {
		out = append(out, e.Interval())
	}
	return out
}
