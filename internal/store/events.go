package store

import (
	"context"
	"time"

	"smartscheduler/internal/domain"
)

// EventRepository is the persistence contract of the local calendar backend.
type EventRepository interface {
	Create(ctx context.Context, ev domain.Event) (domain.Event, error)
	List(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error)
	Delete(ctx context.Context, calendarID, eventID string) error
}

// CalendarTx is the set of operations available inside a per-calendar
// transaction. Implementations serialize writers on the same calendar.
type CalendarTx interface {
	CreateEvent(ctx context.Context, ev domain.Event) (domain.Event, error)
	ListEvents(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
