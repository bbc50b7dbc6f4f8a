package calendar

import (
	"context"
	"time"

	"smartscheduler/internal/domain"
	"smartscheduler/internal/store"
)

// Local serves calendars persisted in the scheduler's own database.
type Local struct {
	repo store.EventRepository
}

func NewLocal(repo store.EventRepository) *Local {
	return &Local{repo: repo}
}

func (l *Local) BusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error) {
	events, err := l.repo.List(ctx, calendarID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	return Intervals(events), nil
}

func (l *Local) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
	return l.repo.List(ctx, calendarID, start.UTC(), end.UTC())
}

func (l *Local) CreateEvent(ctx context.Context, calendarID string, in EventInput) (domain.Event, error) {
	return l.repo.Create(ctx, domain.Event{
		ID:         in.ID,
		CalendarID: calendarID,
		Title:      in.Title,
		Notes:      in.Notes,
		Attendees:  in.Attendees,
		StartTime:  in.Start.UTC(),
		EndTime:    in.End.UTC(),
	})
}

func (l *Local) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return l.repo.Delete(ctx, calendarID, eventID)
}
