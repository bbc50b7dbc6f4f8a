package calendar

import (
	"context"
	"time"

	"smartscheduler/internal/domain"
	"smartscheduler/internal/observe"
)

type Instrumented struct {
	next    Service
	backend string
	metrics *observe.Metrics
}

func NewInstrumented(next Service, backend string, metrics *observe.Metrics) *Instrumented {
	return &Instrumented{next: next, backend: backend, metrics: metrics}
}

func (i *Instrumented) record(ctx context.Context, op string, start time.Time, err error) {
	i.metrics.RecordCalendarOperation(ctx, i.backend, op, observe.Status(err), time.Since(start))
}

func (i *Instrumented) BusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error) {
	t := time.Now()
	out, err := i.next.BusyIntervals(ctx, calendarID, start, end)
	i.record(ctx, "busy", t, err)
	return out, err
}

func (i *Instrumented) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
	t := time.Now()
	out, err := i.next.ListEvents(ctx, calendarID, start, end)
	i.record(ctx, "list", t, err)
	return out, err
}

func (i *Instrumented) CreateEvent(ctx context.Context, calendarID string, in EventInput) (domain.Event, error) {
	t := time.Now()
	out, err := i.next.CreateEvent(ctx, calendarID, in)
	i.record(ctx, "create", t, err)
	return out, err
}

func (i *Instrumented) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	t := time.Now()
	err := i.next.DeleteEvent(ctx, calendarID, eventID)
	i.record(ctx, "delete", t, err)
	return err
}
