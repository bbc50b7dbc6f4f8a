package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartscheduler/internal/domain"
	"smartscheduler/internal/resilience"
	"smartscheduler/internal/store"
)

// Guarded sheds calls to a failing backend. Every backend failure comes back
// as ErrUnavailable, and while the breaker is open calls fail fast with it.
type Guarded struct {
	next      Service
	breaker   *resilience.Breaker
	isFailure func(error) bool
}

func NewGuarded(next Service, cfg resilience.Config) *Guarded {
	if cfg.IsFailure == nil {
		cfg.IsFailure = isBackendFailure
	}
	return &Guarded{next: next, breaker: resilience.NewBreaker(cfg), isFailure: cfg.IsFailure}
}

// Caller mistakes and cancellation say nothing about backend health.
func isBackendFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrIdempotencyConflict):
		return false
	}
	return true
}

// do keeps deadlines distinct so callers can still report a timeout.
func (g *Guarded) do(fn func() error) error {
	err := g.breaker.Do(fn)
	switch {
	case err == nil, errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, resilience.ErrOpen):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded), !g.isFailure(err):
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func (g *Guarded) BusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error) {
	var out []domain.TimeInterval
	err := g.do(func() error {
		var err error
		out, err = g.next.BusyIntervals(ctx, calendarID, start, end)
		return err
	})
	return out, err
}

func (g *Guarded) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
	var out []domain.Event
	err := g.do(func() error {
		var err error
		out, err = g.next.ListEvents(ctx, calendarID, start, end)
		return err
	})
	return out, err
}

func (g *Guarded) CreateEvent(ctx context.Context, calendarID string, in EventInput) (domain.Event, error) {
	var out domain.Event
	err := g.do(func() error {
		var err error
		out, err = g.next.CreateEvent(ctx, calendarID, in)
		return err
	})
	return out, err
}

func (g *Guarded) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return g.do(func() error {
		return g.next.DeleteEvent(ctx, calendarID, eventID)
	})
}
