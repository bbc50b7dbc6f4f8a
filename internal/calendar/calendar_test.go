package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartscheduler/internal/domain"
	"smartscheduler/internal/observe"
	"smartscheduler/internal/resilience"
	"smartscheduler/internal/store"
)

type fakeRepo struct {
	createFn func(ctx context.Context, ev domain.Event) (domain.Event, error)
	listFn   func(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error)
	deleteFn func(ctx context.Context, calendarID, eventID string) error
}

func (f *fakeRepo) Create(ctx context.Context, ev domain.Event) (domain.Event, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, ev)
}

func (f *fakeRepo) List(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error) {
	if f.listFn == nil {
		panic("List not configured")
	}
	return f.listFn(ctx, calendarID, windowStart, windowEnd)
}

func (f *fakeRepo) Delete(ctx context.Context, calendarID, eventID string) error {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, calendarID, eventID)
}

type fakeService struct {
	busyFn   func(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error)
	listFn   func(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error)
	createFn func(ctx context.Context, calendarID string, in EventInput) (domain.Event, error)
	deleteFn func(ctx context.Context, calendarID, eventID string) error
}

func (f *fakeService) BusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error) {
	if f.busyFn == nil {
		panic("BusyIntervals not configured")
	}
	return f.busyFn(ctx, calendarID, start, end)
}

func (f *fakeService) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
	if f.listFn == nil {
		panic("ListEvents not configured")
	}
	return f.listFn(ctx, calendarID, start, end)
}

func (f *fakeService) CreateEvent(ctx context.Context, calendarID string, in EventInput) (domain.Event, error) {
	if f.createFn == nil {
		panic("CreateEvent not configured")
	}
	return f.createFn(ctx, calendarID, in)
}

func (f *fakeService) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if f.deleteFn == nil {
		panic("DeleteEvent not configured")
	}
	return f.deleteFn(ctx, calendarID, eventID)
}

var base = time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC)

func TestLocal_BusyIntervalsProjectsEventsInUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	var gotStart, gotEnd time.Time
	l := NewLocal(&fakeRepo{
		listFn: func(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error) {
			if calendarID != "primary" {
				t.Fatalf("calendarID = %q, want primary", calendarID)
			}
			gotStart, gotEnd = windowStart, windowEnd
			return []domain.Event{
				{ID: "a", StartTime: base.Add(time.Hour).In(loc), EndTime: base.Add(2 * time.Hour).In(loc)},
			}, nil
		},
	})

	busy, err := l.BusyIntervals(context.Background(), "primary", base.In(loc), base.Add(8*time.Hour).In(loc))
	if err != nil {
		t.Fatalf("BusyIntervals error: %v", err)
	}
	if gotStart.Location() != time.UTC || gotEnd.Location() != time.UTC {
		t.Fatalf("window not normalized: %v %v", gotStart, gotEnd)
	}
	want := domain.TimeInterval{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}
	if len(busy) != 1 || busy[0] != want {
		t.Fatalf("busy = %v, want [%v]", busy, want)
	}
}

func TestLocal_CreateEventMapsInput(t *testing.T) {
	l := NewLocal(&fakeRepo{
		createFn: func(ctx context.Context, ev domain.Event) (domain.Event, error) {
			if ev.ID != "k1" || ev.CalendarID != "primary" || ev.Title != "sync" {
				t.Fatalf("unexpected event %+v", ev)
			}
			if len(ev.Attendees) != 1 || ev.Attendees[0] != "a@example.com" {
				t.Fatalf("attendees = %v", ev.Attendees)
			}
			return ev, nil
		},
	})
	_, err := l.CreateEvent(context.Background(), "primary", EventInput{
		ID:        "k1",
		Title:     "sync",
		Attendees: []string{"a@example.com"},
		Start:     base,
		End:       base.Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateEvent error: %v", err)
	}
}

func TestLocal_PropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	l := NewLocal(&fakeRepo{
		listFn: func(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error) {
			return nil, boom
		},
		deleteFn: func(ctx context.Context, calendarID, eventID string) error {
			return store.ErrNotFound
		},
	})
	if _, err := l.BusyIntervals(context.Background(), "primary", base, base.Add(time.Hour)); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if err := l.DeleteEvent(context.Background(), "primary", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGuarded_OpensOnBackendFailuresOnly(t *testing.T) {
	boom := errors.New("backend down")
	calls := 0
	g := NewGuarded(&fakeService{
		busyFn: func(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error) {
			calls++
			return nil, boom
		},
		deleteFn: func(ctx context.Context, calendarID, eventID string) error {
			return store.ErrNotFound
		},
	}, resilience.Config{Name: "calendar", MaxFailures: 2, ResetTimeout: time.Hour})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := g.DeleteEvent(ctx, "primary", "x"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}

	for i := 0; i < 2; i++ {
		_, err := g.BusyIntervals(ctx, "primary", base, base.Add(time.Hour))
		if !errors.Is(err, boom) || !errors.Is(err, ErrUnavailable) {
			t.Fatalf("err = %v, want %v wrapped as ErrUnavailable", err, boom)
		}
	}
	_, err := g.BusyIntervals(ctx, "primary", base, base.Add(time.Hour))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if calls != 2 {
		t.Fatalf("backend calls = %d, want 2", calls)
	}
}

func TestGuarded_FirstFailureIsUnavailable(t *testing.T) {
	refused := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	g := NewGuarded(&fakeService{
		listFn: func(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
			return nil, refused
		},
		createFn: func(ctx context.Context, calendarID string, in EventInput) (domain.Event, error) {
			return domain.Event{}, store.ErrConflict
		},
		deleteFn: func(ctx context.Context, calendarID, eventID string) error {
			return context.DeadlineExceeded
		},
	}, resilience.Config{Name: "calendar", MaxFailures: 5, ResetTimeout: time.Hour})
	ctx := context.Background()

	if _, err := g.ListEvents(ctx, "primary", base, base.Add(time.Hour)); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ListEvents err = %v, want ErrUnavailable on the first failure", err)
	}
	_, err := g.CreateEvent(ctx, "primary", EventInput{Title: "x", Start: base, End: base.Add(time.Hour)})
	if !errors.Is(err, store.ErrConflict) || errors.Is(err, ErrUnavailable) {
		t.Fatalf("CreateEvent err = %v, want plain ErrConflict", err)
	}
	err = g.DeleteEvent(ctx, "primary", "x")
	if !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrUnavailable) {
		t.Fatalf("DeleteEvent err = %v, want plain deadline", err)
	}
}

func TestInstrumented_PassesThrough(t *testing.T) {
	want := []domain.Event{{ID: "a", StartTime: base, EndTime: base.Add(time.Hour)}}
	i := NewInstrumented(&fakeService{
		listFn: func(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
			return want, nil
		},
	}, "local", (*observe.Metrics)(nil))

	got, err := i.ListEvents(context.Background(), "primary", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("events = %v", got)
	}
}
