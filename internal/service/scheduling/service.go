// Package scheduling is the orchestration core: it validates requests,
// fetches busy time from a calendar backend, runs the availability engine and
// books the result.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartscheduler/internal/availability"
	"smartscheduler/internal/calendar"
	"smartscheduler/internal/domain"
	"smartscheduler/internal/observe"
	"smartscheduler/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ErrNoSlots means the window has no free slot of the requested length.
var ErrNoSlots = errors.New("no free slots")

const (
	// MaxWindow bounds a single slot search or listing.
	MaxWindow = 31 * 24 * time.Hour
	// MaxEventLength bounds a single event.
	MaxEventLength = 24 * time.Hour

	maxTitleLength     = 256
	maxIdempotencyKey  = 256
	maxBookingAttempts = 3
)

// MinutesToDuration converts a caller-supplied minute count. Counts past
// limit are rejected before the multiplication can overflow.
func MinutesToDuration(field string, minutes int64, limit time.Duration) (time.Duration, error) {
	if minutes < 0 {
		return 0, validationError(field + " must be positive")
	}
	if minutes > int64(limit/time.Minute) {
		return 0, validationError(field + " too long")
	}
	return time.Duration(minutes) * time.Minute, nil
}

type Service struct {
	calendar calendar.Service
	engine   availability.Engine
	now      func() time.Time
	metrics  *observe.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithEngine(e availability.Engine) Option {
	return func(s *Service) { s.engine = e }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(cal calendar.Service, opts ...Option) *Service {
	s := &Service{
		calendar: cal,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "scheduling"))
	return s
}

func (s *Service) Now() time.Time {
	return s.now().UTC()
}

type FindSlotsInput struct {
	CalendarID  string
	WindowStart time.Time
	WindowEnd   time.Time
	Duration    time.Duration
	// Step overrides the engine's scan granularity when positive.
	Step time.Duration
}

func (in FindSlotsInput) validate() (domain.SearchWindow, error) {
	if strings.TrimSpace(in.CalendarID) == "" {
		return domain.SearchWindow{}, validationError("calendar_id is required")
	}
	w := domain.SearchWindow{
		Start:    in.WindowStart.UTC(),
		End:      in.WindowEnd.UTC(),
		Duration: in.Duration,
		Step:     in.Step,
	}
	if w.Duration <= 0 {
		return domain.SearchWindow{}, validationError("duration must be positive")
	}
	if w.Duration > MaxEventLength {
		return domain.SearchWindow{}, validationError("duration too long")
	}
	if w.Step < 0 {
		return domain.SearchWindow{}, validationError("step must be positive")
	}
	if !w.End.After(w.Start) {
		return domain.SearchWindow{}, validationError("window_end must be after window_start")
	}
	if w.End.Sub(w.Start) > MaxWindow {
		return domain.SearchWindow{}, validationError("window too long")
	}
	return w, nil
}

// FindSlots returns the free slots of the requested length inside the
// window, earliest first. An empty result is not an error. Calendar failures
// are returned as is and never read as "no busy time".
func (s *Service) FindSlots(ctx context.Context, in FindSlotsInput) ([]domain.TimeInterval, error) {
	w, err := in.validate()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	slots, err := s.findSlots(ctx, in.CalendarID, w)
	s.metrics.RecordSlotSearch(ctx, observe.Status(err), len(slots), time.Since(started))
	return slots, err
}

func (s *Service) findSlots(ctx context.Context, calendarID string, w domain.SearchWindow) ([]domain.TimeInterval, error) {
	busy, err := s.calendar.BusyIntervals(ctx, calendarID, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("fetch busy intervals: %w", err)
	}
	busy = availability.ClipToWindow(busy, w.Interval())

	engine := s.engine
	if w.Step > 0 {
		engine = availability.NewEngine(w.Step)
	}
	return engine.FreeSlots(w.Interval(), w.Duration, busy)
}

type BookInput struct {
	CalendarID     string
	WindowStart    time.Time
	WindowEnd      time.Time
	Duration       time.Duration
	Title          string
	Notes          string
	Attendees      []string
	IdempotencyKey string
}

// Book creates an event in the first free slot of the window. A slot lost to
// a concurrent writer is skipped in favor of the next one. Replaying a
// booking with the same idempotency key returns the event it created.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Event, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return domain.Event{}, err
	}
	w, err := FindSlotsInput{
		CalendarID:  in.CalendarID,
		WindowStart: in.WindowStart,
		WindowEnd:   in.WindowEnd,
		Duration:    in.Duration,
	}.validate()
	if err != nil {
		return domain.Event{}, err
	}
	id, err := idempotentID("book", in.CalendarID, in.IdempotencyKey)
	if err != nil {
		return domain.Event{}, err
	}

	if id != "" {
		existing, found, err := s.findEvent(ctx, in.CalendarID, w.Interval(), id)
		if err != nil {
			return domain.Event{}, err
		}
		if found {
			return existing, nil
		}
	}

	slots, err := s.FindSlots(ctx, FindSlotsInput{
		CalendarID:  in.CalendarID,
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Duration:    w.Duration,
	})
	if err != nil {
		return domain.Event{}, err
	}
	if len(slots) == 0 {
		return domain.Event{}, ErrNoSlots
	}

	for i, slot := range slots {
		if i == maxBookingAttempts {
			break
		}
		ev, err := s.calendar.CreateEvent(ctx, in.CalendarID, calendar.EventInput{
			ID:        id,
			Title:     title,
			Notes:     in.Notes,
			Attendees: cleanAttendees(in.Attendees),
			Start:     slot.Start,
			End:       slot.End,
		})
		if errors.Is(err, store.ErrConflict) {
			s.logger.Info("slot taken, trying next",
				slog.String("calendar_id", in.CalendarID),
				slog.Time("start", slot.Start),
			)
			continue
		}
		if err != nil {
			return domain.Event{}, err
		}
		return ev, nil
	}
	return domain.Event{}, ErrNoSlots
}

type CreateEventInput struct {
	CalendarID     string
	Title          string
	Notes          string
	Attendees      []string
	StartTime      time.Time
	EndTime        time.Time
	IdempotencyKey string
}

// CreateEvent books an explicit time range. It fails with store.ErrConflict
// when the range overlaps an existing event.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return domain.Event{}, err
	}
	if strings.TrimSpace(in.CalendarID) == "" {
		return domain.Event{}, validationError("calendar_id is required")
	}

	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if !end.After(start) {
		return domain.Event{}, validationError("end_time must be after start_time")
	}
	if end.Sub(start) > MaxEventLength {
		return domain.Event{}, validationError("duration too long")
	}

	id, err := idempotentID("create_event", in.CalendarID, in.IdempotencyKey)
	if err != nil {
		return domain.Event{}, err
	}

	return s.calendar.CreateEvent(ctx, in.CalendarID, calendar.EventInput{
		ID:        id,
		Title:     title,
		Notes:     in.Notes,
		Attendees: cleanAttendees(in.Attendees),
		Start:     start,
		End:       end,
	})
}

func (s *Service) ListEvents(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, validationError("calendar_id is required")
	}

	start := windowStart.UTC()
	end := windowEnd.UTC()
	if !end.After(start) {
		return nil, validationError("window_end must be after window_start")
	}
	if end.Sub(start) > MaxWindow {
		return nil, validationError("window too long")
	}

	return s.calendar.ListEvents(ctx, calendarID, start, end)
}

func (s *Service) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if strings.TrimSpace(calendarID) == "" {
		return validationError("calendar_id is required")
	}
	if strings.TrimSpace(eventID) == "" {
		return validationError("event_id is required")
	}
	return s.calendar.DeleteEvent(ctx, calendarID, eventID)
}

// CancelAt deletes every timed event in [from, to) that starts at
// hour:minute UTC and returns the deleted events. All-day events never match. Events that vanish between the listing and
// the delete are skipped.
func (s *Service) CancelAt(ctx context.Context, calendarID string, from, to time.Time, hour, minute int) ([]domain.Event, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, validationError("invalid time of day")
	}
	events, err := s.ListEvents(ctx, calendarID, from, to)
	if err != nil {
		return nil, err
	}

	cancelled := make([]domain.Event, 0, 1)
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		start := ev.StartTime.UTC()
		if start.Hour() != hour || start.Minute() != minute {
			continue
		}
		err := s.calendar.DeleteEvent(ctx, calendarID, ev.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return cancelled, fmt.Errorf("delete event %s: %w", ev.ID, err)
		}
		s.logger.Info("event cancelled", slog.String("calendar_id", calendarID), slog.String("event_id", ev.ID))
		cancelled = append(cancelled, ev)
	}
	return cancelled, nil
}

func (s *Service) findEvent(ctx context.Context, calendarID string, window domain.TimeInterval, id string) (domain.Event, bool, error) {
	events, err := s.calendar.ListEvents(ctx, calendarID, window.Start, window.End)
	if err != nil {
		return domain.Event{}, false, err
	}
	want := compactID(id)
	for _, ev := range events {
		if compactID(ev.ID) == want {
			return ev, true, nil
		}
	}
	return domain.Event{}, false, nil
}

// compactID folds the dashed and undashed spellings of an id together;
// some backends strip the dashes.
func compactID(id string) string {
	return strings.ReplaceAll(strings.ToLower(id), "-", "")
}

func idempotentID(op, calendarID, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil
	}
	if len(key) > maxIdempotencyKey {
		return "", validationError("idempotency_key too long")
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("smartscheduler:"+op+":"+calendarID+":"+key)).String(), nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", validationError("title is required")
	}
	if len(title) > maxTitleLength {
		return "", validationError("title too long")
	}
	return title, nil
}

func cleanAttendees(in []string) []string {
	var out []string
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
