// Package assistant runs one conversational turn at a time: it classifies
// the utterance, updates the scheduling state and answers.
//
// Turns are pure with respect to the conversation: the caller passes the
// current State in and keeps the State that comes back. Nothing is shared
// between turns.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smartscheduler/internal/calendar"
	"smartscheduler/internal/domain"
	"smartscheduler/internal/intent"
	"smartscheduler/internal/observe"
	"smartscheduler/internal/service/scheduling"
)

const (
	DefaultDuration      = 30 * time.Minute
	DefaultCancelHorizon = 7 * 24 * time.Hour

	suggestedSlots = 2
)

// Scheduler is the part of the scheduling service a conversation needs.
type Scheduler interface {
	FindSlots(ctx context.Context, in scheduling.FindSlotsInput) ([]domain.TimeInterval, error)
	Book(ctx context.Context, in scheduling.BookInput) (domain.Event, error)
	ListEvents(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error)
	CancelAt(ctx context.Context, calendarID string, from, to time.Time, hour, minute int) ([]domain.Event, error)
}

type Input struct {
	Text string
	// IdempotencyKey makes a booking turn safe to retry.
	IdempotencyKey string
}

// Outcome is the result of one turn. State is the conversation to carry
// into the next turn.
type Outcome struct {
	State     State                 `json:"state"`
	Action    domain.Action         `json:"action"`
	Reply     string                `json:"reply"`
	Slots     []domain.TimeInterval `json:"slots,omitempty"`
	Events    []domain.Event        `json:"events,omitempty"`
	Created   *domain.Event         `json:"created,omitempty"`
	Cancelled []domain.Event        `json:"cancelled,omitempty"`
	// Done is set when the user ended the conversation.
	Done bool `json:"done,omitempty"`
}

type Config struct {
	CalendarID    string
	WorkHours     WorkHours
	CancelHorizon time.Duration
}

type Assistant struct {
	scheduler Scheduler
	extractor intent.Extractor
	phraser   Phraser
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger
	metrics   *observe.Metrics
}

type Option func(*Assistant)

func WithPhraser(p Phraser) Option {
	return func(a *Assistant) { a.phraser = p }
}

func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

func WithMetrics(m *observe.Metrics) Option {
	return func(a *Assistant) { a.metrics = m }
}

func New(scheduler Scheduler, extractor intent.Extractor, cfg Config, opts ...Option) *Assistant {
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.WorkHours == (WorkHours{}) {
		cfg.WorkHours = DefaultWorkHours
	}
	if cfg.CancelHorizon <= 0 {
		cfg.CancelHorizon = DefaultCancelHorizon
	}
	a := &Assistant{
		scheduler: scheduler,
		extractor: extractor,
		cfg:       cfg,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(slog.String("component", "assistant"))
	return a
}

// Turn handles one utterance. Failures the user can act on (no slots, an
// unknown day, an unreachable calendar) come back as a reply; the error is
// reserved for cancellation and unexpected backend failures.
func (a *Assistant) Turn(ctx context.Context, state State, in Input) (Outcome, error) {
	text := strings.TrimSpace(in.Text)
	action := intent.DetectAction(text)

	var (
		out Outcome
		err error
	)
	switch {
	case text == "":
		out = Outcome{State: state.clone(), Reply: "Sorry, I didn't catch that. Could you say it again?"}
	case action == domain.ActionExit:
		out = Outcome{State: State{}, Reply: "Goodbye!", Done: true}
	case action == domain.ActionListToday:
		out, err = a.listToday(ctx, state)
	case action == domain.ActionCancel:
		out, err = a.cancel(ctx, state, text)
	case action == domain.ActionFreeSlots:
		out, err = a.freeSlots(ctx, state, text)
	default:
		out, err = a.schedule(ctx, state, in)
	}
	if err != nil {
		return Outcome{}, err
	}
	if out.Action == domain.ActionUnknown {
		out.Action = action
	}
	a.metrics.RecordAssistantTurn(ctx, string(out.Action))

	out.Reply = a.phrase(ctx, text, out)
	return out, nil
}

func (a *Assistant) today() time.Time {
	now := a.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (a *Assistant) listToday(ctx context.Context, state State) (Outcome, error) {
	start := a.today()
	events, err := a.scheduler.ListEvents(ctx, a.cfg.CalendarID, start, start.AddDate(0, 0, 1))
	if reply, handled := a.unavailable(err); handled {
		return Outcome{State: state.clone(), Reply: reply}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("list today's events: %w", err)
	}

	out := Outcome{State: state.clone(), Events: events}
	if len(events) == 0 {
		out.Reply = "You have no meetings today."
		return out, nil
	}
	items := make([]string, 0, len(events))
	for _, ev := range events {
		items = append(items, fmt.Sprintf("%s at %s", ev.Title, FormatSlot(ev.Interval())))
	}
	out.Reply = fmt.Sprintf("You have %s today: %s.", plural(len(events), "meeting"), joinWords(items))
	return out, nil
}

func (a *Assistant) cancel(ctx context.Context, state State, text string) (Outcome, error) {
	h, m, ok := intent.ParseClock(text)
	if !ok {
		return Outcome{
			State: state.clone(),
			Reply: "Which meeting should I cancel? Tell me when it starts, like 3 PM.",
		}, nil
	}

	from := a.today()
	to := a.now().UTC().Add(a.cfg.CancelHorizon)
	cancelled, err := a.scheduler.CancelAt(ctx, a.cfg.CalendarID, from, to, h, m)
	if reply, handled := a.unavailable(err); handled {
		return Outcome{State: state.clone(), Reply: reply}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("cancel meetings: %w", err)
	}

	clock := time.Date(2000, 1, 1, h, m, 0, 0, time.UTC).Format(clockLayout)
	out := Outcome{State: state.clone(), Cancelled: cancelled}
	if len(cancelled) == 0 {
		out.Reply = fmt.Sprintf("I couldn't find a meeting at %s in the next week.", clock)
		return out, nil
	}
	items := make([]string, 0, len(cancelled))
	for _, ev := range cancelled {
		items = append(items, fmt.Sprintf("%s on %s", ev.Title, formatDay(ev.StartTime)))
	}
	out.Reply = fmt.Sprintf("Cancelled %s at %s.", joinWords(items), clock)
	return out, nil
}

func (a *Assistant) freeSlots(ctx context.Context, state State, text string) (Outcome, error) {
	got, err := a.extract(ctx, text)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{State: state.clone()}
	day, ok := intent.ResolveDay(a.now(), got.Day)
	if !got.Has(domain.FieldDay) || !ok {
		out.Reply = "Please specify a day, like Thursday."
		return out, nil
	}
	duration := DefaultDuration
	if got.Has(domain.FieldDuration) {
		d, err := scheduling.MinutesToDuration("duration", int64(*got.DurationMinutes), scheduling.MaxEventLength)
		if err != nil {
			out.Reply = fmt.Sprintf("I can't search that: %s.", err.Error())
			return out, nil
		}
		duration = d
	}
	pref := got.Time
	if pref == "" {
		pref = state.Time
	}

	window := SearchWindow(day, pref, duration, a.cfg.WorkHours)
	slots, err := a.scheduler.FindSlots(ctx, scheduling.FindSlotsInput{
		CalendarID:  a.cfg.CalendarID,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Duration:    duration,
	})
	if reply, handled := a.unavailable(err); handled {
		out.Reply = reply
		return out, nil
	}
	var vErr *scheduling.ValidationError
	if errors.As(err, &vErr) {
		out.Reply = fmt.Sprintf("I can't search that: %s.", vErr.Error())
		return out, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("find free slots: %w", err)
	}

	out.Slots = slots
	if len(slots) == 0 {
		out.Reply = fmt.Sprintf("No free slots on %s. Try %s?", formatDay(day), day.AddDate(0, 0, 1).Format("Monday"))
		return out, nil
	}
	out.Reply = fmt.Sprintf("On %s you're free at %s.", formatDay(day), suggest(slots))
	return out, nil
}

func (a *Assistant) schedule(ctx context.Context, state State, in Input) (Outcome, error) {
	got, err := a.extract(ctx, in.Text)
	if err != nil {
		return Outcome{}, err
	}
	next := state.With(got)
	out := Outcome{State: next, Action: domain.ActionSchedule}

	if missing := next.Missing(); len(missing) > 0 {
		out.Reply = fmt.Sprintf("Please specify the %s of the meeting.", joinWords(missing))
		return out, nil
	}

	day, ok := intent.ResolveDay(a.now(), next.Day)
	if !ok {
		out.State.Day = ""
		out.Reply = fmt.Sprintf("I don't know which day %q is. Please specify a valid day like Tuesday.", next.Day)
		return out, nil
	}

	duration, err := scheduling.MinutesToDuration("duration", int64(next.DurationMinutes), scheduling.MaxEventLength)
	if err != nil {
		out.State.DurationMinutes = 0
		out.Reply = fmt.Sprintf("I can't book that: %s. Please give a shorter duration.", err.Error())
		return out, nil
	}
	window := SearchWindow(day, next.Time, duration, a.cfg.WorkHours)
	ev, err := a.scheduler.Book(ctx, scheduling.BookInput{
		CalendarID:     a.cfg.CalendarID,
		WindowStart:    window.Start,
		WindowEnd:      window.End,
		Duration:       duration,
		Title:          next.Title,
		Attendees:      next.Attendees,
		IdempotencyKey: in.IdempotencyKey,
	})
	if reply, handled := a.unavailable(err); handled {
		out.Reply = reply
		return out, nil
	}
	var vErr *scheduling.ValidationError
	switch {
	case errors.Is(err, scheduling.ErrNoSlots):
		out.Reply = fmt.Sprintf("No slots on %s for %s. Try %s?",
			formatDay(day), next.Title, day.AddDate(0, 0, 1).Format("Monday"))
		return out, nil
	case errors.As(err, &vErr):
		out.Reply = fmt.Sprintf("I can't book that: %s.", vErr.Error())
		return out, nil
	case err != nil:
		return Outcome{}, fmt.Errorf("book meeting: %w", err)
	}

	a.logger.Info("meeting booked",
		slog.String("event_id", ev.ID),
		slog.Time("start", ev.StartTime),
		slog.Int("duration_minutes", next.DurationMinutes),
	)
	out.State = State{}
	out.Created = &ev
	out.Reply = fmt.Sprintf("Got it! %s is booked on %s at %s.", ev.Title, formatDay(ev.StartTime), FormatSlot(ev.Interval()))
	if len(ev.Attendees) > 0 {
		out.Reply += fmt.Sprintf(" Attendees: %s.", joinWords(ev.Attendees))
	}
	return out, nil
}

// extract runs the extractor. A failed extraction reads as "nothing
// understood" so the conversation can continue; only cancellation is fatal.
func (a *Assistant) extract(ctx context.Context, text string) (domain.Intent, error) {
	if a.extractor == nil {
		return domain.Intent{}, nil
	}
	got, err := a.extractor.Extract(ctx, text)
	if err == nil {
		return got, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Intent{}, ctxErr
	}
	a.logger.Warn("intent extraction failed", slog.Any("err", err))
	return domain.Intent{}, nil
}

// unavailable turns a calendar outage into a reply. It is kept apart from
// "no slots" so the user is never told a busy calendar is free or full.
func (a *Assistant) unavailable(err error) (string, bool) {
	if !errors.Is(err, calendar.ErrUnavailable) {
		return "", false
	}
	a.logger.Warn("calendar unavailable", slog.Any("err", err))
	return "I can't reach your calendar right now. Please try again in a moment.", true
}

func suggest(slots []domain.TimeInterval) string {
	n := min(len(slots), suggestedSlots)
	items := make([]string, 0, n)
	for _, s := range slots[:n] {
		items = append(items, FormatSlot(s))
	}
	return strings.Join(items, " or ")
}
