package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	schedulerv1 "smartscheduler/internal/api/schedulerv1"
	"smartscheduler/internal/calendar"
	"smartscheduler/internal/domain"
	"smartscheduler/internal/service/scheduling"
	"smartscheduler/internal/store"
)

type SchedulerServer struct {
	schedulerv1.UnimplementedSchedulerServiceServer

	svc schedulingService
	log *slog.Logger
}

type schedulingService interface {
	FindSlots(ctx context.Context, in scheduling.FindSlotsInput) ([]domain.TimeInterval, error)
	Book(ctx context.Context, in scheduling.BookInput) (domain.Event, error)
	CreateEvent(ctx context.Context, in scheduling.CreateEventInput) (domain.Event, error)
	ListEvents(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	CancelAt(ctx context.Context, calendarID string, from, to time.Time, hour, minute int) ([]domain.Event, error)
}

func NewSchedulerServer(svc schedulingService, log *slog.Logger) *SchedulerServer {
	if log == nil {
		log = slog.Default()
	}
	return &SchedulerServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.scheduler")),
	}
}

func (s *SchedulerServer) FindFreeSlots(ctx context.Context, req *schedulerv1.FindFreeSlotsRequest) (*schedulerv1.FindFreeSlotsResponse, error) {
	log := s.log.With(slog.String("rpc", "FindFreeSlots"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.WindowStart.IsZero() || req.WindowEnd.IsZero() {
		log.Warn("invalid request", slog.String("reason", "missing_window"), slog.String("calendar_id", req.CalendarID))
		return nil, status.Error(codes.InvalidArgument, "window_start and window_end are required")
	}

	duration, err := scheduling.MinutesToDuration("duration", int64(req.DurationMinutes), scheduling.MaxEventLength)
	if err != nil {
		return nil, toStatus(log, "slot search failed", err, slog.String("calendar_id", req.CalendarID))
	}
	step, err := scheduling.MinutesToDuration("step", int64(req.StepMinutes), scheduling.MaxWindow)
	if err != nil {
		return nil, toStatus(log, "slot search failed", err, slog.String("calendar_id", req.CalendarID))
	}

	slots, err := s.svc.FindSlots(ctx, scheduling.FindSlotsInput{
		CalendarID:  req.CalendarID,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		Duration:    duration,
		Step:        step,
	})
	if err != nil {
		return nil, toStatus(log, "slot search failed", err, slog.String("calendar_id", req.CalendarID))
	}

	out := make([]schedulerv1.Slot, 0, len(slots))
	for _, slot := range slots {
		out = append(out, schedulerv1.Slot{Start: slot.Start, End: slot.End})
	}

	log.Debug(
		"slots found",
		slog.String("calendar_id", req.CalendarID),
		slog.Int("count", len(out)),
		slog.Time("window_start", req.WindowStart),
		slog.Time("window_end", req.WindowEnd),
	)

	return &schedulerv1.FindFreeSlotsResponse{Slots: out}, nil
}

func (s *SchedulerServer) BookMeeting(ctx context.Context, req *schedulerv1.BookMeetingRequest) (*schedulerv1.BookMeetingResponse, error) {
	log := s.log.With(slog.String("rpc", "BookMeeting"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.WindowStart.IsZero() || req.WindowEnd.IsZero() {
		log.Warn("invalid request", slog.String("reason", "missing_window"), slog.String("calendar_id", req.CalendarID))
		return nil, status.Error(codes.InvalidArgument, "window_start and window_end are required")
	}

	duration, err := scheduling.MinutesToDuration("duration", int64(req.DurationMinutes), scheduling.MaxEventLength)
	if err != nil {
		return nil, toStatus(log, "meeting booking failed", err, slog.String("calendar_id", req.CalendarID))
	}

	ev, err := s.svc.Book(ctx, scheduling.BookInput{
		CalendarID:     req.CalendarID,
		WindowStart:    req.WindowStart,
		WindowEnd:      req.WindowEnd,
		Duration:       duration,
		Title:          req.Title,
		Notes:          req.Notes,
		Attendees:      req.Attendees,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, toStatus(log, "meeting booking failed", err, slog.String("calendar_id", req.CalendarID))
	}

	log.Info(
		"meeting booked",
		slog.String("event_id", ev.ID),
		slog.String("calendar_id", ev.CalendarID),
		slog.Time("start_time", ev.StartTime),
		slog.Time("end_time", ev.EndTime),
	)

	return &schedulerv1.BookMeetingResponse{Event: toWireEvent(ev)}, nil
}

func (s *SchedulerServer) CreateEvent(ctx context.Context, req *schedulerv1.CreateEventRequest) (*schedulerv1.CreateEventResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateEvent"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		log.Warn("invalid request", slog.String("reason", "missing_times"), slog.String("calendar_id", req.CalendarID))
		return nil, status.Error(codes.InvalidArgument, "start_time and end_time are required")
	}

	ev, err := s.svc.CreateEvent(ctx, scheduling.CreateEventInput{
		CalendarID:     req.CalendarID,
		Title:          req.Title,
		Notes:          req.Notes,
		Attendees:      req.Attendees,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, toStatus(log, "event create failed", err,
			slog.String("calendar_id", req.CalendarID),
			slog.Time("start_time", req.StartTime),
			slog.Time("end_time", req.EndTime),
		)
	}

	log.Info(
		"event created",
		slog.String("event_id", ev.ID),
		slog.String("calendar_id", ev.CalendarID),
		slog.Time("start_time", ev.StartTime),
		slog.Time("end_time", ev.EndTime),
	)

	return &schedulerv1.CreateEventResponse{Event: toWireEvent(ev)}, nil
}

func (s *SchedulerServer) ListEvents(ctx context.Context, req *schedulerv1.ListEventsRequest) (*schedulerv1.ListEventsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListEvents"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.WindowStart.IsZero() || req.WindowEnd.IsZero() {
		log.Warn("invalid request", slog.String("reason", "missing_window"), slog.String("calendar_id", req.CalendarID))
		return nil, status.Error(codes.InvalidArgument, "window_start and window_end are required")
	}

	events, err := s.svc.ListEvents(ctx, req.CalendarID, req.WindowStart, req.WindowEnd)
	if err != nil {
		return nil, toStatus(log, "events list failed", err, slog.String("calendar_id", req.CalendarID))
	}

	log.Debug(
		"events listed",
		slog.String("calendar_id", req.CalendarID),
		slog.Int("count", len(events)),
		slog.Time("window_start", req.WindowStart),
		slog.Time("window_end", req.WindowEnd),
	)

	return &schedulerv1.ListEventsResponse{Events: toWireEvents(events)}, nil
}

func (s *SchedulerServer) DeleteEvent(ctx context.Context, req *schedulerv1.DeleteEventRequest) (*schedulerv1.DeleteEventResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteEvent"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if err := s.svc.DeleteEvent(ctx, req.CalendarID, req.EventID); err != nil {
		return nil, toStatus(log, "event delete failed", err,
			slog.String("calendar_id", req.CalendarID),
			slog.String("event_id", req.EventID),
		)
	}

	log.Info("event deleted", slog.String("event_id", req.EventID), slog.String("calendar_id", req.CalendarID))
	return &schedulerv1.DeleteEventResponse{}, nil
}

func (s *SchedulerServer) CancelAt(ctx context.Context, req *schedulerv1.CancelAtRequest) (*schedulerv1.CancelAtResponse, error) {
	log := s.log.With(slog.String("rpc", "CancelAt"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.From.IsZero() || req.To.IsZero() {
		log.Warn("invalid request", slog.String("reason", "missing_range"), slog.String("calendar_id", req.CalendarID))
		return nil, status.Error(codes.InvalidArgument, "from and to are required")
	}

	cancelled, err := s.svc.CancelAt(ctx, req.CalendarID, req.From, req.To, int(req.Hour), int(req.Minute))
	if err != nil {
		return nil, toStatus(log, "cancel failed", err, slog.String("calendar_id", req.CalendarID))
	}

	log.Info("events cancelled", slog.String("calendar_id", req.CalendarID), slog.Int("count", len(cancelled)))
	return &schedulerv1.CancelAtResponse{Cancelled: toWireEvents(cancelled)}, nil
}

// toStatus maps service errors onto gRPC codes. Expected outcomes are logged
// at info or warn, everything else at error and hidden behind Internal.
func toStatus(log *slog.Logger, msg string, err error, attrs ...any) error {
	attrs = append(attrs, slog.Any("err", err))

	var vErr *scheduling.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", attrs...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, store.ErrConflict):
		log.Info(msg, attrs...)
		return status.Error(codes.FailedPrecondition, "That time overlaps an existing event. Pick a different slot.")
	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Info(msg, attrs...)
		return status.Error(codes.FailedPrecondition, "This request key was already used for a different event. Try again.")
	case errors.Is(err, scheduling.ErrNoSlots):
		log.Info(msg, attrs...)
		return status.Error(codes.FailedPrecondition, "No free slot of that length in the window.")
	case errors.Is(err, store.ErrNotFound):
		log.Info(msg, attrs...)
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, calendar.ErrUnavailable):
		log.Warn(msg, attrs...)
		return status.Error(codes.Unavailable, "calendar unavailable, retry later")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn(msg, attrs...)
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	}
	log.Error(msg, attrs...)
	return status.Error(codes.Internal, "internal error")
}

func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("idempotency-key")
	if len(values) == 0 {
		values = md.Get("x-idempotency-key")
	}
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func toWireEvent(e domain.Event) schedulerv1.Event {
	return schedulerv1.Event{
		ID:         e.ID,
		CalendarID: e.CalendarID,
		Title:      e.Title,
		Notes:      e.Notes,
		Attendees:  e.Attendees,
		StartTime:  e.StartTime.UTC(),
		EndTime:    e.EndTime.UTC(),
		CreatedAt:  e.CreatedAt.UTC(),
		UpdatedAt:  e.UpdatedAt.UTC(),
	}
}

func toWireEvents(events []domain.Event) []schedulerv1.Event {
	out := make([]schedulerv1.Event, 0, len(events))
	for _, e := range events {
		out = append(out, toWireEvent(e))
	}
	return out
}
