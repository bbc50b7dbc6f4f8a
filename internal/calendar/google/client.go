// Package google implements the calendar Service on the Google Calendar v3
// API.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"smartscheduler/internal/calendar"
	"smartscheduler/internal/domain"
	"smartscheduler/internal/store"
)

type Client struct {
	svc *calendarapi.Service
}

// NewClient builds a client from stored OAuth credentials.
func NewClient(ctx context.Context, credentialsFile, tokenFile string) (*Client, error) {
	hc, err := HTTPClient(ctx, credentialsFile, tokenFile)
	if err != nil {
		return nil, err
	}
	return NewClientWithOptions(ctx, option.WithHTTPClient(hc))
}

func NewClientWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendarapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func (c *Client) BusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error) {
	req := &calendarapi.FreeBusyRequest{
		TimeMin:  start.UTC().Format(time.RFC3339),
		TimeMax:  end.UTC().Format(time.RFC3339),
		TimeZone: "UTC",
		Items:    []*calendarapi.FreeBusyRequestItem{{Id: calendarID}},
	}
	res, err := c.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, mapError("query freebusy", err)
	}

	cal, ok := res.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("query freebusy: calendar %q missing from response", calendarID)
	}
	if len(cal.Errors) > 0 {
		reasons := make([]string, 0, len(cal.Errors))
		for _, e := range cal.Errors {
			reasons = append(reasons, e.Reason)
		}
		if slices.Contains(reasons, "notFound") {
			return nil, fmt.Errorf("query freebusy %q: %w", calendarID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query freebusy %q: %s", calendarID, strings.Join(reasons, ", "))
	}

	out := make([]domain.TimeInterval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		s, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			return nil, fmt.Errorf("parse busy start %q: %w", b.Start, err)
		}
		e, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			return nil, fmt.Errorf("parse busy end %q: %w", b.End, err)
		}
		out = append(out, domain.TimeInterval{Start: s.UTC(), End: e.UTC()})
	}
	return out, nil
}

func (c *Client) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
	var out []domain.Event
	pageToken := ""
	for {
		call := c.svc.Events.List(calendarID).
			TimeMin(start.UTC().Format(time.RFC3339)).
			TimeMax(end.UTC().Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, mapError("list events", err)
		}
		for _, item := range res.Items {
			if item.Status == "cancelled" {
				continue
			}
			ev, err := toEvent(calendarID, item)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		if res.NextPageToken == "" {
			return out, nil
		}
		pageToken = res.NextPageToken
	}
}

// CreateEvent inserts the event. When in.ID is set it is used as the Google
// event id, so a replayed insert hits 409 and is resolved against the
// existing event.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, in calendar.EventInput) (domain.Event, error) {
	ev := &calendarapi.Event{
		Id:          eventID(in.ID),
		Summary:     in.Title,
		Description: in.Notes,
		Start:       &calendarapi.EventDateTime{DateTime: in.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         &calendarapi.EventDateTime{DateTime: in.End.UTC().Format(time.RFC3339), TimeZone: "UTC"},
	}
	for _, email := range in.Attendees {
		ev.Attendees = append(ev.Attendees, &calendarapi.EventAttendee{Email: email})
	}

	created, err := c.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
	if err == nil {
		return toEvent(calendarID, created)
	}
	if ev.Id == "" || !hasCode(err, http.StatusConflict) {
		return domain.Event{}, mapError("create event", err)
	}

	existing, getErr := c.svc.Events.Get(calendarID, ev.Id).Context(ctx).Do()
	if getErr != nil {
		return domain.Event{}, mapError("get existing event", getErr)
	}
	out, err := toEvent(calendarID, existing)
	if err != nil {
		return domain.Event{}, err
	}
	if existing.Status == "cancelled" || !sameInput(out, in) {
		return domain.Event{}, store.ErrIdempotencyConflict
	}
	return out, nil
}

func (c *Client) DeleteEvent(ctx context.Context, calendarID, id string) error {
	if err := c.svc.Events.Delete(calendarID, id).Context(ctx).Do(); err != nil {
		return mapError("delete event", err)
	}
	return nil
}

// eventID turns an idempotency id into a valid Google event id. Google ids
// use base32hex characters, which lowercase hex satisfies.
func eventID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

func sameInput(ev domain.Event, in calendar.EventInput) bool {
	return ev.Title == in.Title &&
		ev.StartTime.Equal(in.Start) &&
		ev.EndTime.Equal(in.End)
}

func toEvent(calendarID string, item *calendarapi.Event) (domain.Event, error) {
	start, err := parseEventTime(item.Start)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %s start: %w", item.Id, err)
	}
	end, err := parseEventTime(item.End)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %s end: %w", item.Id, err)
	}

	ev := domain.Event{
		ID:         item.Id,
		CalendarID: calendarID,
		Title:      item.Summary,
		Notes:      item.Description,
		StartTime:  start,
		EndTime:    end,
		AllDay:     item.Start.DateTime == "",
	}
	for _, a := range item.Attendees {
		if a.Email != "" {
			ev.Attendees = append(ev.Attendees, a.Email)
		}
	}
	if t, err := time.Parse(time.RFC3339, item.Created); err == nil {
		ev.CreatedAt = t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, item.Updated); err == nil {
		ev.UpdatedAt = t.UTC()
	}
	return ev, nil
}

// All-day events carry a date instead of a timestamp and block the whole
// UTC day.
func parseEventTime(dt *calendarapi.EventDateTime) (time.Time, error) {
	if dt == nil {
		return time.Time{}, errors.New("missing time")
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}
	if dt.Date != "" {
		return time.Parse(time.DateOnly, dt.Date)
	}
	return time.Time{}, errors.New("missing time")
}

func hasCode(err error, code int) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == code
}

func mapError(op string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch {
		case gErr.Code == http.StatusNotFound, gErr.Code == http.StatusGone:
			return fmt.Errorf("%s: %w", op, store.ErrNotFound)
		case gErr.Code == http.StatusConflict:
			return fmt.Errorf("%s: %w", op, store.ErrConflict)
		case gErr.Code == http.StatusTooManyRequests, gErr.Code >= 500:
			return fmt.Errorf("%s: %w: %w", op, calendar.ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
