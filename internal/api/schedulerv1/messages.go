// Package schedulerv1 is the wire contract of smartscheduler.v1.SchedulerService.
//
// Messages travel as JSON over gRPC using the "json" content subtype; the
// codec is registered when the package is imported.
package schedulerv1

import "time"

type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Event struct {
	ID         string    `json:"id"`
	CalendarID string    `json:"calendar_id"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes,omitempty"`
	Attendees  []string  `json:"attendees,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

type FindFreeSlotsRequest struct {
	CalendarID      string    `json:"calendar_id"`
	WindowStart     time.Time `json:"window_start,omitzero"`
	WindowEnd       time.Time `json:"window_end,omitzero"`
	DurationMinutes int32     `json:"duration_minutes"`
	// StepMinutes overrides the server's scan step when positive.
	StepMinutes int32 `json:"step_minutes,omitempty"`
}

type FindFreeSlotsResponse struct {
	Slots []Slot `json:"slots"`
}

type BookMeetingRequest struct {
	CalendarID      string    `json:"calendar_id"`
	WindowStart     time.Time `json:"window_start,omitzero"`
	WindowEnd       time.Time `json:"window_end,omitzero"`
	DurationMinutes int32     `json:"duration_minutes"`
	Title           string    `json:"title"`
	Notes           string    `json:"notes,omitempty"`
	Attendees       []string  `json:"attendees,omitempty"`
}

type BookMeetingResponse struct {
	Event Event `json:"event"`
}

type CreateEventRequest struct {
	CalendarID string    `json:"calendar_id"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes,omitempty"`
	Attendees  []string  `json:"attendees,omitempty"`
	StartTime  time.Time `json:"start_time,omitzero"`
	EndTime    time.Time `json:"end_time,omitzero"`
}

type CreateEventResponse struct {
	Event Event `json:"event"`
}

type ListEventsRequest struct {
	CalendarID  string    `json:"calendar_id"`
	WindowStart time.Time `json:"window_start,omitzero"`
	WindowEnd   time.Time `json:"window_end,omitzero"`
}

type ListEventsResponse struct {
	Events []Event `json:"events"`
}

type DeleteEventRequest struct {
	CalendarID string `json:"calendar_id"`
	EventID    string `json:"event_id"`
}

type DeleteEventResponse struct{}

// CancelAtRequest cancels every event in [From, To) that starts at
// Hour:Minute UTC.
type CancelAtRequest struct {
	CalendarID string    `json:"calendar_id"`
	From       time.Time `json:"from,omitzero"`
	To         time.Time `json:"to,omitzero"`
	Hour       int32     `json:"hour"`
	Minute     int32     `json:"minute"`
}

type CancelAtResponse struct {
	Cancelled []Event `json:"cancelled"`
}
