package assistant

import (
	"strings"

	"smartscheduler/internal/domain"
)

// State is what the assistant has learned about the meeting being scheduled.
// A turn never mutates the State it is given; it returns the next one.
type State struct {
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	Day             string   `json:"day,omitempty"`
	Time            string   `json:"time,omitempty"`
	Title           string   `json:"title,omitempty"`
	Attendees       []string `json:"attendees,omitempty"`
}

// With returns a copy of s with every field the intent carries replaced.
func (s State) With(in domain.Intent) State {
	next := s.clone()
	if in.Has(domain.FieldDuration) {
		next.DurationMinutes = *in.DurationMinutes
	}
	if in.Has(domain.FieldDay) {
		next.Day = strings.TrimSpace(in.Day)
	}
	if in.Has(domain.FieldTime) {
		next.Time = strings.TrimSpace(in.Time)
	}
	if in.Has(domain.FieldTitle) {
		next.Title = strings.TrimSpace(in.Title)
	}
	if in.Has(domain.FieldAttendees) {
		next.Attendees = append([]string(nil), in.Attendees...)
	}
	return next
}

// Missing lists the fields still needed before booking, in the order the
// assistant asks for them.
func (s State) Missing() []string {
	var missing []string
	if s.Title == "" {
		missing = append(missing, "title")
	}
	if s.DurationMinutes <= 0 {
		missing = append(missing, "duration")
	}
	if s.Day == "" {
		missing = append(missing, "day")
	}
	if s.Time == "" {
		missing = append(missing, "time")
	}
	return missing
}

func (s State) Ready() bool {
	return len(s.Missing()) == 0
}

func (s State) clone() State {
	out := s
	out.Attendees = append([]string(nil), s.Attendees...)
	if len(out.Attendees) == 0 {
		out.Attendees = nil
	}
	return out
}
