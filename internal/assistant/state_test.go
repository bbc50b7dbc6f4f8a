package assistant

import (
	"reflect"
	"testing"
	"time"

	"smartscheduler/internal/domain"
)

func TestStateWith_DoesNotMutate(t *testing.T) {
	base := State{Title: "sync", Attendees: []string{"alice"}}
	next := base.With(domain.Intent{
		DurationMinutes: domain.Minutes(45),
		Day:             " tomorrow ",
		Attendees:       []string{"bob"},
	})

	if base.DurationMinutes != 0 || base.Day != "" || base.Attendees[0] != "alice" {
		t.Fatalf("base mutated: %+v", base)
	}
	want := State{Title: "sync", DurationMinutes: 45, Day: "tomorrow", Attendees: []string{"bob"}}
	if !reflect.DeepEqual(next, want) {
		t.Fatalf("next = %+v, want %+v", next, want)
	}

	next.Attendees[0] = "carol"
	if base.Attendees[0] != "alice" {
		t.Fatalf("attendee slices are shared")
	}
}

func TestStateMissingOrder(t *testing.T) {
	if got := (State{}).Missing(); !reflect.DeepEqual(got, []string{"title", "duration", "day", "time"}) {
		t.Fatalf("Missing = %v", got)
	}
	s := State{Title: "x", DurationMinutes: 30, Day: "today", Time: "10:00"}
	if !s.Ready() {
		t.Fatalf("expected ready state")
	}
}

func TestSearchWindow(t *testing.T) {
	day := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	tests := []struct {
		pref     string
		duration time.Duration
		start    time.Time
		end      time.Time
	}{
		{pref: "14:00", duration: 30 * time.Minute, start: at(14, 0), end: at(15, 0)},
		{pref: "2:30 pm", duration: 90 * time.Minute, start: at(14, 30), end: at(16, 0)},
		{pref: "morning", duration: time.Hour, start: at(9, 0), end: at(12, 0)},
		{pref: "afternoon", duration: time.Hour, start: at(12, 0), end: at(17, 0)},
		{pref: "evening", duration: time.Hour, start: at(17, 0), end: at(20, 0)},
		{pref: "", duration: time.Hour, start: at(9, 0), end: at(17, 0)},
		{pref: "whenever", duration: time.Hour, start: at(9, 0), end: at(17, 0)},
	}
	for _, tt := range tests {
		got := SearchWindow(day.Add(5*time.Hour), tt.pref, tt.duration, DefaultWorkHours)
		if !got.Start.Equal(tt.start) || !got.End.Equal(tt.end) {
			t.Fatalf("SearchWindow(%q, %v) = %v, want [%v, %v)", tt.pref, tt.duration, got, tt.start, tt.end)
		}
	}
}

func TestFormatSlot(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	slot := domain.TimeInterval{
		Start: time.Date(2026, 1, 8, 12, 0, 0, 0, loc),
		End:   time.Date(2026, 1, 8, 12, 30, 0, 0, loc),
	}
	if got := FormatSlot(slot); got != "09:00 AM–09:30 AM" {
		t.Fatalf("FormatSlot = %q", got)
	}
}

func TestJoinWords(t *testing.T) {
	if got := joinWords([]string{"a", "b", "c"}); got != "a, b and c" {
		t.Fatalf("joinWords = %q", got)
	}
	if got := joinWords([]string{"a"}); got != "a" {
		t.Fatalf("joinWords = %q", got)
	}
}
