package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTimeIntervalOverlaps_HalfOpen(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a := TimeInterval{Start: base, End: base.Add(time.Hour)}

	tests := []struct {
		name string
		b    TimeInterval
		want bool
	}{
		{name: "touching after", b: TimeInterval{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}, want: false},
		{name: "touching before", b: TimeInterval{Start: base.Add(-time.Hour), End: base}, want: false},
		{name: "contained", b: TimeInterval{Start: base.Add(10 * time.Minute), End: base.Add(20 * time.Minute)}, want: true},
		{name: "covering", b: TimeInterval{Start: base.Add(-time.Hour), End: base.Add(3 * time.Hour)}, want: true},
		{name: "partial tail", b: TimeInterval{Start: base.Add(59 * time.Minute), End: base.Add(90 * time.Minute)}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(a); got != tt.want {
				t.Fatalf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchWindowValidate(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ok := SearchWindow{Start: start, End: start.Add(time.Hour), Duration: 30 * time.Minute, Step: 30 * time.Minute}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(w *SearchWindow)
		want   error
	}{
		{name: "zero duration", mutate: func(w *SearchWindow) { w.Duration = 0 }, want: ErrNonPositiveDuration},
		{name: "negative step", mutate: func(w *SearchWindow) { w.Step = -time.Minute }, want: ErrNonPositiveStep},
		{name: "inverted window", mutate: func(w *SearchWindow) { w.End = w.Start.Add(-time.Minute) }, want: ErrEmptyWindow},
		{name: "empty window", mutate: func(w *SearchWindow) { w.End = w.Start }, want: ErrEmptyWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ok
			tt.mutate(&w)
			if err := w.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIntentComplete(t *testing.T) {
	in := Intent{
		Action:          ActionSchedule,
		DurationMinutes: Minutes(30),
		Day:             "tuesday",
		Time:            "2 pm",
		Title:           "sync",
	}
	if in.Complete() {
		t.Fatalf("expected incomplete intent without attendees")
	}
	in.Attendees = []string{"a@example.com"}
	if !in.Complete() {
		t.Fatalf("expected complete intent")
	}
	in.DurationMinutes = Minutes(0)
	if in.Has(FieldDuration) {
		t.Fatalf("zero duration must not count as present")
	}
}
