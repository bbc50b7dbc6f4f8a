package domain

import (
	"errors"
	"time"
)

// TimeInterval is a half-open range [Start, End).
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the two intervals share any instant. Touching
// intervals (one ends exactly when the other starts) do not overlap.
func (i TimeInterval) Overlaps(o TimeInterval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

func (i TimeInterval) UTC() TimeInterval {
	return TimeInterval{Start: i.Start.UTC(), End: i.End.UTC()}
}

func (i TimeInterval) Valid() bool {
	return i.Start.Before(i.End)
}

type SearchWindow struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Step     time.Duration
}

var (
	ErrNonPositiveDuration = errors.New("duration must be positive")
	ErrNonPositiveStep     = errors.New("step must be positive")
	ErrEmptyWindow         = errors.New("window_end must be after window_start")
)

func (w SearchWindow) Validate() error {
	if w.Duration <= 0 {
		return ErrNonPositiveDuration
	}
	if w.Step <= 0 {
		return ErrNonPositiveStep
	}
	if !w.Start.Before(w.End) {
		return ErrEmptyWindow
	}
	return nil
}

func (w SearchWindow) Interval() TimeInterval {
	return TimeInterval{Start: w.Start, End: w.End}
}
