// Package availability computes open meeting slots from a search window and a
// set of busy intervals.
//
// The scan is a fixed-step linear sweep: candidate starts are tried at
// window_start + k*step and each candidate is tested against every busy
// interval. It does not jump past conflicts, so a long busy block rejects
// several consecutive candidates. Callers depend on that exact candidate
// sequence.
package availability

import (
	"errors"
	"fmt"
	"time"

	"smartscheduler/internal/domain"
)

// ErrInvalidParameter is returned for a non-positive duration or step.
var ErrInvalidParameter = errors.New("invalid parameter")

const DefaultStep = 30 * time.Minute

// Engine carries the scan granularity. The zero value uses DefaultStep.
type Engine struct {
	Step time.Duration
}

func NewEngine(step time.Duration) Engine {
	return Engine{Step: step}
}

func (e Engine) step() time.Duration {
	if e.Step == 0 {
		return DefaultStep
	}
	return e.Step
}

// FreeSlots runs FindFreeSlots with the engine's step.
func (e Engine) FreeSlots(window domain.TimeInterval, duration time.Duration, busy []domain.TimeInterval) ([]domain.TimeInterval, error) {
	return FindFreeSlots(window.Start, window.End, duration, busy, e.step())
}

// FindFreeSlots returns every [t, t+duration) with t = windowStart + k*step
// that fits inside the window and overlaps no busy interval. An inverted or
// too-short window yields an empty list, not an error.
func FindFreeSlots(windowStart, windowEnd time.Time, duration time.Duration, busy []domain.TimeInterval, step time.Duration) ([]domain.TimeInterval, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, domain.ErrNonPositiveDuration)
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, domain.ErrNonPositiveStep)
	}

	start := windowStart.UTC()
	end := windowEnd.UTC()

	slots := make([]domain.TimeInterval, 0)
	for current := start; !current.Add(duration).After(end); current = current.Add(step) {
		candidate := domain.TimeInterval{Start: current, End: current.Add(duration)}
		if isFree(candidate, busy) {
			slots = append(slots, candidate)
		}
	}
	return slots, nil
}

func isFree(candidate domain.TimeInterval, busy []domain.TimeInterval) bool {
	for _, b := range busy {
		// free iff candidate.End <= b.Start || candidate.Start >= b.End
		if candidate.End.After(b.Start) && candidate.Start.Before(b.End) {
			return false
		}
	}
	return true
}

// ClipToWindow restricts busy intervals to the window: entries outside it are
// dropped, partial overlaps are trimmed, and empty or inverted entries are
// discarded. The input is not modified. For well-formed busy intervals,
// clipping never changes the result of FindFreeSlots over the same window.
func ClipToWindow(busy []domain.TimeInterval, window domain.TimeInterval) []domain.TimeInterval {
	ws := window.Start.UTC()
	we := window.End.UTC()

	out := make([]domain.TimeInterval, 0, len(busy))
	for _, b := range busy {
		b = b.UTC()
		if !b.Valid() {
			continue
		}
		if !b.Start.Before(we) || !b.End.After(ws) {
			continue
		}
		if b.Start.Before(ws) {
			b.Start = ws
		}
		if b.End.After(we) {
			b.End = we
		}
		out = append(out, b)
	}
	return out
}
