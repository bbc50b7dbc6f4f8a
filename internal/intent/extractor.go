// Package intent turns a free-text utterance into a structured, possibly
// partial scheduling intent.
//
// Extraction runs a ranked chain of strategies. For every field the first
// strategy that produced a value wins and the winner is recorded in
// Intent.Sources.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smartscheduler/internal/domain"
)

// ErrNoExtraction is returned when every strategy in a chain failed.
var ErrNoExtraction = errors.New("no extractor succeeded")

type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string) (domain.Intent, error)
}

type Chain struct {
	extractors []Extractor
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, extractors ...Extractor) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		extractors: extractors,
		logger:     logger.With(slog.String("component", "intent")),
	}
}

func (c *Chain) Name() string {
	return "chain"
}

// Extract runs the strategies in order and stops early once every field is
// filled. A strategy's failure is logged and skipped; the chain fails only
// when no strategy succeeded.
func (c *Chain) Extract(ctx context.Context, text string) (domain.Intent, error) {
	merged := domain.Intent{Sources: map[domain.IntentField]string{}}
	var errs []error
	succeeded := 0

	for _, ex := range c.extractors {
		if merged.Complete() {
			break
		}
		got, err := ex.Extract(ctx, text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.Intent{}, ctxErr
			}
			c.logger.Warn("extractor failed", slog.String("extractor", ex.Name()), slog.Any("err", err))
			errs = append(errs, fmt.Errorf("%s: %w", ex.Name(), err))
			continue
		}
		succeeded++
		Merge(&merged, got, ex.Name())
	}

	if succeeded == 0 && len(errs) > 0 {
		return domain.Intent{}, fmt.Errorf("%w: %w", ErrNoExtraction, errors.Join(errs...))
	}
	return merged, nil
}

// Merge copies into dst every field dst lacks and src has, tagging it with
// source. When src carries its own source tags they are kept.
func Merge(dst *domain.Intent, src domain.Intent, source string) {
	if dst.Sources == nil {
		dst.Sources = map[domain.IntentField]string{}
	}
	tag := func(f domain.IntentField) {
		if s, ok := src.Sources[f]; ok && s != "" {
			dst.Sources[f] = s
			return
		}
		dst.Sources[f] = source
	}

	for _, f := range domain.AllIntentFields {
		if dst.Has(f) || !src.Has(f) {
			continue
		}
		switch f {
		case domain.FieldAction:
			dst.Action = src.Action
		case domain.FieldDuration:
			dst.DurationMinutes = domain.Minutes(*src.DurationMinutes)
		case domain.FieldDay:
			dst.Day = src.Day
		case domain.FieldTime:
			dst.Time = src.Time
		case domain.FieldTitle:
			dst.Title = src.Title
		case domain.FieldAttendees:
			dst.Attendees = append([]string(nil), src.Attendees...)
		}
		tag(f)
	}
}
