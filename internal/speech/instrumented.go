package speech

import (
	"context"
	"errors"

	"smartscheduler/internal/observe"
)

// InstrumentedTranscriber counts transcription outcomes.
type InstrumentedTranscriber struct {
	next    Transcriber
	metrics *observe.Metrics
}

func NewInstrumentedTranscriber(next Transcriber, metrics *observe.Metrics) *InstrumentedTranscriber {
	return &InstrumentedTranscriber{next: next, metrics: metrics}
}

func (t *InstrumentedTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	text, err := t.next.Transcribe(ctx, audio)
	switch {
	case errors.Is(err, ErrNoSpeech):
		t.metrics.RecordTranscription(ctx, "no_speech")
	case err != nil:
		t.metrics.RecordTranscription(ctx, "error")
	default:
		t.metrics.RecordTranscription(ctx, "success")
	}
	return text, err
}
