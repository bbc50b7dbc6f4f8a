package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartscheduler/internal/resilience"
)

type completerFunc func(ctx context.Context, req Request) (string, error)

func (f completerFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"{\"a\":1}":                     "{\"a\":1}",
		"```json\n{\"a\":1}\n```":       "{\"a\":1}",
		"```\n{\"a\":1}\n```":           "{\"a\":1}",
		"  ```json\n{\"a\":1}```  ":     "{\"a\":1}",
		"```json{\"a\":1}```":           "{\"a\":1}",
		"\n\n{\"title\": \"sync\"}\n\n": "{\"title\": \"sync\"}",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripCodeFence(in), "input %q", in)
	}
}

func TestGuarded_PassesThroughAndOpens(t *testing.T) {
	boom := errors.New("provider down")
	calls := 0
	g := NewGuarded(completerFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		if req.Prompt == "fail" {
			return "", boom
		}
		return "ok:" + req.Prompt, nil
	}), "fake", GuardConfig{Breaker: resilience.Config{MaxFailures: 2, ResetTimeout: time.Hour}}, nil)

	out, err := g.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok:hi", out)

	for i := 0; i < 2; i++ {
		_, err := g.Complete(context.Background(), Request{Prompt: "fail"})
		assert.ErrorIs(t, err, boom)
	}
	_, err = g.Complete(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, calls)
}

func TestGuarded_RateLimitHonoursContext(t *testing.T) {
	g := NewGuarded(completerFunc(func(ctx context.Context, req Request) (string, error) {
		return "ok", nil
	}), "fake", GuardConfig{RatePerSecond: 0.001, Burst: 1}, nil)

	_, err := g.Complete(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = g.Complete(ctx, Request{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
