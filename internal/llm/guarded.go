package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"smartscheduler/internal/observe"
	"smartscheduler/internal/resilience"
)

type GuardConfig struct {
	// RatePerSecond <= 0 disables local rate limiting.
	RatePerSecond float64
	Burst         int
	Breaker       resilience.Config
}

// Guarded rate limits and circuit-breaks calls to a provider and records
// latency per provider.
type Guarded struct {
	next     Completer
	provider string
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	metrics  *observe.Metrics
}

func NewGuarded(next Completer, provider string, cfg GuardConfig, metrics *observe.Metrics) *Guarded {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "llm-" + provider
	}
	return &Guarded{
		next:     next,
		provider: provider,
		limiter:  limiter,
		breaker:  resilience.NewBreaker(cfg.Breaker),
		metrics:  metrics,
	}
}

func (g *Guarded) Complete(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit: %w", ErrUnavailable, err)
	}

	start := time.Now()
	var out string
	err := g.breaker.Do(func() error {
		var err error
		out, err = g.next.Complete(ctx, req)
		return err
	})
	g.metrics.RecordLLMRequest(ctx, g.provider, observe.Status(err), time.Since(start))
	if errors.Is(err, resilience.ErrOpen) {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return out, err
}
