// Package http serves the JSON surface of the scheduler: a slot search and
// conversational turns, text or recorded audio.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartscheduler/internal/assistant"
	"smartscheduler/internal/domain"
	"smartscheduler/internal/observe"
	"smartscheduler/internal/service/scheduling"
	"smartscheduler/internal/speech"
)

const (
	DefaultMaxAudioBytes  = 5 << 20
	DefaultRequestTimeout = 30 * time.Second
)

type slotFinder interface {
	FindSlots(ctx context.Context, in scheduling.FindSlotsInput) ([]domain.TimeInterval, error)
}

type turner interface {
	Turn(ctx context.Context, state assistant.State, in assistant.Input) (assistant.Outcome, error)
}

type Config struct {
	Slots     slotFinder
	Assistant turner
	// Transcriber is optional; without it audio turns answer 501.
	Transcriber speech.Transcriber

	Metrics        *observe.Metrics
	MetricsHandler http.Handler
	Logger         *slog.Logger

	RateLimit      RateLimitConfig
	MaxAudioBytes  int64
	RequestTimeout time.Duration
}

type handler struct {
	slots         slotFinder
	assistant     turner
	transcriber   speech.Transcriber
	log           *slog.Logger
	maxAudioBytes int64
}

func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "http"))
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = DefaultMaxAudioBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	h := &handler{
		slots:         cfg.Slots,
		assistant:     cfg.Assistant,
		transcriber:   cfg.Transcriber,
		log:           log,
		maxAudioBytes: cfg.MaxAudioBytes,
	}

	r := gin.New()
	r.Use(gin.Recovery(), AccessLog(log, cfg.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	v1 := r.Group("/v1", RateLimit(cfg.RateLimit, log), requestTimeout(cfg.RequestTimeout))
	v1.POST("/availability", h.findSlots)
	v1.POST("/assistant/turns", h.turn)
	return r
}

// NewServer wraps the router in an http.Server with sane header timeouts.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); ok {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
