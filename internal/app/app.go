// Package app assembles the scheduler from configuration: calendar backend
// and its decorators, the scheduling service, intent extraction, the
// assistant and the speech edges.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smartscheduler/internal/assistant"
	"smartscheduler/internal/availability"
	"smartscheduler/internal/calendar"
	"smartscheduler/internal/calendar/cache"
	gcal "smartscheduler/internal/calendar/google"
	"smartscheduler/internal/config"
	"smartscheduler/internal/intent"
	"smartscheduler/internal/llm"
	"smartscheduler/internal/llm/gemini"
	"smartscheduler/internal/llm/openai"
	"smartscheduler/internal/observe"
	"smartscheduler/internal/resilience"
	"smartscheduler/internal/service/scheduling"
	"smartscheduler/internal/speech"
	gspeech "smartscheduler/internal/speech/google"
	"smartscheduler/internal/store/postgres"
)

const ServiceName = "smartscheduler"

type App struct {
	Config      config.Config
	Logger      *slog.Logger
	Observe     *observe.Provider
	Metrics     *observe.Metrics
	Calendar    calendar.Service
	Scheduling  *scheduling.Service
	Assistant   *assistant.Assistant
	Completer   llm.Completer
	Transcriber speech.Transcriber

	closers []func() error
}

type options struct {
	calendar calendar.Service
	speech   speechMode
}

type speechMode int

const (
	speechOff speechMode = iota
	speechOptional
	speechRequired
)

type Option func(*options)

// WithCalendar replaces the configured backend. The decorators still apply.
func WithCalendar(svc calendar.Service) Option {
	return func(o *options) { o.calendar = svc }
}

// WithSpeech dials Speech-to-Text. When required is false a failure only
// disables voice input.
func WithSpeech(required bool) Option {
	return func(o *options) {
		o.speech = speechOptional
		if required {
			o.speech = speechRequired
		}
	}
}

// New builds the application. On error everything opened so far is closed.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts ...Option) (_ *App, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = slog.Default()
	}

	a := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Observe, err = observe.NewProvider(observe.Config{Enabled: cfg.MetricsEnabled, ServiceName: ServiceName})
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	a.closers = append(a.closers, func() error { return a.Observe.Shutdown(context.Background()) })
	a.Metrics = a.Observe.Metrics()

	if a.Calendar, err = a.buildCalendar(ctx, o.calendar); err != nil {
		return nil, err
	}

	a.Scheduling = scheduling.NewService(a.Calendar,
		scheduling.WithEngine(availability.NewEngine(cfg.SlotStep)),
		scheduling.WithLogger(log),
		scheduling.WithMetrics(a.Metrics),
	)

	if a.Completer, err = a.buildCompleter(ctx); err != nil {
		return nil, err
	}

	extractors := []intent.Extractor{intent.NewRegexExtractor()}
	if a.Completer != nil {
		ex, err := intent.NewLLMExtractor(a.Completer, cfg.IntentCacheSize)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, ex)
	}

	assistantOpts := []assistant.Option{
		assistant.WithLogger(log),
		assistant.WithMetrics(a.Metrics),
	}
	if cfg.LLMPhrasing && a.Completer != nil {
		assistantOpts = append(assistantOpts, assistant.WithPhraser(assistant.NewLLMPhraser(a.Completer)))
	}
	a.Assistant = assistant.New(a.Scheduling, intent.NewChain(log, extractors...), assistant.Config{
		CalendarID:    cfg.CalendarID,
		WorkHours:     assistant.WorkHours{Start: cfg.WorkdayStartHour, End: cfg.WorkdayEndHour},
		CancelHorizon: cfg.CancelHorizon,
	}, assistantOpts...)

	if o.speech != speechOff {
		t, err := gspeech.New(ctx, cfg.SpeechLanguage)
		switch {
		case err == nil:
			a.closers = append(a.closers, t.Close)
			a.Transcriber = speech.NewInstrumentedTranscriber(t, a.Metrics)
		case o.speech == speechRequired:
			return nil, err
		default:
			log.Warn("speech-to-text unavailable, voice input disabled", slog.Any("err", err))
		}
	}

	log.Info("application ready",
		slog.String("calendar_backend", cfg.CalendarBackend),
		slog.Bool("redis_cache", cfg.RedisAddr != ""),
		slog.String("llm_provider", cfg.LLMProvider),
		slog.Bool("voice_input", a.Transcriber != nil),
	)
	return a, nil
}

// buildCalendar layers, from the inside out: backend, metrics, circuit
// breaker, then the Redis busy cache when configured.
func (a *App) buildCalendar(ctx context.Context, override calendar.Service) (calendar.Service, error) {
	cfg := a.Config
	backend := cfg.CalendarBackend

	var base calendar.Service
	switch {
	case override != nil:
		base = override
	case backend == config.CalendarGoogle:
		c, err := gcal.NewClient(ctx, cfg.GoogleCredentialsFile, cfg.GoogleTokenFile)
		if err != nil {
			return nil, fmt.Errorf("google calendar: %w", err)
		}
		base = c
	default:
		a.Logger.Info("connecting to database", DatabaseLogArgs(cfg.DatabaseURL)...)
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.closers = append(a.closers, func() error { return postgres.Close(db) })
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		base = calendar.NewLocal(postgres.NewEventRepo(db))
	}

	svc := calendar.Service(calendar.NewInstrumented(base, backend, a.Metrics))
	svc = calendar.NewGuarded(svc, resilience.Config{
		Name:         "calendar-" + backend,
		MaxFailures:  cfg.BreakerMaxFailures,
		ResetTimeout: cfg.BreakerResetTimeout,
		Logger:       a.Logger,
	})

	if cfg.RedisAddr != "" {
		client, err := cache.Dial(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		svc = cache.New(svc, client, cfg.BusyCacheTTL, a.Logger, a.Metrics)
	}
	return svc, nil
}

func (a *App) buildCompleter(ctx context.Context) (llm.Completer, error) {
	cfg := a.Config

	var c llm.Completer
	switch cfg.LLMProvider {
	case config.LLMGemini:
		g, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g.Close)
		c = g
	case config.LLMOpenAI:
		opts := []openai.Option{openai.WithTimeout(cfg.LLMTimeout)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		o, err := openai.New(cfg.OpenAIAPIKey, cfg.LLMModel, opts...)
		if err != nil {
			return nil, err
		}
		c = o
	default:
		return nil, nil
	}

	return llm.NewGuarded(c, cfg.LLMProvider, llm.GuardConfig{
		RatePerSecond: cfg.LLMRatePerSecond,
		Burst:         cfg.LLMBurst,
		Breaker:       resilience.Config{Logger: a.Logger},
	}, a.Metrics), nil
}

// Synthesizer speaks through the configured command and, when echo is
// non-nil, also prints every reply there.
func (a *App) Synthesizer(echo speech.Synthesizer) (speech.Synthesizer, error) {
	var out speech.MultiSynthesizer
	if echo != nil {
		out = append(out, echo)
	}
	if a.Config.TTSCommand != "" {
		cmd, err := speech.NewCommandSynthesizer(a.Config.TTSCommand, a.Config.TTSTimeout)
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
