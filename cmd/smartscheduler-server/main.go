package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	schedulerv1 "smartscheduler/internal/api/schedulerv1"
	"smartscheduler/internal/app"
	"smartscheduler/internal/config"
	grpcTransport "smartscheduler/internal/transport/grpc"
	httpTransport "smartscheduler/internal/transport/http"
)

const serviceName = "smartscheduler-server"

func main() {
	log := app.NewLogger(os.Stdout, serviceName, "info")
	slog.SetDefault(log)

	cfg, err := config.LoadFile(os.Getenv("SMARTSCHEDULER_CONFIG"))
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = app.NewLogger(os.Stdout, serviceName, cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.WithSpeech(false))
	if err != nil {
		log.Error("startup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close failed", slog.Any("err", err))
		}
	}()

	grpcServer := grpcTransport.NewServer(log, a.Metrics, cfg.GRPCRequestTimeout)
	schedulerv1.RegisterSchedulerServiceServer(grpcServer, grpcTransport.NewSchedulerServer(a.Scheduling, log))

	httpServer := httpTransport.NewServer(cfg.HTTPAddr, httpTransport.NewRouter(httpTransport.Config{
		Slots:          a.Scheduling,
		Assistant:      a.Assistant,
		Transcriber:    a.Transcriber,
		Metrics:        a.Metrics,
		MetricsHandler: a.Observe.Handler(),
		Logger:         log,
		RateLimit: httpTransport.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			Burst:             cfg.RateLimitBurst,
		},
		MaxAudioBytes:  cfg.MaxAudioBytes,
		RequestTimeout: cfg.HTTPRequestTimeout,
	}))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("http server started", slog.String("http_addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			log.Info("shutdown signal received")
		}
		shutdown(log, grpcServer, httpServer, cfg.ShutdownTimeout)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", slog.Any("err", err))
		_ = a.Close()
		os.Exit(1)
	}
}

func shutdown(log *slog.Logger, s *grpc.Server, h *http.Server, timeout time.Duration) {
	log.Info("shutting down", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := h.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}
