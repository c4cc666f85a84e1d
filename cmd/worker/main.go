package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-numis/internal/config"
	"github.com/noah-isme/backend-numis/internal/obs"
	"github.com/noah-isme/backend-numis/internal/resilience"
	"github.com/noah-isme/backend-numis/internal/track"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "numis")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.CollectorURL == "" {
		logger.Fatal().Msg("COLLECTOR_URL is required for the worker")
	}

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	breaker := resilience.NewBreaker(10, 0.5, 30*time.Second).
		WithTarget("collector").
		WithLogger(logger)

	worker := track.Worker{
		Collector: track.Collector{
			URL: cfg.CollectorURL,
			HTTP: resilience.HTTPClient{
				Client: &http.Client{
					Transport: otelhttp.NewTransport(http.DefaultTransport),
				},
				Breaker:     breaker,
				BaseBackoff: 200 * time.Millisecond,
				MaxAttempts: 3,
				Jitter:      0.2,
				Timeout:     10 * time.Second,
			},
		},
		Logger: logger,
	}

	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{cfg.TrackQueue: 1},
	})

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	logger.Info().Str("queue", cfg.TrackQueue).Msg("worker starting")
	if err := srv.Run(worker.NewServeMux()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
