package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-lookup/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-lookup/internal/adapter/kafka"
	"github.com/couchcryptid/weather-lookup/internal/adapter/openweather"
	"github.com/couchcryptid/weather-lookup/internal/config"
	"github.com/couchcryptid/weather-lookup/internal/events"
	"github.com/couchcryptid/weather-lookup/internal/lookup"
	"github.com/couchcryptid/weather-lookup/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Log)
	metrics := observability.NewMetrics()

	upstream := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.OpenWeatherTimeout, metrics, logger)
	ready := observability.Readiness{upstream}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Lookup events are published only when Kafka brokers are configured.
	var (
		sink      events.Sink = events.Discard{}
		writer    *kafkaadapter.Writer
		publishWG sync.WaitGroup
	)
	if cfg.EventsEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher := events.NewPublisher(writer, logger, metrics, cfg.BatchSize, cfg.BatchFlushInterval)
		sink = publisher
		ready = append(ready, publisher)

		publishWG.Add(1)
		go func() {
			defer publishWG.Done()
			if err := publisher.Run(ctx); err != nil {
				logger.Error("event publisher error", "error", err)
			}
		}()
		logger.Info("lookup events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaLookupTopic)
	} else {
		logger.Info("lookup events disabled")
	}

	service := lookup.NewService(upstream, cfg.CacheSize, cfg.CacheTTL, sink, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, service, ready, cfg.CORSAllowedOrigin, logger)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	// The publisher drains its queue once ctx is done.
	publishWG.Wait()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
