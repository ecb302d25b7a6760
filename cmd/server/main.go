package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"factory-floor/internal/analytics"
	"factory-floor/internal/cache"
	"factory-floor/internal/config"
	"factory-floor/internal/handlers"
	"factory-floor/internal/logging"
	"factory-floor/internal/metrics"
	"factory-floor/internal/models"
	"factory-floor/internal/stations"
)

func main() {
	configPath := flag.String("config", ".", "directory with config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info().Msg("Starting factory floor station service...")

	// Хранилище снимков: Redis, если задан адрес, иначе память процесса
	store, err := newStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to Redis")
	}
	defer store.Close()

	deriver, err := stations.NewDeriver(cfg.Floor.Stations)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid station layout")
	}

	processor := analytics.NewProcessor(deriver, cfg.Mapping(), cfg.Processor.QueueSize, logger)
	processor.Start(cfg.Processor.Workers)
	logger.Info().
		Int("stations", len(deriver.Definitions())).
		Int("workers", cfg.Processor.Workers).
		Int("queue_size", cfg.Processor.QueueSize).
		Msg("processor started")

	// Публикуем пустой снимок, чтобы метрики станций были видны до первого пакета
	metrics.RecordSnapshot(processor.Empty())

	done := make(chan struct{})
	go func() {
		defer close(done)
		processSnapshots(processor, store, logger)
	}()

	handler := handlers.NewHandler(processor, store, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	processor.Stop()
	<-done

	logger.Info().Msg("Server stopped gracefully")
}

func newStore(cfg *config.Config, logger zerolog.Logger) (cache.SnapshotStore, error) {
	if cfg.Redis.Addr == "" {
		logger.Warn().Msg("redis.addr is empty, snapshots are kept in memory only")
		return cache.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.SnapshotTTL)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	return redisCache, nil
}

// processSnapshots обрабатывает опубликованные снимки
func processSnapshots(processor *analytics.Processor, store cache.SnapshotStore, logger zerolog.Logger) {
	for snapshot := range processor.Results() {
		metrics.RecordSnapshot(snapshot)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := store.StoreSnapshot(ctx, snapshot); err != nil {
			metrics.CacheOperations.WithLabelValues("store_snapshot", "error").Inc()
			logger.Error().Err(err).Str("batch_id", snapshot.BatchID).Msg("failed to cache snapshot")
		} else {
			metrics.CacheOperations.WithLabelValues("store_snapshot", "success").Inc()
		}
		cancel()

		for _, st := range snapshot.Stations {
			if len(st.Alerts) == 0 {
				continue
			}
			logAlerts(logger, snapshot.BatchID, st)
		}
	}
}

func logAlerts(logger zerolog.Logger, batchID string, st models.StationState) {
	ev := logger.Warn().
		Str("batch_id", batchID).
		Str("station_id", st.StationID).
		Str("production_line", st.ProductionLine).
		Interface("alerts", st.Alerts)
	if st.Latest != nil {
		ev = ev.Float64("temperature_celsius", st.Latest.TemperatureCelsius).
			Float64("vibration_mm_s", st.Latest.VibrationMMS).
			Float64("temperature_intensity", st.TemperatureIntensity)
	}
	ev.Msg("ANOMALY DETECTED")
}
