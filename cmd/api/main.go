package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skladik/internal/api"
	"skladik/internal/config"
	"skladik/internal/domain"
	"skladik/internal/events"
	"skladik/internal/logging"
	"skladik/internal/metrics"
	"skladik/internal/models"
	"skladik/internal/repository"
	"skladik/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	seed, err := loadSeedItems(cfg, &logger)
	if err != nil {
		return err
	}

	bus := events.NewEventBus()
	itemStore := store.NewItemStore(bus, &logger)
	clockInStore := store.NewClockInStore(bus, &logger)

	if err := itemStore.Seed(seed); err != nil {
		return fmt.Errorf("seed items: %w", err)
	}
	logger.Info().Int("count", itemStore.Count()).Msg("items seeded")

	subscribeEvents(bus, itemStore, &logger)
	metrics.SetItemsInStore(itemStore.Count())

	redisClient := initRedis(cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()

	limiter := buildRateLimiter(redisClient, &logger)

	httpServer := api.NewHTTPServer(&cfg.API, itemStore, clockInStore, limiter, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// loadSeedItems reads the initial item set. An explicit ITEMS_PATH must
// exist; the default path is optional and falls back to items listed
// inline in the main config.
func loadSeedItems(cfg *config.Config, logger *zerolog.Logger) ([]models.Item, error) {
	itemsPath := os.Getenv("ITEMS_PATH")
	explicit := itemsPath != ""
	if !explicit {
		itemsPath = "configs/items.yaml"
	}

	itemsData, err := os.ReadFile(itemsPath)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg.Items, nil
		}
		logger.Error().Err(err).Str("items_path", itemsPath).Msg("read seed items")
		return nil, err
	}

	var seedFile struct {
		Items []models.Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(itemsData, &seedFile); err != nil {
		logger.Error().Err(err).Str("items_path", itemsPath).Msg("parse seed items")
		return nil, err
	}

	if err := config.ValidateItems(seedFile.Items); err != nil {
		return nil, fmt.Errorf("validate seed items: %w", err)
	}

	return seedFile.Items, nil
}

// subscribeEvents wires the audit log and metrics onto the store event
// stream.
func subscribeEvents(bus *events.EventBus, items *store.ItemStore, logger *zerolog.Logger) {
	audit := logger.With().Str("component", "audit").Logger()

	record := func(event *events.Event) error {
		metrics.IncStoreEvent(event.Type)
		audit.Info().Str("event", event.Type).RawJSON("payload", event.Payload).Msg("store event")
		return nil
	}
	trackCount := func(event *events.Event) error {
		metrics.SetItemsInStore(items.Count())
		return nil
	}

	for _, eventType := range []string{
		events.EventItemCreated,
		events.EventItemUpdated,
		events.EventItemDeleted,
		events.EventClockInCreated,
	} {
		bus.Subscribe(eventType, record)
	}
	bus.Subscribe(events.EventItemCreated, trackCount)
	bus.Subscribe(events.EventItemDeleted, trackCount)
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildRateLimiter prefers redis-backed state so limits hold across
// replicas, with the in-memory limiter as fallback.
func buildRateLimiter(redisClient *redis.Client, logger *zerolog.Logger) domain.StateRepository {
	memory := repository.NewMemoryStateRepository()
	if redisClient == nil {
		logger.Info().Msg("rate limiter using in-memory state")
		return memory
	}
	return repository.NewFailoverStateRepository(repository.NewRedisStateRepository(redisClient), memory, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
