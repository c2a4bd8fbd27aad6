package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicbook/internal/api"
	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/domain"
	"clinicbook/internal/events"
	"clinicbook/internal/logging"
	"clinicbook/internal/metrics"
	"clinicbook/internal/payments"
	"clinicbook/internal/repository"
	"clinicbook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, baseLogger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	locker := initLocker(redisClient, &baseLogger)

	eventBus := events.NewEventBus()
	subscribeAuditEvents(eventBus, logging.Component(&baseLogger, "events"))

	stripe := payments.NewStripeClient(cfg.Payments.StripeSecretKey, cfg.Payments.Timeout, logging.Component(&baseLogger, "stripe")).
		WithBaseURL(cfg.Payments.BaseURL)

	var store domain.Repository = db
	storeTimeout := cfg.Database.Timeout
	services := api.Services{
		Auth:         service.NewAuthService(store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, storeTimeout, logging.Component(&baseLogger, "auth")),
		Availability: service.NewAvailabilityService(store, store, storeTimeout),
		Bookings:     service.NewBookingService(store, store, eventBus, storeTimeout, logging.Component(&baseLogger, "bookings")),
		Payments: service.NewPaymentService(stripe, store, store, locker, eventBus, service.PaymentOptions{
			Currency:       cfg.Payments.Currency,
			LockTTL:        cfg.Payments.LockTTL,
			StoreTimeout:   storeTimeout,
			GatewayTimeout: cfg.Payments.Timeout,
		}, logging.Component(&baseLogger, "payments")),
		Directory: service.NewDirectoryService(store, store, store, eventBus, storeTimeout, logging.Component(&baseLogger, "directory")),
		Store:     store,
	}

	var grpcServer *api.GRPCServer
	if cfg.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.GRPC, store, &baseLogger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg.HTTP, cfg.RateLimit, services, &baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
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

	return cfg, *baseLogger, closer, nil
}

// initDatabase opens the store and upserts the treatment catalog.
func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error().Err(err).Str("catalog_path", cfg.CatalogPath).Msg("load catalog")
		return nil, err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	defer cancel()
	if err := db.SyncAppointmentOptions(ctx, catalog); err != nil {
		_ = db.Close()
		logger.Error().Err(err).Msg("sync catalog")
		return nil, err
	}

	logger.Info().Int("treatments", len(catalog)).Msg("catalog loaded")
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, redisClient); err != nil {
		// keep the client: the failover locker probes it again later
		logger.Warn().Err(err).Msg("redis connection failed, payment locks fall back to memory")
		return redisClient
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initLocker prefers Redis locks and falls back to in-process locks.
func initLocker(client *redis.Client, logger *zerolog.Logger) domain.Locker {
	memory := repository.NewMemoryLocker()
	if client == nil {
		return memory
	}
	return repository.NewFailoverLocker(repository.NewRedisLocker(client), memory, logging.Component(logger, "locker"))
}

// subscribeAuditEvents writes an audit line for every domain event.
func subscribeAuditEvents(bus *events.EventBus, logger *zerolog.Logger) {
	bus.OnError(func(ev *events.Event, err error) {
		logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: handler failed")
	})

	bus.Subscribe(events.EventBookingCreated, func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		logger.Info().
			Str("event", ev.Type).
			Str("booking_id", payload.BookingID).
			Str("treatment", payload.Treatment).
			Str("date", payload.AppointmentDate).
			Str("slot", payload.Slot).
			Msg("audit")
		return nil
	})

	bus.Subscribe(events.EventPaymentRecorded, func(ev *events.Event) error {
		var payload events.PaymentEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		logger.Info().
			Str("event", ev.Type).
			Str("booking_id", payload.BookingID).
			Str("payment_id", payload.PaymentID).
			Float64("amount", payload.Amount).
			Msg("audit")
		return nil
	})

	bus.Subscribe(events.EventUserPromoted, func(ev *events.Event) error {
		var payload events.UserEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		logger.Info().
			Str("event", ev.Type).
			Str("user_id", payload.UserID).
			Str("role", payload.Role).
			Str("changed_by", payload.ChangedBy).
			Msg("audit")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
