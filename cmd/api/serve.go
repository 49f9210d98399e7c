package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"agri-ledger/internal/cache"
	"agri-ledger/internal/config"
	"agri-ledger/internal/events"
	"agri-ledger/internal/features"
	"agri-ledger/internal/handler"
	"agri-ledger/internal/metrics"
	"agri-ledger/internal/middleware"
	"agri-ledger/internal/service"
	"agri-ledger/internal/tracing"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  serveRun,
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	logger := newLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	readCache, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	tracer, err := tracing.InitTracing(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
	})
	if err != nil {
		return err
	}

	eventManager, kafkaSink, err := newEvents(ctx, cfg.Events, logger)
	if err != nil {
		return err
	}

	flags := features.NewDefaultManager(features.Defaults{
		Cache:       cfg.Cache.Backend != "none",
		EventHooks:  cfg.Events.Enabled,
		BadgeAwards: cfg.Features.BadgeAwards,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := service.NewService(db,
		service.WithLogger(logger),
		service.WithCache(readCache, cfg.Cache.TTL),
		service.WithEvents(eventManager),
		service.WithFeatures(flags),
		service.WithMetrics(metrics.New(registry)),
		service.WithTracer(tracer),
	)
	h := handler.NewHandlerWithOptions(svc, handler.NewHandlerOptions{
		MaxBodySize: cfg.Security.MaxRequestBodySize,
		Logger:      logger,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second)
		defer rateLimiter.Stop()
		r.Use(middleware.RateLimitMiddleware(rateLimiter))
	}
	if cfg.Tracing.Enabled {
		r.Use(middleware.TracingMiddleware(cfg.Tracing.ServiceName))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.Security.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.Routes(r)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		tlsEnabled := cfg.Server.CertFile != ""
		logger.Info("starting server",
			"addr", server.Addr,
			"tls", tlsEnabled,
			"database", cfg.Database.Driver,
			"cache", cfg.Cache.Backend,
		)
		var err error
		if tlsEnabled {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := eventManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("event manager shutdown", "error", err)
	}
	if kafkaSink != nil {
		if err := kafkaSink.Close(shutdownCtx); err != nil {
			logger.Error("kafka sink close", "error", err)
		}
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", "error", err)
	}
	return nil
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, func(), error) {
	switch cfg.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { rc.Close() }, nil
	case "none":
		return cache.Noop{}, func() {}, nil
	default:
		return cache.NewInMemoryCache(), func() {}, nil
	}
}

// newEvents builds the event manager and subscribes the configured sinks. The Kafka sink
// is nil when no brokers are configured.
func newEvents(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (*events.Manager, *events.KafkaSink, error) {
	manager := events.NewManager(cfg.Enabled, events.WithLogger(logger))
	if !cfg.Enabled {
		return manager, nil, nil
	}

	if cfg.Log {
		manager.Subscribe(events.LogHandler(logger))
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return manager, nil, nil
	}
	sink, err := events.NewKafkaSink(events.KafkaConfig{
		Brokers:    cfg.Kafka.Brokers,
		Topic:      cfg.Kafka.Topic,
		Partitions: cfg.Kafka.Partitions,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := sink.EnsureTopic(ctx); err != nil {
		sink.Close(ctx)
		return nil, nil, err
	}
	manager.Subscribe(sink.Handle)
	return manager, sink, nil
}
