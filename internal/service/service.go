package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"agri-ledger/internal/cache"
	"agri-ledger/internal/database"
	"agri-ledger/internal/events"
	"agri-ledger/internal/features"
	"agri-ledger/internal/metrics"
	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
	"agri-ledger/internal/tracing"
)

// DefaultCacheTTL bounds how long a cached read model may lag writes made by other
// processes. Writes made through this Service invalidate immediately.
const DefaultCacheTTL = 30 * time.Second

// Service provides the accounting engine's operations. Every write runs in a single
// database transaction; cache invalidation, events and metrics follow the commit.
type Service struct {
	db       *database.DB
	cache    cache.Cache
	cacheTTL time.Duration
	events   *events.Manager
	features *features.Manager
	metrics  *metrics.Metrics
	tracer   *tracing.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithEvents(m *events.Manager) Option {
	return func(s *Service) {
		s.events = m
	}
}

func WithFeatures(m *features.Manager) Option {
	return func(s *Service) {
		s.features = m
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t *tracing.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithClock overrides the source of "now", which also decides "today" for program
// activity and ledger date checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new service instance.
func NewService(db *database.DB, opts ...Option) *Service {
	s := &Service{
		db:       db,
		cache:    cache.Noop{},
		cacheTTL: DefaultCacheTTL,
		events:   events.NewManager(false),
		metrics:  metrics.New(nil),
		tracer:   tracing.Noop(),
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) today() models.Date {
	return models.DateOf(s.clock())
}

// write runs fn in one transaction inside a span and records its latency.
func (s *Service) write(ctx context.Context, op string, fn func(q *database.Queries) error, attrs ...attribute.KeyValue) error {
	ctx, span := s.tracer.StartSpan(ctx, "service."+op, attrs...)
	start := time.Now()

	err := s.db.RunInTx(ctx, fn)

	s.metrics.ObserveWrite(op, start)
	tracing.End(span, err)
	return err
}

// invalidate drops cached read models. Failures only cost freshness until the TTL runs out.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if !s.features.IsEnabled(features.CacheEnabled) || len(keys) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

// cached returns the value stored under key, or calls load and stores its result.
func cached[T any](ctx context.Context, s *Service, key string, load func(ctx context.Context) (T, error)) (T, error) {
	useCache := s.features.IsEnabled(features.CacheEnabled)
	if useCache {
		var v T
		err := cache.GetJSON(ctx, s.cache, key, &v)
		if err == nil {
			s.metrics.IncCache(true)
			return v, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("cache read failed", "key", key, "error", err)
		}
		s.metrics.IncCache(false)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if useCache {
		if err := cache.SetJSON(ctx, s.cache, key, v, s.cacheTTL); err != nil {
			s.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

func (s *Service) eventsEnabled() bool {
	return s.features.IsEnabled(features.EventHooksEnabled)
}

// countDuplicate bumps the rejection counter when err is one of the uniqueness sentinels.
func (s *Service) countDuplicate(err error) {
	switch {
	case errors.Is(err, sentinel.ErrDuplicateTransaction):
		s.metrics.IncDuplicate("market_transaction")
	case errors.Is(err, sentinel.ErrDuplicateReceipt):
		s.metrics.IncDuplicate("receipt")
	case errors.Is(err, sentinel.ErrDuplicateRedemption):
		s.metrics.IncDuplicate("redemption")
	}
}
