package events

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"agri-ledger/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	EventMarketSaleRecorded    EventType = "ledger.market_sale.recorded"
	EventMarketSaleDeleted     EventType = "ledger.market_sale.deleted"
	EventInputPurchaseRecorded EventType = "ledger.input_purchase.recorded"
	EventInputPurchaseDeleted  EventType = "ledger.input_purchase.deleted"
	EventVerificationChanged   EventType = "farmer.verification.changed"
	EventSubsidyRedeemed       EventType = "subsidy.redeemed"
	EventBadgeAwarded          EventType = "farmer.badge.awarded"
	EventProducePriceRecorded  EventType = "market.produce_price.recorded"
)

// AllTypes lists every event type, for sinks that subscribe to everything.
var AllTypes = []EventType{
	EventMarketSaleRecorded,
	EventMarketSaleDeleted,
	EventInputPurchaseRecorded,
	EventInputPurchaseDeleted,
	EventVerificationChanged,
	EventSubsidyRedeemed,
	EventBadgeAwarded,
	EventProducePriceRecorded,
}

// Event represents an event in the system. Key groups related events (the farmer ID for
// ledger events) so ordered sinks can partition on it.
type Event struct {
	Type      EventType `json:"type"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type MarketSaleData struct {
	Transaction  models.MarketTransaction `json:"transaction"`
	FarmerPoints int                      `json:"farmer_points"`
}

type InputPurchaseData struct {
	Transaction  models.InputTransaction `json:"transaction"`
	FarmerPoints int                     `json:"farmer_points"`
}

type VerificationChangedData struct {
	FarmerID             string `json:"farmer_id"`
	HasMarketTransaction bool   `json:"has_market_transaction"`
	HasInputTransaction  bool   `json:"has_input_transaction"`
	IsVerified           bool   `json:"is_verified"`
}

type SubsidyRedeemedData struct {
	Instance       models.SubsidyInstance `json:"instance"`
	NewBeneficiary bool                   `json:"new_beneficiary"`
}

type BadgeAwardedData struct {
	FarmerID  string `json:"farmer_id"`
	BadgeID   string `json:"badge_id"`
	BadgeName string `json:"badge_name"`
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager fans published events out to subscribed handlers. Handlers run on their own
// goroutines; Shutdown waits for the ones in flight.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
	wg       sync.WaitGroup
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new event manager. A disabled manager drops every event.
func NewManager(enabled bool, opts ...Option) *Manager {
	m := &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe subscribes a handler to the given event types, or to all of them when none
// are named.
func (m *Manager) Subscribe(handler Handler, types ...EventType) {
	if len(types) == 0 {
		types = AllTypes
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}
	for _, t := range types {
		m.handlers[t] = append(m.handlers[t], handler)
	}
}

// Publish publishes an event to all subscribed handlers. The handlers outlive the
// caller's request, so they get a context detached from its cancellation.
func (m *Manager) Publish(ctx context.Context, eventType EventType, key string, data any) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.enabled {
		return
	}
	handlers := m.handlers[eventType]
	if len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      eventType,
		Key:       key,
		Timestamp: m.now().UTC(),
		Data:      data,
	}
	hctx := context.WithoutCancel(ctx)

	m.wg.Add(len(handlers))
	for _, handler := range handlers {
		go func(h Handler) {
			defer m.wg.Done()
			if err := h(hctx, event); err != nil {
				m.logger.Error("event handler failed", "type", string(event.Type), "key", event.Key, "error", err)
			}
		}(handler)
	}
}

func (m *Manager) PublishMarketSale(ctx context.Context, eventType EventType, tx models.MarketTransaction, points int) {
	m.Publish(ctx, eventType, tx.FarmerID, MarketSaleData{Transaction: tx, FarmerPoints: points})
}

func (m *Manager) PublishInputPurchase(ctx context.Context, eventType EventType, tx models.InputTransaction, points int) {
	m.Publish(ctx, eventType, tx.FarmerID, InputPurchaseData{Transaction: tx, FarmerPoints: points})
}

func (m *Manager) PublishVerificationChanged(ctx context.Context, f models.Farmer) {
	m.Publish(ctx, EventVerificationChanged, f.ID, VerificationChangedData{
		FarmerID:             f.ID,
		HasMarketTransaction: f.HasMarketTransaction,
		HasInputTransaction:  f.HasInputTransaction,
		IsVerified:           f.IsVerified,
	})
}

func (m *Manager) PublishSubsidyRedeemed(ctx context.Context, s models.SubsidyInstance, newBeneficiary bool) {
	m.Publish(ctx, EventSubsidyRedeemed, s.FarmerID, SubsidyRedeemedData{Instance: s, NewBeneficiary: newBeneficiary})
}

func (m *Manager) PublishBadgeAwarded(ctx context.Context, farmerID string, b models.Badge) {
	m.Publish(ctx, EventBadgeAwarded, farmerID, BadgeAwardedData{FarmerID: farmerID, BadgeID: b.ID, BadgeName: b.Name})
}

func (m *Manager) PublishProducePrice(ctx context.Context, p models.ProducePrice) {
	m.Publish(ctx, EventProducePriceRecorded, p.MarketID, p)
}

// Shutdown stops accepting events and waits for running handlers until ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogHandler writes every event it receives to logger.
func LogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		logger.InfoContext(ctx, "event", "type", string(event.Type), "key", event.Key, "timestamp", event.Timestamp)
		return nil
	}
}
