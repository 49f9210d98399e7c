package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"agri-ledger/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	m := NewManager(true)
	rec := &recorder{}
	m.Subscribe(rec.handle, EventMarketSaleRecorded)

	tx := models.MarketTransaction{ID: "t1", FarmerID: "f1", Quantity: 7, PointsEarned: 7}
	m.PublishMarketSale(context.Background(), EventMarketSaleRecorded, tx, 7)
	m.PublishBadgeAwarded(context.Background(), "f1", models.Badge{ID: "b1", Name: "Bronze"})

	require.NoError(t, m.Shutdown(context.Background()))

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, EventMarketSaleRecorded, got[0].Type)
	assert.Equal(t, "f1", got[0].Key)
	data, ok := got[0].Data.(MarketSaleData)
	require.True(t, ok)
	assert.Equal(t, 7, data.FarmerPoints)
}

func TestSubscribeAllTypes(t *testing.T) {
	m := NewManager(true)
	rec := &recorder{}
	m.Subscribe(rec.handle)

	m.PublishVerificationChanged(context.Background(), models.Farmer{ID: "f1", IsVerified: true})
	m.PublishSubsidyRedeemed(context.Background(), models.SubsidyInstance{ID: "s1", FarmerID: "f1"}, true)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, rec.snapshot(), 2)
}

func TestDisabledManagerDropsEvents(t *testing.T) {
	m := NewManager(false)
	rec := &recorder{}
	m.Subscribe(rec.handle)

	m.PublishVerificationChanged(context.Background(), models.Farmer{ID: "f1"})

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Empty(t, rec.snapshot())
}

func TestHandlerSurvivesCallerCancellation(t *testing.T) {
	m := NewManager(true)
	seen := make(chan error, 1)
	m.Subscribe(func(ctx context.Context, _ Event) error {
		seen <- ctx.Err()
		return errors.New("sink unavailable")
	}, EventBadgeAwarded)

	ctx, cancel := context.WithCancel(context.Background())
	m.PublishBadgeAwarded(ctx, "f1", models.Badge{ID: "b1"})
	cancel()

	require.NoError(t, m.Shutdown(context.Background()))
	assert.NoError(t, <-seen)
}

func TestShutdownTimesOut(t *testing.T) {
	m := NewManager(true)
	release := make(chan struct{})
	m.Subscribe(func(context.Context, Event) error {
		<-release
		return nil
	}, EventBadgeAwarded)

	m.PublishBadgeAwarded(context.Background(), "f1", models.Badge{ID: "b1"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestPublishAfterShutdown(t *testing.T) {
	m := NewManager(true)
	rec := &recorder{}
	m.Subscribe(rec.handle)
	require.NoError(t, m.Shutdown(context.Background()))

	m.PublishBadgeAwarded(context.Background(), "f1", models.Badge{ID: "b1"})
	assert.Empty(t, rec.snapshot())
}
