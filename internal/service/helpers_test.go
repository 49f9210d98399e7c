package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"agri-ledger/internal/database"
	"agri-ledger/internal/events"
	"agri-ledger/internal/models"
)

var (
	testNow   = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	testToday = models.DateOf(testNow)

	idSeq atomic.Int64
)

func fixedClock() time.Time { return testNow }

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return NewService(newTestDB(t), opts...)
}

// suffix keeps catalog names unique when a database outlives a single test.
func suffix() string {
	return uuid.NewString()[:8]
}

type world struct {
	farmer  models.Farmer
	market  models.Market
	vendor  models.Vendor
	produce models.Produce
}

func seedWorld(t *testing.T, svc *Service) world {
	t.Helper()
	ctx := context.Background()

	market, err := svc.CreateMarket(ctx, models.CreateMarketRequest{
		Name:              "Kawo Market " + suffix(),
		State:             "Kaduna",
		MarketDayInterval: 4,
		ReferenceDate:     models.NewDate(2024, time.January, 2),
	})
	require.NoError(t, err)

	vendor, err := svc.CreateVendor(ctx, models.CreateVendorRequest{Name: "Agro Dealers Ltd", State: "Kaduna", Verified: true})
	require.NoError(t, err)

	produce, err := svc.CreateProduce(ctx, models.CreateProduceRequest{Name: "maize " + suffix(), Unit: "bag"})
	require.NoError(t, err)

	return world{
		farmer:  registerFarmer(t, svc, "Kaduna"),
		market:  market,
		vendor:  vendor,
		produce: produce,
	}
}

func registerFarmer(t *testing.T, svc *Service, state string) models.Farmer {
	t.Helper()
	f, err := svc.RegisterFarmer(context.Background(), models.RegisterFarmerRequest{
		FirstName:            "Amina",
		LastName:             "Bello",
		IdentificationNumber: fmt.Sprintf("%011d", idSeq.Add(1)),
		Category:             models.CategorySmallholder,
		FarmSize:             decimal.RequireFromString("2.50"),
		StateOfResidence:     state,
	})
	require.NoError(t, err)
	return f
}

func createProgram(t *testing.T, svc *Service, req models.CreateProgramRequest) models.SubsidyProgram {
	t.Helper()
	if req.Title == "" {
		req.Title = "Fertilizer Support " + suffix()
	}
	if req.Level == "" {
		req.Level = models.ProgramLevelNational
	}
	if req.StartDate.IsZero() {
		req.StartDate = models.NewDate(2024, time.January, 1)
	}
	if req.EndDate.IsZero() {
		req.EndDate = models.NewDate(2024, time.December, 31)
	}
	p, err := svc.CreateProgram(context.Background(), req)
	require.NoError(t, err)
	return p
}

func createFertilizer(t *testing.T, svc *Service, price string) models.SubsidizedItem {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), models.CreateItemRequest{
		Kind:       models.ItemKindFertilizer,
		Name:       "NPK 20:10:10 " + suffix(),
		Unit:       models.Unit50Kilogram,
		Price:      decimal.RequireFromString(price),
		Fertilizer: &models.FertilizerDetail{Manufacturer: "Indorama", Type: "NPK", Blend: "20:10:10"},
	})
	require.NoError(t, err)
	return item
}

func sale(w world, quantity int, day models.Date) models.MarketSaleRequest {
	return models.MarketSaleRequest{
		FarmerID:        w.farmer.ID,
		MarketID:        w.market.ID,
		ProduceID:       w.produce.ID,
		Quantity:        quantity,
		TransactionDate: day,
	}
}

func purchase(w world, amount, receipt string, day models.Date) models.InputPurchaseRequest {
	return models.InputPurchaseRequest{
		FarmerID:        w.farmer.ID,
		VendorID:        w.vendor.ID,
		Amount:          decimal.RequireFromString(amount),
		ReceiptNumber:   receipt,
		TransactionDate: day,
	}
}

// recorder collects published events for assertions after Manager.Shutdown.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count(t events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}
