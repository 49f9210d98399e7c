package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
)

// concurrentDuplicateRedemption races identical redemptions; exactly one may win.
func concurrentDuplicateRedemption(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	farmer := registerFarmer(t, svc, "Kaduna")
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{Rate: decimal.NewFromInt(50)})
	req := models.RedemptionRequest{FarmerID: farmer.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1}

	const attempts = 8
	results := make([]error, attempts)
	var g errgroup.Group
	for i := range attempts {
		g.Go(func() error {
			_, err := svc.PriceRedemption(ctx, req)
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	won := 0
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, sentinel.ErrDuplicateRedemption):
		default:
			t.Fatalf("unexpected redemption error: %v", err)
		}
	}
	assert.Equal(t, 1, won)

	p, err := svc.GetProgram(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentBeneficiaries)
}

// concurrentBeneficiaries has distinct farmers redeem at once; none may be lost.
func concurrentBeneficiaries(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{Rate: decimal.NewFromInt(50)})

	const farmers = 10
	ids := make([]string, farmers)
	for i := range ids {
		ids[i] = registerFarmer(t, svc, "Kaduna").ID
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			_, err := svc.PriceRedemption(gctx, models.RedemptionRequest{
				FarmerID: id, ItemID: item.ID, ProgramID: program.ID, Quantity: 1,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	p, err := svc.GetProgram(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, farmers, p.CurrentBeneficiaries)

	counted, err := svc.db.Queries().CountBeneficiaries(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, p.CurrentBeneficiaries, counted)
}

// concurrentSales records many sales for one farmer on distinct days; points must add up.
func concurrentSales(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	w := seedWorld(t, svc)

	const days = 12
	var g errgroup.Group
	for i := range days {
		g.Go(func() error {
			_, err := svc.RecordMarketSale(ctx, sale(w, 2, testToday.AddDays(-i)))
			return err
		})
	}
	require.NoError(t, g.Wait())

	f, err := svc.GetFarmer(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2*days, f.Points)
}

func TestConcurrentDuplicateRedemption(t *testing.T) {
	concurrentDuplicateRedemption(t, newTestService(t))
}

func TestConcurrentBeneficiaries(t *testing.T) {
	concurrentBeneficiaries(t, newTestService(t))
}

func TestConcurrentSales(t *testing.T) {
	concurrentSales(t, newTestService(t))
}
