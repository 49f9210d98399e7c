package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-ledger/internal/cache"
	"agri-ledger/internal/database"
	"agri-ledger/internal/events"
	"agri-ledger/internal/features"
	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
	"agri-ledger/internal/validation"
)

func TestRecordMarketSale_PointsEqualQuantity(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	w := seedWorld(t, svc)

	tx, err := svc.RecordMarketSale(ctx, sale(w, 7, testToday))
	require.NoError(t, err)
	assert.Equal(t, 7, tx.PointsEarned)

	f, err := svc.GetFarmer(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, f.Points)
	assert.True(t, f.HasMarketTransaction)
	assert.False(t, f.IsVerified)
}

func TestRecordMarketSale_DuplicateLeavesPointsUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	w := seedWorld(t, svc)

	_, err := svc.RecordMarketSale(ctx, sale(w, 3, testToday))
	require.NoError(t, err)

	_, err = svc.RecordMarketSale(ctx, sale(w, 9, testToday))
	assert.ErrorIs(t, err, sentinel.ErrDuplicateTransaction)

	f, err := svc.GetFarmer(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Points)

	// A different day is a different entry.
	_, err = svc.RecordMarketSale(ctx, sale(w, 2, testToday.AddDays(-1)))
	require.NoError(t, err)
}

func TestRecordMarketSale_UnknownFarmer(t *testing.T) {
	svc := newTestService(t)
	w := seedWorld(t, svc)
	w.farmer.ID = "3f1c2b7e-8a4d-4c1e-9f2a-1b2c3d4e5f60"

	_, err := svc.RecordMarketSale(context.Background(), sale(w, 1, testToday))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRecordMarketSale_RejectsFutureDate(t *testing.T) {
	svc := newTestService(t)
	w := seedWorld(t, svc)

	_, err := svc.RecordMarketSale(context.Background(), sale(w, 1, testToday.AddDays(1)))
	var verr *validation.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRecordInputPurchase_PointsTruncate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	w := seedWorld(t, svc)

	tests := []struct {
		amount string
		want   int
	}{
		{"999.99", 0},
		{"1000.00", 1},
		{"2599.99", 2},
		{"2999.99", 2},
		{"15000", 15},
	}
	total := 0
	for i, tt := range tests {
		tx, err := svc.RecordInputPurchase(ctx, purchase(w, tt.amount, "RCP-"+string(rune('A'+i)), testToday))
		require.NoError(t, err)
		assert.Equal(t, tt.want, tx.PointsEarned, tt.amount)
		total += tt.want
	}

	f, err := svc.GetFarmer(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, total, f.Points)
	assert.True(t, f.HasInputTransaction)
}

func TestRecordInputPurchase_ReceiptUniquePerVendor(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	w := seedWorld(t, svc)

	_, err := svc.RecordInputPurchase(ctx, purchase(w, "5000", "RCP-1", testToday))
	require.NoError(t, err)

	_, err = svc.RecordInputPurchase(ctx, purchase(w, "8000", "RCP-1", testToday))
	assert.ErrorIs(t, err, sentinel.ErrDuplicateReceipt)

	other, err := svc.CreateVendor(ctx, models.CreateVendorRequest{Name: "Farm Inputs Co"})
	require.NoError(t, err)
	w2 := w
	w2.vendor = other
	_, err = svc.RecordInputPurchase(ctx, purchase(w2, "8000", "RCP-1", testToday))
	assert.NoError(t, err)

	f, err := svc.GetFarmer(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, f.Points)
}

func TestVerification_FollowsLedger(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	w := seedWorld(t, svc)

	_, err := svc.RecordMarketSale(ctx, sale(w, 1, testToday))
	require.NoError(t, err)
	first, err := svc.RecordInputPurchase(ctx, purchase(w, "1000", "RCP-1", testToday))
	require.NoError(t, err)
	second, err := svc.RecordInputPurchase(ctx, purchase(w, "2000", "RCP-2", testToday))
	require.NoError(t, err)

	f, err := svc.GetFarmer(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.True(t, f.IsVerified)

	require.NoError(t, svc.DeleteInputPurchase(ctx, first.ID))
	f, err = svc.GetFarmer(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.True(t, f.HasInputTransaction, "one purchase remains")
	assert.True(t, f.IsVerified)

	require.NoError(t, svc.DeleteInputPurchase(ctx, second.ID))
	f, err = svc.GetFarmer(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.False(t, f.HasInputTransaction)
	assert.False(t, f.IsVerified)
	assert.True(t, f.HasMarketTransaction)
	assert.Equal(t, 4, f.Points, "deletions do not reverse points")

	err = svc.DeleteInputPurchase(ctx, second.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestVerification_DeleteMarketSale(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	w := seedWorld(t, svc)

	tx, err := svc.RecordMarketSale(ctx, sale(w, 1, testToday))
	require.NoError(t, err)
	_, err = svc.RecordInputPurchase(ctx, purchase(w, "1000", "RCP-1", testToday))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMarketSale(ctx, tx.ID))

	f, err := svc.GetFarmer(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.False(t, f.HasMarketTransaction)
	assert.False(t, f.IsVerified)
}

func TestVerification_RecomputeOnlyOnTransitions(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	mgr := events.NewManager(true)
	mgr.Subscribe(rec.handle, events.EventVerificationChanged, events.EventMarketSaleRecorded)
	svc := newTestService(t, WithEvents(mgr))
	w := seedWorld(t, svc)

	_, err := svc.RecordMarketSale(ctx, sale(w, 1, testToday))
	require.NoError(t, err)
	_, err = svc.RecordInputPurchase(ctx, purchase(w, "1000", "RCP-1", testToday))
	require.NoError(t, err)
	_, err = svc.RecordMarketSale(ctx, sale(w, 1, testToday.AddDays(-4)))
	require.NoError(t, err)

	verified, err := svc.RecomputeVerification(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.True(t, verified)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, mgr.Shutdown(shutdownCtx))

	assert.Equal(t, 2, rec.count(events.EventMarketSaleRecorded))
	assert.Equal(t, 1, rec.count(events.EventVerificationChanged))
}

func TestEligibilityCheck(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	kaduna := registerFarmer(t, svc, "Kaduna")
	kano := registerFarmer(t, svc, "Kano")

	national := createProgram(t, svc, models.CreateProgramRequest{Rate: decimal.NewFromInt(50)})
	kanoOnly := createProgram(t, svc, models.CreateProgramRequest{
		Level: models.ProgramLevelState,
		State: "Kano",
		Rate:  decimal.NewFromInt(50),
	})

	assert.NoError(t, svc.EligibilityCheck(ctx, kaduna.ID, national.ID))
	assert.NoError(t, svc.EligibilityCheck(ctx, kano.ID, kanoOnly.ID))

	err := svc.EligibilityCheck(ctx, kaduna.ID, kanoOnly.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotEligible)

	_, err = svc.SetBlacklisted(ctx, kano.ID, true)
	require.NoError(t, err)
	err = svc.EligibilityCheck(ctx, kano.ID, national.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotEligible)

	resp, err := svc.CheckEligibility(ctx, kano.ID, national.ID)
	require.NoError(t, err)
	assert.False(t, resp.Eligible)
	assert.Equal(t, "farmer is blacklisted", resp.Reason)
}

func TestPriceRedemption_IneligiblePersistsNothing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	farmer := registerFarmer(t, svc, "Kaduna")
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{
		Level: models.ProgramLevelState,
		State: "Kano",
		Rate:  decimal.NewFromInt(50),
	})

	_, err := svc.PriceRedemption(ctx, models.RedemptionRequest{
		FarmerID: farmer.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, sentinel.ErrNotEligible)

	instances, err := svc.ListRedemptions(ctx, database.SubsidyFilter{ProgramID: program.ID})
	require.NoError(t, err)
	assert.Empty(t, instances)

	p, err := svc.GetProgram(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.CurrentBeneficiaries)
}

func TestPriceRedemption_RateResolution(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	farmer := registerFarmer(t, svc, "Kaduna")
	urea := createFertilizer(t, svc, "12000.00")
	npk := createFertilizer(t, svc, "18000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{Rate: decimal.RequireFromString("25.0")})

	_, err := svc.SetRate(ctx, program.ID, npk.ID, decimal.RequireFromString("40.5"))
	require.NoError(t, err)

	withProgramRate, err := svc.PriceRedemption(ctx, models.RedemptionRequest{
		FarmerID: farmer.ID, ItemID: urea.ID, ProgramID: program.ID, Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RateSourceProgram, withProgramRate.RateSource)
	assert.True(t, decimal.RequireFromString("18000.00").Equal(withProgramRate.DiscountedPrice), withProgramRate.DiscountedPrice.String())
	assert.True(t, testToday.Equal(withProgramRate.RedemptionDate))

	withOverride, err := svc.PriceRedemption(ctx, models.RedemptionRequest{
		FarmerID: farmer.ID, ItemID: npk.ID, ProgramID: program.ID, Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RateSourceOverride, withOverride.RateSource)
	// 18000 * 3 * (1 - 0.405)
	assert.True(t, decimal.RequireFromString("32130.00").Equal(withOverride.DiscountedPrice), withOverride.DiscountedPrice.String())

	p, err := svc.GetProgram(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentBeneficiaries, "two items, one farmer")
}

func TestPriceRedemption_DuplicateAndFrozenPrice(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	farmer := registerFarmer(t, svc, "Kaduna")
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{Rate: decimal.NewFromInt(50)})
	req := models.RedemptionRequest{FarmerID: farmer.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1}

	inst, err := svc.PriceRedemption(ctx, req)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5000.00").Equal(inst.DiscountedPrice))

	_, err = svc.PriceRedemption(ctx, req)
	assert.ErrorIs(t, err, sentinel.ErrDuplicateRedemption)

	_, err = svc.UpdateItemPrice(ctx, item.ID, decimal.RequireFromString("14000.00"))
	require.NoError(t, err)

	instances, err := svc.ListRedemptions(ctx, database.SubsidyFilter{FarmerID: farmer.ID})
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.True(t, decimal.RequireFromString("5000.00").Equal(instances[0].DiscountedPrice))

	history, err := svc.PriceHistory(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, decimal.RequireFromString("14000.00").Equal(history[0].Price))

	p, err := svc.GetProgram(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentBeneficiaries)
}

func TestUpdateItemPrice_UnchangedWritesNoHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	item := createFertilizer(t, svc, "10000.00")

	_, err := svc.UpdateItemPrice(ctx, item.ID, decimal.RequireFromString("10000"))
	require.NoError(t, err)

	history, err := svc.PriceHistory(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSetRate_OutOfRange(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{Rate: decimal.NewFromInt(10)})

	_, err := svc.SetRate(ctx, program.ID, item.ID, decimal.RequireFromString("100.1"))
	assert.ErrorIs(t, err, sentinel.ErrInvalidRate)

	_, err = svc.SetRate(ctx, program.ID, item.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, sentinel.ErrInvalidRate)

	_, err = svc.CreateProgram(ctx, models.CreateProgramRequest{
		Title:     "Broken",
		Level:     models.ProgramLevelNational,
		Rate:      decimal.NewFromInt(120),
		StartDate: models.NewDate(2024, time.January, 1),
		EndDate:   models.NewDate(2024, time.December, 31),
	})
	assert.ErrorIs(t, err, sentinel.ErrInvalidRate)
}

func TestClearRate_FallsBackToProgramRate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	farmer := registerFarmer(t, svc, "Kaduna")
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{Rate: decimal.NewFromInt(20)})

	_, err := svc.SetRate(ctx, program.ID, item.ID, decimal.NewFromInt(90))
	require.NoError(t, err)
	require.NoError(t, svc.ClearRate(ctx, program.ID, item.ID))

	inst, err := svc.PriceRedemption(ctx, models.RedemptionRequest{
		FarmerID: farmer.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RateSourceProgram, inst.RateSource)
	assert.True(t, decimal.RequireFromString("8000.00").Equal(inst.DiscountedPrice))
}

func TestPriceRedemption_ClosedProgram(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	farmer := registerFarmer(t, svc, "Kaduna")
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{
		Rate:      decimal.NewFromInt(50),
		StartDate: models.NewDate(2024, time.January, 1),
		EndDate:   testToday,
	})
	assert.False(t, program.IsActive(testToday))

	_, err := svc.PriceRedemption(ctx, models.RedemptionRequest{
		FarmerID: farmer.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, sentinel.ErrProgramClosed)

	active, err := svc.ListPrograms(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPriceRedemption_BudgetCeiling(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{
		Rate:   decimal.NewFromInt(50),
		Budget: decimal.NewNullDecimal(decimal.NewFromInt(12000)),
	})

	first := registerFarmer(t, svc, "Kaduna")
	second := registerFarmer(t, svc, "Kaduna")

	_, err := svc.PriceRedemption(ctx, models.RedemptionRequest{
		FarmerID: first.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 2,
	})
	require.NoError(t, err)

	_, err = svc.PriceRedemption(ctx, models.RedemptionRequest{
		FarmerID: second.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, sentinel.ErrBudgetExceeded)

	summary, err := svc.ProgramSummary(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Redemptions)
	assert.Equal(t, 1, summary.CurrentBeneficiaries)
	assert.True(t, decimal.NewFromInt(10000).Equal(summary.TotalDisbursed))
	require.True(t, summary.RemainingBudget.Valid)
	assert.True(t, decimal.NewFromInt(2000).Equal(summary.RemainingBudget.Decimal))
}

func TestPriceRedemption_RepeatOnExhaustedBudget(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	farmer := registerFarmer(t, svc, "Kaduna")
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{
		Rate:   decimal.NewFromInt(50),
		Budget: decimal.NewNullDecimal(decimal.RequireFromString("5000.00")),
	})
	req := models.RedemptionRequest{FarmerID: farmer.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1}

	_, err := svc.PriceRedemption(ctx, req)
	require.NoError(t, err)

	_, err = svc.PriceRedemption(ctx, req)
	assert.ErrorIs(t, err, sentinel.ErrDuplicateRedemption)
	assert.NotErrorIs(t, err, sentinel.ErrBudgetExceeded)
}

func TestPriceRedemption_RepeatOnClosedProgram(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db, WithClock(fixedClock))
	farmer := registerFarmer(t, svc, "Kaduna")
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{
		Rate:      decimal.NewFromInt(50),
		StartDate: models.NewDate(2024, time.January, 1),
		EndDate:   testToday.AddDays(1),
	})
	req := models.RedemptionRequest{FarmerID: farmer.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1}

	_, err := svc.PriceRedemption(ctx, req)
	require.NoError(t, err)

	later := NewService(db, WithClock(func() time.Time { return testNow.AddDate(0, 1, 0) }))
	_, err = later.PriceRedemption(ctx, req)
	assert.ErrorIs(t, err, sentinel.ErrDuplicateRedemption)

	other := registerFarmer(t, later, "Kaduna")
	req.FarmerID = other.ID
	_, err = later.PriceRedemption(ctx, req)
	assert.ErrorIs(t, err, sentinel.ErrProgramClosed)
}

func TestProgramSummary_CountsRecordedBeneficiaries(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	svc := newTestService(t, WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
	farmer := registerFarmer(t, svc, "Kaduna")
	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{Rate: decimal.NewFromInt(50)})

	_, err := svc.PriceRedemption(ctx, models.RedemptionRequest{
		FarmerID: farmer.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1,
	})
	require.NoError(t, err)

	// Drift the stored counter away from the beneficiary rows.
	_, err = svc.db.Queries().IncrementBeneficiaries(ctx, program.ID, testNow)
	require.NoError(t, err)

	summary, err := svc.ProgramSummary(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CurrentBeneficiaries)
	assert.Contains(t, logs.String(), "beneficiary counter disagrees with recorded beneficiaries")
}

func TestBadges_AwardedOnce(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	mgr := events.NewManager(true)
	mgr.Subscribe(rec.handle, events.EventBadgeAwarded)
	svc := newTestService(t, WithEvents(mgr))
	w := seedWorld(t, svc)

	_, err := svc.CreateBadge(ctx, models.CreateBadgeRequest{Name: "Bronze", PointsRequired: 5})
	require.NoError(t, err)
	_, err = svc.CreateBadge(ctx, models.CreateBadgeRequest{Name: "Silver", PointsRequired: 20})
	require.NoError(t, err)

	_, err = svc.RecordMarketSale(ctx, sale(w, 6, testToday))
	require.NoError(t, err)
	_, err = svc.RecordMarketSale(ctx, sale(w, 6, testToday.AddDays(-1)))
	require.NoError(t, err)

	badges, err := svc.FarmerBadges(ctx, w.farmer.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "Bronze", badges[0].BadgeName)

	require.NoError(t, mgr.Shutdown(ctx))
	assert.Equal(t, 1, rec.count(events.EventBadgeAwarded))
}

func TestBadges_DisabledByFeatureFlag(t *testing.T) {
	ctx := context.Background()
	flags := features.NewDefaultManager(features.Defaults{BadgeAwards: false})
	svc := newTestService(t, WithFeatures(flags))
	w := seedWorld(t, svc)

	_, err := svc.CreateBadge(ctx, models.CreateBadgeRequest{Name: "Bronze", PointsRequired: 1})
	require.NoError(t, err)
	_, err = svc.RecordMarketSale(ctx, sale(w, 3, testToday))
	require.NoError(t, err)

	badges, err := svc.FarmerBadges(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Empty(t, badges)
}

func TestFarmerStanding_CachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	store := cache.NewInMemoryCache()
	svc := newTestService(t, WithCache(store, time.Minute))
	w := seedWorld(t, svc)

	standing, err := svc.FarmerStanding(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, standing.Points)
	assert.Equal(t, 1, store.Len())

	_, err = svc.RecordMarketSale(ctx, sale(w, 4, testToday))
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len(), "write drops the cached standing")

	standing, err = svc.FarmerStanding(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, standing.Points)
	assert.Equal(t, 4, standing.MarketPoints)
	assert.True(t, standing.HasMarketTransaction)

	cachedStanding, err := svc.FarmerStanding(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, standing.Points, cachedStanding.Points)
}

func TestFarmerStanding_CacheFlagOff(t *testing.T) {
	ctx := context.Background()
	store := cache.NewInMemoryCache()
	flags := features.NewDefaultManager(features.Defaults{Cache: false, BadgeAwards: true})
	svc := newTestService(t, WithCache(store, time.Minute), WithFeatures(flags))
	w := seedWorld(t, svc)

	_, err := svc.FarmerStanding(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	w := seedWorld(t, svc)

	lastYear := models.NewDate(2023, time.November, 3)
	_, err := svc.RecordMarketSale(ctx, sale(w, 5, lastYear))
	require.NoError(t, err)
	_, err = svc.RecordMarketSale(ctx, sale(w, 3, testToday))
	require.NoError(t, err)
	_, err = svc.RecordInputPurchase(ctx, purchase(w, "4200.50", "RCP-1", testToday))
	require.NoError(t, err)

	report, err := svc.FarmerPoints(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, report.Total)
	assert.Equal(t, 12, report.Accumulated)
	assert.Equal(t, 8, report.MarketPoints)
	assert.Equal(t, 4, report.InputPoints)
	assert.Equal(t, map[int]int{2023: 5, 2024: 7}, report.ByYear)
	assert.Equal(t, map[string]int{w.market.ID: 8}, report.ByMarket)

	mkt, err := svc.MarketPoints(ctx, w.market.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, mkt.Total)
	assert.Equal(t, map[int]int{2023: 5, 2024: 3}, mkt.ByYear)

	item := createFertilizer(t, svc, "10000.00")
	program := createProgram(t, svc, models.CreateProgramRequest{Rate: decimal.NewFromInt(30)})
	_, err = svc.PriceRedemption(ctx, models.RedemptionRequest{
		FarmerID: w.farmer.ID, ItemID: item.ID, ProgramID: program.ID, Quantity: 1,
	})
	require.NoError(t, err)

	totals, err := svc.SubsidyTotals(ctx, database.SubsidyFilter{FarmerID: w.farmer.ID, ProgramID: program.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Redemptions)
	assert.True(t, decimal.NewFromInt(3000).Equal(totals.SubsidyValue))
	assert.True(t, decimal.NewFromInt(7000).Equal(totals.FarmerPaid))

	standing, err := svc.FarmerStanding(ctx, w.farmer.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3000).Equal(standing.SubsidyReceived))
}

func TestProducePrices_AdvanceLastMarketDay(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	w := seedWorld(t, svc)

	day := models.NewDate(2024, time.June, 7)
	req := models.ProducePriceRequest{
		MarketID:   w.market.ID,
		ProduceID:  w.produce.ID,
		Price:      decimal.RequireFromString("35000.00"),
		MarketDate: day,
	}
	_, err := svc.RecordProducePrice(ctx, req)
	require.NoError(t, err)

	_, err = svc.RecordProducePrice(ctx, req)
	assert.ErrorIs(t, err, sentinel.ErrDuplicatePrice)

	m, err := svc.GetMarket(ctx, w.market.ID)
	require.NoError(t, err)
	assert.True(t, day.Equal(m.LastMarketDay))

	// 2024-06-07 + 4 days
	next, err := svc.NextMarketDay(ctx, w.market.ID)
	require.NoError(t, err)
	assert.True(t, models.NewDate(2024, time.June, 11).Equal(next.NextMarketDay), next.NextMarketDay.String())
	assert.False(t, next.IsMarketDay)

	prices, err := svc.ProducePrices(ctx, w.market.ID, day)
	require.NoError(t, err)
	assert.Len(t, prices, 1)
}

func TestDeleteFarmer(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	w := seedWorld(t, svc)

	_, err := svc.RecordMarketSale(ctx, sale(w, 1, testToday))
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteFarmer(ctx, w.farmer.ID), sentinel.ErrReferenced)

	idle := registerFarmer(t, svc, "Lagos")
	require.NoError(t, svc.DeleteFarmer(ctx, idle.ID))
	_, err = svc.GetFarmer(ctx, idle.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRegisterFarmer_DuplicateIdentification(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	req := models.RegisterFarmerRequest{
		FirstName:            "Musa",
		LastName:             "Danjuma",
		IdentificationNumber: "22233344455",
		Category:             models.CategorySmallMediumHolder,
		FarmSize:             decimal.NewFromInt(5),
		StateOfResidence:     "Niger",
	}
	_, err := svc.RegisterFarmer(ctx, req)
	require.NoError(t, err)

	_, err = svc.RegisterFarmer(ctx, req)
	assert.ErrorIs(t, err, sentinel.ErrDuplicateFarmer)
}
