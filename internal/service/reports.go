package service

import (
	"context"

	"github.com/shopspring/decimal"

	"agri-ledger/internal/cache"
	"agri-ledger/internal/database"
	"agri-ledger/internal/models"
	"agri-ledger/internal/validation"
)

// FarmerStanding returns a farmer's points, flags, badges and subsidy received. The read
// model is cached; writes through this Service drop it, and the cache TTL bounds how stale
// it can be after writes from elsewhere.
func (s *Service) FarmerStanding(ctx context.Context, farmerID string) (models.FarmerStanding, error) {
	if err := validation.ValidateUUID(farmerID, "farmer_id"); err != nil {
		return models.FarmerStanding{}, err
	}

	return cached(ctx, s, cache.FarmerStandingKey(farmerID), func(ctx context.Context) (models.FarmerStanding, error) {
		q := s.db.Queries()
		f, err := q.GetFarmer(ctx, farmerID)
		if err != nil {
			return models.FarmerStanding{}, err
		}

		report, err := s.pointsReport(ctx, q, f)
		if err != nil {
			return models.FarmerStanding{}, err
		}
		badges, err := q.ListFarmerBadges(ctx, farmerID)
		if err != nil {
			return models.FarmerStanding{}, err
		}
		totals, err := subsidyTotals(ctx, q, database.SubsidyFilter{FarmerID: farmerID})
		if err != nil {
			return models.FarmerStanding{}, err
		}

		standing := models.FarmerStanding{
			FarmerID:             f.ID,
			Points:               f.Points,
			MarketPoints:         report.MarketPoints,
			InputPoints:          report.InputPoints,
			HasMarketTransaction: f.HasMarketTransaction,
			HasInputTransaction:  f.HasInputTransaction,
			IsVerified:           f.IsVerified,
			Blacklisted:          f.Blacklisted,
			Badges:               make([]string, 0, len(badges)),
			SubsidyReceived:      totals.SubsidyValue,
		}
		for _, b := range badges {
			standing.Badges = append(standing.Badges, b.BadgeName)
		}
		return standing, nil
	})
}

// FarmerPoints breaks the points on a farmer's current ledger entries down by source,
// calendar year and market.
func (s *Service) FarmerPoints(ctx context.Context, farmerID string) (models.PointsReport, error) {
	if err := validation.ValidateUUID(farmerID, "farmer_id"); err != nil {
		return models.PointsReport{}, err
	}
	q := s.db.Queries()
	f, err := q.GetFarmer(ctx, farmerID)
	if err != nil {
		return models.PointsReport{}, err
	}
	return s.pointsReport(ctx, q, f)
}

func (s *Service) pointsReport(ctx context.Context, q *database.Queries, f models.Farmer) (models.PointsReport, error) {
	filter := database.LedgerFilter{FarmerID: f.ID}
	sales, err := q.ListMarketTransactions(ctx, filter)
	if err != nil {
		return models.PointsReport{}, err
	}
	purchases, err := q.ListInputTransactions(ctx, filter)
	if err != nil {
		return models.PointsReport{}, err
	}

	report := models.PointsReport{
		FarmerID:    f.ID,
		Accumulated: f.Points,
		ByYear:      make(map[int]int),
		ByMarket:    make(map[string]int),
	}
	for _, t := range sales {
		report.MarketPoints += t.PointsEarned
		report.ByYear[t.TransactionDate.Year()] += t.PointsEarned
		report.ByMarket[t.MarketID] += t.PointsEarned
	}
	for _, t := range purchases {
		report.InputPoints += t.PointsEarned
		report.ByYear[t.TransactionDate.Year()] += t.PointsEarned
	}
	report.Total = report.MarketPoints + report.InputPoints
	return report, nil
}

// MarketPoints sums the points farmers earned selling at a market, per calendar year.
func (s *Service) MarketPoints(ctx context.Context, marketID string) (models.MarketPointsReport, error) {
	if _, err := s.GetMarket(ctx, marketID); err != nil {
		return models.MarketPointsReport{}, err
	}

	sales, err := s.db.Queries().ListMarketTransactions(ctx, database.LedgerFilter{MarketID: marketID})
	if err != nil {
		return models.MarketPointsReport{}, err
	}

	report := models.MarketPointsReport{MarketID: marketID, ByYear: make(map[int]int)}
	for _, t := range sales {
		report.Total += t.PointsEarned
		report.ByYear[t.TransactionDate.Year()] += t.PointsEarned
	}
	return report, nil
}

// SubsidyTotals sums redemptions under a program, for a farmer, or for a farmer under one
// program, depending on which filter fields are set.
func (s *Service) SubsidyTotals(ctx context.Context, filter database.SubsidyFilter) (models.SubsidyTotals, error) {
	if err := validateSubsidyFilter(filter); err != nil {
		return models.SubsidyTotals{}, err
	}
	return subsidyTotals(ctx, s.db.Queries(), filter)
}

func validateSubsidyFilter(filter database.SubsidyFilter) error {
	if filter.ProgramID != "" {
		if err := validation.ValidateUUID(filter.ProgramID, "program_id"); err != nil {
			return err
		}
	}
	if filter.FarmerID != "" {
		if err := validation.ValidateUUID(filter.FarmerID, "farmer_id"); err != nil {
			return err
		}
	}
	return nil
}

func subsidyTotals(ctx context.Context, q *database.Queries, filter database.SubsidyFilter) (models.SubsidyTotals, error) {
	instances, err := q.ListSubsidyInstances(ctx, filter)
	if err != nil {
		return models.SubsidyTotals{}, err
	}

	totals := models.SubsidyTotals{
		ProgramID:    filter.ProgramID,
		FarmerID:     filter.FarmerID,
		Redemptions:  len(instances),
		GrossValue:   decimal.Zero,
		FarmerPaid:   decimal.Zero,
		SubsidyValue: decimal.Zero,
		ByProgram:    make(map[string]decimal.Decimal),
	}
	for _, inst := range instances {
		totals.GrossValue = totals.GrossValue.Add(inst.GrossPrice)
		totals.FarmerPaid = totals.FarmerPaid.Add(inst.DiscountedPrice)
		totals.SubsidyValue = totals.SubsidyValue.Add(inst.SubsidyValue())
		totals.ByProgram[inst.ProgramID] = totals.ByProgram[inst.ProgramID].Add(inst.SubsidyValue())
	}
	return totals, nil
}
