package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"agri-ledger/internal/cache"
	"agri-ledger/internal/database"
	"agri-ledger/internal/events"
	"agri-ledger/internal/features"
	"agri-ledger/internal/models"
	"agri-ledger/internal/points"
	"agri-ledger/internal/pricing"
	"agri-ledger/internal/validation"
)

// pointsChange collects what a ledger write did to the farmer, for post-commit effects.
type pointsChange struct {
	farmer       models.Farmer
	total        int
	verification bool // is_verified flipped
	badges       []models.Badge
}

// RecordMarketSale appends a market sale, credits quantity points and sets the market flag.
// A repeated (produce, farmer, market, date) fails with sentinel.ErrDuplicateTransaction.
func (s *Service) RecordMarketSale(ctx context.Context, req models.MarketSaleRequest) (models.MarketTransaction, error) {
	if err := validation.ValidateMarketSale(req, s.today()); err != nil {
		return models.MarketTransaction{}, err
	}

	now := s.clock()
	tx := models.MarketTransaction{
		ID:              uuid.NewString(),
		FarmerID:        req.FarmerID,
		MarketID:        req.MarketID,
		ProduceID:       req.ProduceID,
		Quantity:        req.Quantity,
		TransactionDate: req.TransactionDate,
		PointsEarned:    points.MarketSalePoints(req.Quantity),
		AuditFields:     models.AuditFields{CreatedAt: now, UpdatedAt: now},
	}

	var change pointsChange
	err := s.write(ctx, "record_market_sale", func(q *database.Queries) error {
		f, err := q.GetFarmerForUpdate(ctx, tx.FarmerID)
		if err != nil {
			return err
		}
		if err := q.InsertMarketTransaction(ctx, tx); err != nil {
			return err
		}
		change, err = s.credit(ctx, q, f, tx.PointsEarned, now)
		if err != nil {
			return err
		}
		if !f.HasMarketTransaction {
			change.farmer, change.verification, err = s.applyFlags(ctx, q, change.farmer, true, f.HasInputTransaction, now)
		}
		return err
	}, attribute.String("farmer.id", tx.FarmerID), attribute.String("market.id", tx.MarketID))
	if err != nil {
		s.countDuplicate(err)
		return models.MarketTransaction{}, err
	}

	s.metrics.IncLedgerEntry("market_sale")
	s.metrics.AddPoints("market_sale", tx.PointsEarned)
	s.afterPointsChange(ctx, change)
	if s.eventsEnabled() {
		s.events.PublishMarketSale(ctx, events.EventMarketSaleRecorded, tx, change.total)
	}
	s.logger.Info("market sale recorded", "farmer_id", tx.FarmerID, "transaction_id", tx.ID, "points", tx.PointsEarned)
	return tx, nil
}

// RecordInputPurchase appends an input purchase, credits floor(amount/1000) points and
// sets the input flag. A receipt number already used at the vendor fails with
// sentinel.ErrDuplicateReceipt.
func (s *Service) RecordInputPurchase(ctx context.Context, req models.InputPurchaseRequest) (models.InputTransaction, error) {
	if err := validation.ValidateInputPurchase(req, s.today()); err != nil {
		return models.InputTransaction{}, err
	}

	now := s.clock()
	amount := pricing.NormalizeAmount(req.Amount)
	tx := models.InputTransaction{
		ID:              uuid.NewString(),
		FarmerID:        req.FarmerID,
		VendorID:        req.VendorID,
		Amount:          amount,
		ReceiptNumber:   validation.SanitizeString(req.ReceiptNumber),
		TransactionDate: req.TransactionDate,
		PointsEarned:    points.InputPurchasePoints(amount),
		AuditFields:     models.AuditFields{CreatedAt: now, UpdatedAt: now},
	}

	var change pointsChange
	err := s.write(ctx, "record_input_purchase", func(q *database.Queries) error {
		f, err := q.GetFarmerForUpdate(ctx, tx.FarmerID)
		if err != nil {
			return err
		}
		if err := q.InsertInputTransaction(ctx, tx); err != nil {
			return err
		}
		change, err = s.credit(ctx, q, f, tx.PointsEarned, now)
		if err != nil {
			return err
		}
		if !f.HasInputTransaction {
			change.farmer, change.verification, err = s.applyFlags(ctx, q, change.farmer, f.HasMarketTransaction, true, now)
		}
		return err
	}, attribute.String("farmer.id", tx.FarmerID), attribute.String("vendor.id", tx.VendorID))
	if err != nil {
		s.countDuplicate(err)
		return models.InputTransaction{}, err
	}

	s.metrics.IncLedgerEntry("input_purchase")
	s.metrics.AddPoints("input_purchase", tx.PointsEarned)
	s.afterPointsChange(ctx, change)
	if s.eventsEnabled() {
		s.events.PublishInputPurchase(ctx, events.EventInputPurchaseRecorded, tx, change.total)
	}
	s.logger.Info("input purchase recorded", "farmer_id", tx.FarmerID, "transaction_id", tx.ID, "points", tx.PointsEarned)
	return tx, nil
}

// DeleteInputPurchase removes an input purchase. When it was the farmer's last one the
// input flag clears and verification is re-derived. Points already credited stay.
func (s *Service) DeleteInputPurchase(ctx context.Context, transactionID string) error {
	if err := validation.ValidateUUID(transactionID, "transaction_id"); err != nil {
		return err
	}

	var (
		tx     models.InputTransaction
		change pointsChange
	)
	err := s.write(ctx, "delete_input_purchase", func(q *database.Queries) error {
		var err error
		tx, err = q.GetInputTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		f, err := q.GetFarmerForUpdate(ctx, tx.FarmerID)
		if err != nil {
			return err
		}
		if err := q.DeleteInputTransaction(ctx, transactionID); err != nil {
			return err
		}
		remaining, err := q.HasInputTransactions(ctx, f.ID)
		if err != nil {
			return err
		}
		change.farmer = f
		change.total = f.Points
		if remaining != f.HasInputTransaction {
			change.farmer, change.verification, err = s.applyFlags(ctx, q, f, f.HasMarketTransaction, remaining, s.clock())
		}
		return err
	}, attribute.String("transaction.id", transactionID))
	if err != nil {
		return err
	}

	s.afterPointsChange(ctx, change)
	if s.eventsEnabled() {
		s.events.PublishInputPurchase(ctx, events.EventInputPurchaseDeleted, tx, change.total)
	}
	s.logger.Info("input purchase deleted", "farmer_id", tx.FarmerID, "transaction_id", tx.ID)
	return nil
}

// DeleteMarketSale removes a market sale, clearing the market flag when none remain.
func (s *Service) DeleteMarketSale(ctx context.Context, transactionID string) error {
	if err := validation.ValidateUUID(transactionID, "transaction_id"); err != nil {
		return err
	}

	var (
		tx     models.MarketTransaction
		change pointsChange
	)
	err := s.write(ctx, "delete_market_sale", func(q *database.Queries) error {
		var err error
		tx, err = q.GetMarketTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		f, err := q.GetFarmerForUpdate(ctx, tx.FarmerID)
		if err != nil {
			return err
		}
		if err := q.DeleteMarketTransaction(ctx, transactionID); err != nil {
			return err
		}
		remaining, err := q.HasMarketTransactions(ctx, f.ID)
		if err != nil {
			return err
		}
		change.farmer = f
		change.total = f.Points
		if remaining != f.HasMarketTransaction {
			change.farmer, change.verification, err = s.applyFlags(ctx, q, f, remaining, f.HasInputTransaction, s.clock())
		}
		return err
	}, attribute.String("transaction.id", transactionID))
	if err != nil {
		return err
	}

	s.afterPointsChange(ctx, change)
	if s.eventsEnabled() {
		s.events.PublishMarketSale(ctx, events.EventMarketSaleDeleted, tx, change.total)
	}
	s.logger.Info("market sale deleted", "farmer_id", tx.FarmerID, "transaction_id", tx.ID)
	return nil
}

func (s *Service) ListMarketSales(ctx context.Context, filter database.LedgerFilter) ([]models.MarketTransaction, error) {
	return s.db.Queries().ListMarketTransactions(ctx, filter)
}

func (s *Service) ListInputPurchases(ctx context.Context, filter database.LedgerFilter) ([]models.InputTransaction, error) {
	return s.db.Queries().ListInputTransactions(ctx, filter)
}

// credit adds earned points to the locked farmer and awards any badges the new total reaches.
func (s *Service) credit(ctx context.Context, q *database.Queries, f models.Farmer, earned int, now time.Time) (pointsChange, error) {
	change := pointsChange{farmer: f, total: f.Points}
	if earned <= 0 {
		return change, nil
	}

	total, err := q.AddPoints(ctx, f.ID, earned, now)
	if err != nil {
		return change, err
	}
	change.total = total
	change.farmer.Points = total

	if s.features.IsEnabled(features.BadgeAwards) {
		change.badges, err = awardBadges(ctx, q, f.ID, total, now)
	}
	return change, err
}

// afterPointsChange runs the post-commit effects shared by every ledger write.
func (s *Service) afterPointsChange(ctx context.Context, change pointsChange) {
	s.invalidate(ctx, cache.FarmerStandingKey(change.farmer.ID))

	if change.verification {
		s.metrics.IncVerificationChange(change.farmer.IsVerified)
		s.logger.Info("farmer verification changed", "farmer_id", change.farmer.ID, "verified", change.farmer.IsVerified)
	}
	for range change.badges {
		s.metrics.BadgesAwarded.Inc()
	}

	if !s.eventsEnabled() {
		return
	}
	if change.verification {
		s.events.PublishVerificationChanged(ctx, change.farmer)
	}
	for _, b := range change.badges {
		s.events.PublishBadgeAwarded(ctx, change.farmer.ID, b)
	}
}
