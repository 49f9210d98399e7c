package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"agri-ledger/internal/cache"
	"agri-ledger/internal/database"
	"agri-ledger/internal/models"
	"agri-ledger/internal/pricing"
	"agri-ledger/internal/validation"
)

const maxListLimit = 500

// RegisterFarmer creates a farmer with zero points and no ledger flags set.
func (s *Service) RegisterFarmer(ctx context.Context, req models.RegisterFarmerRequest) (models.Farmer, error) {
	if err := validation.ValidateFarmer(req); err != nil {
		return models.Farmer{}, err
	}

	now := s.clock()
	f := models.Farmer{
		ID:                   uuid.NewString(),
		FirstName:            validation.SanitizeString(req.FirstName),
		LastName:             validation.SanitizeString(req.LastName),
		IdentificationNumber: validation.SanitizeString(req.IdentificationNumber),
		PhoneNumber:          validation.SanitizeString(req.PhoneNumber),
		Category:             req.Category,
		FarmSize:             pricing.NormalizeAmount(req.FarmSize),
		StateOfResidence:     validation.SanitizeString(req.StateOfResidence),
		AuditFields:          models.AuditFields{CreatedAt: now, UpdatedAt: now},
	}

	err := s.write(ctx, "register_farmer", func(q *database.Queries) error {
		return q.InsertFarmer(ctx, f)
	})
	if err != nil {
		return models.Farmer{}, err
	}

	s.logger.Info("farmer registered", "farmer_id", f.ID)
	s.logger.Debug("farmer details", "farmer_id", f.ID, "name", f.FullName(), "state", f.StateOfResidence)
	return f, nil
}

func (s *Service) GetFarmer(ctx context.Context, farmerID string) (models.Farmer, error) {
	if err := validation.ValidateUUID(farmerID, "farmer_id"); err != nil {
		return models.Farmer{}, err
	}
	return s.db.Queries().GetFarmer(ctx, farmerID)
}

// ListFarmers pages through farmers in registration order.
func (s *Service) ListFarmers(ctx context.Context, limit, offset int) ([]models.Farmer, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.db.Queries().ListFarmers(ctx, limit, offset)
}

// SetBlacklisted flags or clears a farmer. Blacklisted farmers fail every eligibility check.
func (s *Service) SetBlacklisted(ctx context.Context, farmerID string, blacklisted bool) (models.Farmer, error) {
	if err := validation.ValidateUUID(farmerID, "farmer_id"); err != nil {
		return models.Farmer{}, err
	}

	var f models.Farmer
	err := s.write(ctx, "set_blacklisted", func(q *database.Queries) error {
		if err := q.SetBlacklisted(ctx, farmerID, blacklisted, s.clock()); err != nil {
			return err
		}
		var err error
		f, err = q.GetFarmer(ctx, farmerID)
		return err
	}, attribute.String("farmer.id", farmerID))
	if err != nil {
		return models.Farmer{}, err
	}

	s.invalidate(ctx, cache.FarmerStandingKey(farmerID))
	s.logger.Info("farmer blacklist updated", "farmer_id", farmerID, "blacklisted", blacklisted)
	return f, nil
}

// DeleteFarmer removes a farmer that no ledger entry or redemption references.
func (s *Service) DeleteFarmer(ctx context.Context, farmerID string) error {
	if err := validation.ValidateUUID(farmerID, "farmer_id"); err != nil {
		return err
	}

	err := s.write(ctx, "delete_farmer", func(q *database.Queries) error {
		return q.DeleteFarmer(ctx, farmerID)
	}, attribute.String("farmer.id", farmerID))
	if err != nil {
		return err
	}

	s.invalidate(ctx, cache.FarmerStandingKey(farmerID))
	return nil
}

func (s *Service) CreateMarket(ctx context.Context, req models.CreateMarketRequest) (models.Market, error) {
	if err := validation.ValidateMarket(req); err != nil {
		return models.Market{}, err
	}

	now := s.clock()
	m := models.Market{
		ID:                uuid.NewString(),
		Name:              validation.SanitizeString(req.Name),
		State:             validation.SanitizeString(req.State),
		MarketDayInterval: req.MarketDayInterval,
		ReferenceDate:     req.ReferenceDate,
		AuditFields:       models.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	if m.ReferenceDate.IsZero() {
		m.ReferenceDate = models.DateOf(now)
	}

	err := s.write(ctx, "create_market", func(q *database.Queries) error {
		return q.InsertMarket(ctx, m)
	})
	if err != nil {
		return models.Market{}, err
	}
	return m, nil
}

func (s *Service) GetMarket(ctx context.Context, marketID string) (models.Market, error) {
	if err := validation.ValidateUUID(marketID, "market_id"); err != nil {
		return models.Market{}, err
	}
	return s.db.Queries().GetMarket(ctx, marketID)
}

func (s *Service) CreateVendor(ctx context.Context, req models.CreateVendorRequest) (models.Vendor, error) {
	if err := validation.ValidateVendor(req); err != nil {
		return models.Vendor{}, err
	}

	now := s.clock()
	v := models.Vendor{
		ID:          uuid.NewString(),
		Name:        validation.SanitizeString(req.Name),
		State:       validation.SanitizeString(req.State),
		Verified:    req.Verified,
		AuditFields: models.AuditFields{CreatedAt: now, UpdatedAt: now},
	}

	err := s.write(ctx, "create_vendor", func(q *database.Queries) error {
		return q.InsertVendor(ctx, v)
	})
	if err != nil {
		return models.Vendor{}, err
	}
	return v, nil
}

func (s *Service) GetVendor(ctx context.Context, vendorID string) (models.Vendor, error) {
	if err := validation.ValidateUUID(vendorID, "vendor_id"); err != nil {
		return models.Vendor{}, err
	}
	return s.db.Queries().GetVendor(ctx, vendorID)
}

func (s *Service) CreateProduce(ctx context.Context, req models.CreateProduceRequest) (models.Produce, error) {
	if err := validation.ValidateProduce(req); err != nil {
		return models.Produce{}, err
	}

	now := s.clock()
	p := models.Produce{
		ID:          uuid.NewString(),
		Name:        validation.SanitizeString(req.Name),
		Unit:        validation.SanitizeString(req.Unit),
		AuditFields: models.AuditFields{CreatedAt: now, UpdatedAt: now},
	}

	err := s.write(ctx, "create_produce", func(q *database.Queries) error {
		return q.InsertProduce(ctx, p)
	})
	if err != nil {
		return models.Produce{}, err
	}
	return p, nil
}

func (s *Service) GetProduce(ctx context.Context, produceID string) (models.Produce, error) {
	if err := validation.ValidateUUID(produceID, "produce_id"); err != nil {
		return models.Produce{}, err
	}
	return s.db.Queries().GetProduce(ctx, produceID)
}

// CreateBadge defines a badge. Farmers already past the threshold receive it on their
// next points change.
func (s *Service) CreateBadge(ctx context.Context, req models.CreateBadgeRequest) (models.Badge, error) {
	if err := validation.ValidateBadge(req); err != nil {
		return models.Badge{}, err
	}

	b := models.Badge{
		ID:             uuid.NewString(),
		Name:           validation.SanitizeString(req.Name),
		PointsRequired: req.PointsRequired,
		CreatedAt:      s.clock(),
	}

	err := s.write(ctx, "create_badge", func(q *database.Queries) error {
		return q.InsertBadge(ctx, b)
	})
	if err != nil {
		return models.Badge{}, fmt.Errorf("create badge: %w", err)
	}
	return b, nil
}
