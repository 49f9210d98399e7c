package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"agri-ledger/internal/cache"
	"agri-ledger/internal/database"
	"agri-ledger/internal/eligibility"
	"agri-ledger/internal/models"
	"agri-ledger/internal/pricing"
	"agri-ledger/internal/sentinel"
	"agri-ledger/internal/validation"
)

// CreateProgram defines a subsidy program. The slug is derived from the title when not given.
func (s *Service) CreateProgram(ctx context.Context, req models.CreateProgramRequest) (models.SubsidyProgram, error) {
	if err := validation.ValidateProgram(req); err != nil {
		return models.SubsidyProgram{}, err
	}

	slug := req.Slug
	if slug == "" {
		slug = validation.Slugify(req.Title)
	}
	if slug == "" {
		return models.SubsidyProgram{}, &validation.ValidationError{Field: "slug", Message: "cannot be derived from title"}
	}

	now := s.clock()
	p := models.SubsidyProgram{
		ID:                  uuid.NewString(),
		Title:               validation.SanitizeString(req.Title),
		Slug:                slug,
		Sponsor:             validation.SanitizeString(req.Sponsor),
		Level:               req.Level,
		Rate:                pricing.NormalizeRate(req.Rate),
		TargetBeneficiaries: req.TargetBeneficiaries,
		Budget:              req.Budget,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		AuditFields:         models.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	if p.Level == models.ProgramLevelState {
		p.State = validation.SanitizeString(req.State)
	}
	if p.Budget.Valid {
		p.Budget.Decimal = pricing.NormalizeAmount(p.Budget.Decimal)
	}

	err := s.write(ctx, "create_program", func(q *database.Queries) error {
		return q.InsertProgram(ctx, p)
	})
	if err != nil {
		return models.SubsidyProgram{}, err
	}

	s.logger.Info("subsidy program created", "program_id", p.ID, "slug", p.Slug)
	return p, nil
}

func (s *Service) GetProgram(ctx context.Context, programID string) (models.SubsidyProgram, error) {
	if err := validation.ValidateUUID(programID, "program_id"); err != nil {
		return models.SubsidyProgram{}, err
	}
	return s.db.Queries().GetProgram(ctx, programID)
}

// ListPrograms returns every program, or only those active today when activeOnly is set.
func (s *Service) ListPrograms(ctx context.Context, activeOnly bool) ([]models.SubsidyProgram, error) {
	var on models.Date
	if activeOnly {
		on = s.today()
	}
	return s.db.Queries().ListPrograms(ctx, on)
}

func (s *Service) CreateItem(ctx context.Context, req models.CreateItemRequest) (models.SubsidizedItem, error) {
	if err := validation.ValidateItem(req); err != nil {
		return models.SubsidizedItem{}, err
	}

	now := s.clock()
	item := models.SubsidizedItem{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Name:        validation.SanitizeString(req.Name),
		Unit:        req.Unit,
		Price:       pricing.NormalizeAmount(req.Price),
		AuditFields: models.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	// Keep only the detail matching the kind.
	switch req.Kind {
	case models.ItemKindFertilizer:
		item.Fertilizer = req.Fertilizer
	case models.ItemKindSeed:
		item.Seed = req.Seed
	case models.ItemKindAgrochemical:
		item.Agrochemical = req.Agrochemical
	case models.ItemKindMechanization:
		item.Mechanization = req.Mechanization
	}

	err := s.write(ctx, "create_item", func(q *database.Queries) error {
		return q.InsertItem(ctx, item)
	})
	if err != nil {
		return models.SubsidizedItem{}, err
	}
	return item, nil
}

func (s *Service) GetItem(ctx context.Context, itemID string) (models.SubsidizedItem, error) {
	if err := validation.ValidateUUID(itemID, "item_id"); err != nil {
		return models.SubsidizedItem{}, err
	}
	return s.db.Queries().GetItem(ctx, itemID)
}

func (s *Service) ListItems(ctx context.Context, kind models.ItemKind) ([]models.SubsidizedItem, error) {
	if kind != "" && !kind.Valid() {
		return nil, &validation.ValidationError{Field: "kind", Message: "unknown item kind"}
	}
	return s.db.Queries().ListItems(ctx, kind)
}

// UpdateItemPrice changes an item's catalog price and appends a history row. An unchanged
// price writes nothing. Redemptions already priced keep their frozen amounts.
func (s *Service) UpdateItemPrice(ctx context.Context, itemID string, price decimal.Decimal) (models.SubsidizedItem, error) {
	if err := validation.ValidateUUID(itemID, "item_id"); err != nil {
		return models.SubsidizedItem{}, err
	}
	if err := validation.ValidateAmount(price, "price"); err != nil {
		return models.SubsidizedItem{}, err
	}
	price = pricing.NormalizeAmount(price)

	var item models.SubsidizedItem
	err := s.write(ctx, "update_item_price", func(q *database.Queries) error {
		var err error
		item, err = q.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Price.Equal(price) {
			return nil
		}
		now := s.clock()
		if err := q.UpdateItemPrice(ctx, models.PriceHistory{
			ID:         uuid.NewString(),
			ItemID:     itemID,
			Price:      price,
			Unit:       item.Unit,
			RecordedAt: now,
		}); err != nil {
			return err
		}
		item.Price = price
		item.UpdatedAt = now
		return nil
	}, attribute.String("item.id", itemID))
	if err != nil {
		return models.SubsidizedItem{}, err
	}
	return item, nil
}

func (s *Service) PriceHistory(ctx context.Context, itemID string) ([]models.PriceHistory, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.db.Queries().ListPriceHistory(ctx, itemID)
}

// SetRate overrides the program rate for one item. Rates outside [0, 100] fail with
// sentinel.ErrInvalidRate.
func (s *Service) SetRate(ctx context.Context, programID, itemID string, rate decimal.Decimal) (models.SubsidyRate, error) {
	if err := validation.ValidateUUID(programID, "program_id"); err != nil {
		return models.SubsidyRate{}, err
	}
	if err := validation.ValidateUUID(itemID, "item_id"); err != nil {
		return models.SubsidyRate{}, err
	}
	if err := validation.ValidateRate(rate); err != nil {
		return models.SubsidyRate{}, err
	}

	now := s.clock()
	r := models.SubsidyRate{
		ProgramID:   programID,
		ItemID:      itemID,
		Rate:        pricing.NormalizeRate(rate),
		AuditFields: models.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	err := s.write(ctx, "set_rate", func(q *database.Queries) error {
		return q.UpsertRate(ctx, r)
	}, attribute.String("program.id", programID), attribute.String("item.id", itemID))
	if err != nil {
		return models.SubsidyRate{}, err
	}
	return r, nil
}

// ClearRate drops an override so the program's own rate applies again.
func (s *Service) ClearRate(ctx context.Context, programID, itemID string) error {
	if err := validation.ValidateUUID(programID, "program_id"); err != nil {
		return err
	}
	if err := validation.ValidateUUID(itemID, "item_id"); err != nil {
		return err
	}
	return s.write(ctx, "clear_rate", func(q *database.Queries) error {
		return q.DeleteRate(ctx, programID, itemID)
	}, attribute.String("program.id", programID), attribute.String("item.id", itemID))
}

// PriceRedemption checks eligibility, prices the item under the program and persists the
// redemption with its discounted price frozen. The farmer's first redemption under a
// program increments the beneficiary counter in the same transaction.
func (s *Service) PriceRedemption(ctx context.Context, req models.RedemptionRequest) (models.SubsidyInstance, error) {
	if err := validation.ValidateRedemption(req); err != nil {
		return models.SubsidyInstance{}, err
	}

	now := s.clock()
	today := models.DateOf(now)
	inst := models.SubsidyInstance{
		ID:                 uuid.NewString(),
		FarmerID:           req.FarmerID,
		ItemID:             req.ItemID,
		ProgramID:          req.ProgramID,
		Quantity:           req.Quantity,
		RedemptionDate:     req.RedemptionDate,
		RedemptionLocation: validation.SanitizeString(req.RedemptionLocation),
		CreatedAt:          now,
	}
	if inst.RedemptionDate.IsZero() {
		inst.RedemptionDate = today
	}

	var newBeneficiary bool
	err := s.write(ctx, "price_redemption", func(q *database.Queries) error {
		f, err := q.GetFarmer(ctx, req.FarmerID)
		if err != nil {
			return err
		}
		program, err := q.GetProgramForUpdate(ctx, req.ProgramID)
		if err != nil {
			return err
		}
		if err := eligibility.Check(f, program); err != nil {
			return err
		}
		// A repeat is reported as such even once the program has closed or run dry.
		redeemed, err := q.HasSubsidyInstance(ctx, f.ID, req.ItemID, program.ID)
		if err != nil {
			return err
		}
		if redeemed {
			return sentinel.ErrDuplicateRedemption
		}
		if !program.IsActive(today) {
			return fmt.Errorf("program %s ended %s: %w", program.Slug, program.EndDate, sentinel.ErrProgramClosed)
		}

		item, err := q.GetItem(ctx, req.ItemID)
		if err != nil {
			return err
		}
		override, err := q.GetRate(ctx, program.ID, item.ID)
		if err != nil {
			return err
		}
		quote, err := pricing.Price(item, program, override, req.Quantity)
		if err != nil {
			return err
		}

		if program.Budget.Valid {
			disbursed, err := q.ProgramSubsidyValue(ctx, program.ID)
			if err != nil {
				return err
			}
			if disbursed.Add(quote.SubsidyValue()).GreaterThan(program.Budget.Decimal) {
				return fmt.Errorf("program %s: %w", program.Slug, sentinel.ErrBudgetExceeded)
			}
		}

		inst.UnitPrice = quote.UnitPrice
		inst.Rate = quote.Rate
		inst.RateSource = quote.RateSource
		inst.GrossPrice = quote.GrossPrice
		inst.DiscountedPrice = quote.DiscountedPrice
		if err := q.InsertSubsidyInstance(ctx, inst); err != nil {
			return err
		}

		newBeneficiary, err = q.AddBeneficiary(ctx, program.ID, f.ID, now)
		return err
	}, attribute.String("farmer.id", req.FarmerID), attribute.String("program.id", req.ProgramID))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotEligible) {
			s.metrics.EligibilityRejected.Inc()
		}
		s.countDuplicate(err)
		return models.SubsidyInstance{}, err
	}

	s.metrics.Redemptions.Inc()
	s.metrics.SubsidyDisbursed.Add(inst.SubsidyValue().InexactFloat64())
	if newBeneficiary {
		s.metrics.NewBeneficiaries.Inc()
	}
	s.invalidate(ctx, cache.FarmerStandingKey(inst.FarmerID), cache.ProgramSummaryKey(inst.ProgramID))
	if s.eventsEnabled() {
		s.events.PublishSubsidyRedeemed(ctx, inst, newBeneficiary)
	}
	s.logger.Info("subsidy redeemed",
		"farmer_id", inst.FarmerID,
		"program_id", inst.ProgramID,
		"item_id", inst.ItemID,
		"discounted_price", inst.DiscountedPrice.StringFixed(2),
		"new_beneficiary", newBeneficiary,
	)
	return inst, nil
}

func (s *Service) ListRedemptions(ctx context.Context, filter database.SubsidyFilter) ([]models.SubsidyInstance, error) {
	if err := validateSubsidyFilter(filter); err != nil {
		return nil, err
	}
	return s.db.Queries().ListSubsidyInstances(ctx, filter)
}

// ProgramSummary aggregates a program's redemptions. Beneficiaries are counted from the
// recorded rows. The result is cached and invalidated by every redemption under the program.
func (s *Service) ProgramSummary(ctx context.Context, programID string) (models.ProgramSummary, error) {
	if err := validation.ValidateUUID(programID, "program_id"); err != nil {
		return models.ProgramSummary{}, err
	}

	return cached(ctx, s, cache.ProgramSummaryKey(programID), func(ctx context.Context) (models.ProgramSummary, error) {
		q := s.db.Queries()
		p, err := q.GetProgram(ctx, programID)
		if err != nil {
			return models.ProgramSummary{}, err
		}
		instances, err := q.ListSubsidyInstances(ctx, database.SubsidyFilter{ProgramID: programID})
		if err != nil {
			return models.ProgramSummary{}, err
		}

		counted, err := q.CountBeneficiaries(ctx, programID)
		if err != nil {
			return models.ProgramSummary{}, err
		}
		if counted != p.CurrentBeneficiaries {
			s.logger.Warn("beneficiary counter disagrees with recorded beneficiaries",
				"program_id", p.ID,
				"counter", p.CurrentBeneficiaries,
				"recorded", counted,
			)
		}

		summary := models.ProgramSummary{
			ProgramID:            p.ID,
			Active:               p.IsActive(s.today()),
			CurrentBeneficiaries: counted,
			TargetBeneficiaries:  p.TargetBeneficiaries,
			Redemptions:          len(instances),
			TotalDisbursed:       decimal.Zero,
			TotalFarmerPaid:      decimal.Zero,
		}
		for _, inst := range instances {
			summary.TotalDisbursed = summary.TotalDisbursed.Add(inst.SubsidyValue())
			summary.TotalFarmerPaid = summary.TotalFarmerPaid.Add(inst.DiscountedPrice)
		}
		if p.Budget.Valid {
			summary.RemainingBudget = decimal.NewNullDecimal(p.Budget.Decimal.Sub(summary.TotalDisbursed))
		}
		return summary, nil
	})
}
