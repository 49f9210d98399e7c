package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"agri-ledger/internal/database"
	"agri-ledger/internal/eligibility"
	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
	"agri-ledger/internal/validation"
)

// applyFlags stores the transaction flags on the locked farmer and re-derives is_verified.
// It writes nothing when the stored state already matches and reports whether
// is_verified flipped.
func (s *Service) applyFlags(ctx context.Context, q *database.Queries, f models.Farmer, hasMarket, hasInput bool, now time.Time) (models.Farmer, bool, error) {
	verified := eligibility.Verified(hasMarket, hasInput)
	if f.HasMarketTransaction == hasMarket && f.HasInputTransaction == hasInput && f.IsVerified == verified {
		return f, false, nil
	}

	if err := q.SetVerificationFlags(ctx, f.ID, hasMarket, hasInput, verified, now); err != nil {
		return f, false, err
	}

	flipped := f.IsVerified != verified
	f.HasMarketTransaction = hasMarket
	f.HasInputTransaction = hasInput
	f.IsVerified = verified
	f.UpdatedAt = now
	return f, flipped, nil
}

// RecomputeVerification re-derives a farmer's flags from the ledger and returns the
// resulting is_verified. It is a no-op when the stored flags are already correct.
func (s *Service) RecomputeVerification(ctx context.Context, farmerID string) (bool, error) {
	if err := validation.ValidateUUID(farmerID, "farmer_id"); err != nil {
		return false, err
	}

	var change pointsChange
	err := s.write(ctx, "recompute_verification", func(q *database.Queries) error {
		f, err := q.GetFarmerForUpdate(ctx, farmerID)
		if err != nil {
			return err
		}
		hasMarket, err := q.HasMarketTransactions(ctx, farmerID)
		if err != nil {
			return err
		}
		hasInput, err := q.HasInputTransactions(ctx, farmerID)
		if err != nil {
			return err
		}
		if !eligibility.Consistent(f) {
			s.logger.Warn("stored verification flag disagrees with transaction flags", "farmer_id", farmerID)
		}
		change.total = f.Points
		change.farmer, change.verification, err = s.applyFlags(ctx, q, f, hasMarket, hasInput, s.clock())
		return err
	}, attribute.String("farmer.id", farmerID))
	if err != nil {
		return false, err
	}

	if change.verification {
		s.afterPointsChange(ctx, change)
	}
	return change.farmer.IsVerified, nil
}

// EligibilityCheck reports whether the farmer may redeem under the program. A refusal is a
// *sentinel.EligibilityError matching sentinel.ErrNotEligible.
func (s *Service) EligibilityCheck(ctx context.Context, farmerID, programID string) error {
	if err := validation.ValidateUUID(farmerID, "farmer_id"); err != nil {
		return err
	}
	if err := validation.ValidateUUID(programID, "program_id"); err != nil {
		return err
	}

	q := s.db.Queries()
	f, err := q.GetFarmer(ctx, farmerID)
	if err != nil {
		return err
	}
	p, err := q.GetProgram(ctx, programID)
	if err != nil {
		return err
	}

	if err := eligibility.Check(f, p); err != nil {
		s.metrics.EligibilityRejected.Inc()
		return err
	}
	return nil
}

// CheckEligibility is EligibilityCheck shaped as a response body.
func (s *Service) CheckEligibility(ctx context.Context, farmerID, programID string) (models.EligibilityResponse, error) {
	resp := models.EligibilityResponse{FarmerID: farmerID, ProgramID: programID, Eligible: true}

	err := s.EligibilityCheck(ctx, farmerID, programID)
	var eerr *sentinel.EligibilityError
	switch {
	case err == nil:
	case errors.As(err, &eerr):
		resp.Eligible = false
		resp.Reason = eerr.Reason
	default:
		return resp, err
	}
	return resp, nil
}
