package sentinel

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the accounting engine. The database layer translates store
// constraint violations into these so callers can match with errors.Is regardless of the
// backing store.
var (
	ErrDuplicateTransaction = errors.New("market transaction already recorded")
	ErrDuplicateReceipt     = errors.New("receipt already recorded")
	ErrDuplicateRedemption  = errors.New("subsidy already redeemed")
	ErrNotEligible          = errors.New("farmer not eligible")
	ErrInvalidRate          = errors.New("invalid subsidy rate")

	ErrNotFound         = errors.New("not found")
	ErrReferenced       = errors.New("record is referenced by ledger entries")
	ErrDuplicateFarmer  = errors.New("farmer identification number already registered")
	ErrDuplicatePrice   = errors.New("produce price already recorded")
	ErrDuplicateCatalog = errors.New("catalog entry already exists")
	ErrProgramClosed    = errors.New("subsidy program is not active")
	ErrBudgetExceeded   = errors.New("subsidy program budget exceeded")
)

// EligibilityError explains why a farmer failed an eligibility check.
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotEligible.Error(), e.Reason)
}

func (e *EligibilityError) Is(target error) bool {
	return target == ErrNotEligible
}

// RateError reports a rate outside [0, 100].
type RateError struct {
	Rate string
}

func (e *RateError) Error() string {
	return fmt.Sprintf("%s: %s is outside [0, 100]", ErrInvalidRate.Error(), e.Rate)
}

func (e *RateError) Is(target error) bool {
	return target == ErrInvalidRate
}
