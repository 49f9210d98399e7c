// Package eligibility derives a farmer's verification state and checks program eligibility.
package eligibility

import (
	"strings"

	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
)

// Verified is true only when the farmer has both a market and an input transaction.
func Verified(hasMarketTransaction, hasInputTransaction bool) bool {
	return hasMarketTransaction && hasInputTransaction
}

// Consistent reports whether the farmer's stored verification flag matches its inputs.
func Consistent(f models.Farmer) bool {
	return f.IsVerified == Verified(f.HasMarketTransaction, f.HasInputTransaction)
}

// Check returns a *sentinel.EligibilityError when the farmer may not redeem under the program.
// It must run before any pricing or persistence.
func Check(f models.Farmer, p models.SubsidyProgram) error {
	if f.Blacklisted {
		return &sentinel.EligibilityError{Reason: "farmer is blacklisted"}
	}
	if p.Level == models.ProgramLevelState && !sameState(f.StateOfResidence, p.State) {
		return &sentinel.EligibilityError{
			Reason: "farmer resides in " + f.StateOfResidence + ", program is limited to " + p.State,
		}
	}
	return nil
}

func sameState(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
