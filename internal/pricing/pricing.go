// Package pricing computes subsidized prices from catalog prices and layered discount rates.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
)

var (
	hundred = decimal.NewFromInt(100)

	MinRate = decimal.Zero
	MaxRate = hundred
)

// Quote is the frozen outcome of pricing one redemption.
type Quote struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	Rate            decimal.Decimal
	RateSource      models.RateSource
	GrossPrice      decimal.Decimal
	DiscountedPrice decimal.Decimal
}

// SubsidyValue is the part of the gross price covered by the program.
func (q Quote) SubsidyValue() decimal.Decimal {
	return q.GrossPrice.Sub(q.DiscountedPrice)
}

// ValidateRate rejects rates outside [0, 100].
func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThan(MinRate) || rate.GreaterThan(MaxRate) {
		return &sentinel.RateError{Rate: rate.String()}
	}
	return nil
}

// NormalizeRate rounds a rate to the stored precision of one decimal place.
func NormalizeRate(rate decimal.Decimal) decimal.Decimal {
	return rate.Round(1)
}

// NormalizeAmount rounds a monetary amount to two decimal places.
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// ResolveRate picks the item override when present, otherwise the program's global rate.
// A missing override never implies a full subsidy.
func ResolveRate(program models.SubsidyProgram, override *models.SubsidyRate) (decimal.Decimal, models.RateSource) {
	if override != nil {
		return override.Rate, models.RateSourceOverride
	}
	return program.Rate, models.RateSourceProgram
}

// UnitPrice returns the catalog price of an item after checking its kind-specific detail.
func UnitPrice(item models.SubsidizedItem) (decimal.Decimal, error) {
	detail, err := item.Detail()
	if err != nil {
		return decimal.Zero, err
	}
	switch d := detail.(type) {
	case models.FertilizerDetail, models.SeedDetail, models.AgrochemicalDetail:
		return item.Price, nil
	case models.MechanizationDetail:
		if d.Operation == "" {
			return decimal.Zero, fmt.Errorf("mechanization item %s has no operation", item.ID)
		}
		return item.Price, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported item detail %T", detail)
	}
}

// DiscountedPrice computes unitPrice * quantity * (1 - rate/100), rounded to 2 dp.
func DiscountedPrice(unitPrice decimal.Decimal, quantity int, rate decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateRate(rate); err != nil {
		return decimal.Zero, err
	}
	if quantity <= 0 {
		return decimal.Zero, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	payable := hundred.Sub(rate).Div(hundred)
	return NormalizeAmount(gross.Mul(payable)), nil
}

// Price quotes a redemption of quantity units of item under program.
func Price(item models.SubsidizedItem, program models.SubsidyProgram, override *models.SubsidyRate, quantity int) (Quote, error) {
	unitPrice, err := UnitPrice(item)
	if err != nil {
		return Quote{}, err
	}
	rate, source := ResolveRate(program, override)
	discounted, err := DiscountedPrice(unitPrice, quantity, rate)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		UnitPrice:       unitPrice,
		Quantity:        quantity,
		Rate:            rate,
		RateSource:      source,
		GrossPrice:      NormalizeAmount(unitPrice.Mul(decimal.NewFromInt(int64(quantity)))),
		DiscountedPrice: discounted,
	}, nil
}
