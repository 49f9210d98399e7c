// Package points computes loyalty points earned from ledger entries.
package points

import (
	"github.com/shopspring/decimal"
)

// InputPurchaseDivisor is the purchase amount that earns one point.
var InputPurchaseDivisor = decimal.NewFromInt(1000)

// MarketSalePoints returns one point per unit sold. Non-positive quantities earn nothing.
func MarketSalePoints(quantity int) int {
	if quantity <= 0 {
		return 0
	}
	return quantity
}

// InputPurchasePoints returns floor(amount / 1000). Fractions are truncated, never rounded.
func InputPurchasePoints(amount decimal.Decimal) int {
	if !amount.IsPositive() {
		return 0
	}
	return int(amount.Div(InputPurchaseDivisor).Floor().IntPart())
}
