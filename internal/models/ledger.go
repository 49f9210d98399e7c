package models

import (
	"github.com/shopspring/decimal"
)

// MarketTransaction is a ledger entry for produce sold at a market.
type MarketTransaction struct {
	ID              string `json:"id"`
	FarmerID        string `json:"farmer_id"`
	MarketID        string `json:"market_id"`
	ProduceID       string `json:"produce_id"`
	Quantity        int    `json:"quantity"`
	TransactionDate Date   `json:"transaction_date"`
	PointsEarned    int    `json:"points_earned"` // frozen at creation
	AuditFields
}

// InputTransaction is a ledger entry for an input purchased from a vendor.
type InputTransaction struct {
	ID              string          `json:"id"`
	FarmerID        string          `json:"farmer_id"`
	VendorID        string          `json:"vendor_id"`
	Amount          decimal.Decimal `json:"amount"` // 2 dp
	ReceiptNumber   string          `json:"receipt_number"`
	TransactionDate Date            `json:"transaction_date"`
	PointsEarned    int             `json:"points_earned"` // frozen at creation
	AuditFields
}

// FarmerStanding is a read model of a farmer's points, flags and holdings.
type FarmerStanding struct {
	FarmerID             string          `json:"farmer_id"`
	Points               int             `json:"points"`
	MarketPoints         int             `json:"market_points"`
	InputPoints          int             `json:"input_points"`
	HasMarketTransaction bool            `json:"has_market_transaction"`
	HasInputTransaction  bool            `json:"has_input_transaction"`
	IsVerified           bool            `json:"is_verified"`
	Blacklisted          bool            `json:"blacklisted"`
	Badges               []string        `json:"badges"`
	SubsidyReceived      decimal.Decimal `json:"subsidy_received"`
}
