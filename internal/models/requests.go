package models

import (
	"github.com/shopspring/decimal"
)

// RegisterFarmerRequest is the input for registering a farmer.
type RegisterFarmerRequest struct {
	FirstName            string          `json:"first_name"`
	LastName             string          `json:"last_name"`
	IdentificationNumber string          `json:"identification_number"`
	PhoneNumber          string          `json:"phone_number,omitempty"`
	Category             Category        `json:"category"`
	FarmSize             decimal.Decimal `json:"farm_size"`
	StateOfResidence     string          `json:"state_of_residence"`
}

type BlacklistRequest struct {
	Blacklisted bool `json:"blacklisted"`
}

type CreateMarketRequest struct {
	Name              string `json:"name"`
	State             string `json:"state"`
	MarketDayInterval int    `json:"market_day_interval"`
	ReferenceDate     Date   `json:"reference_date"`
}

type CreateVendorRequest struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Verified bool   `json:"verified"`
}

type CreateProduceRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type CreateBadgeRequest struct {
	Name           string `json:"name"`
	PointsRequired int    `json:"points_required"`
}

// MarketSaleRequest records produce sold by a farmer at a market.
type MarketSaleRequest struct {
	FarmerID        string `json:"farmer_id"`
	MarketID        string `json:"market_id"`
	ProduceID       string `json:"produce_id"`
	Quantity        int    `json:"quantity"`
	TransactionDate Date   `json:"transaction_date"`
}

// InputPurchaseRequest records an input bought from a vendor against a receipt.
type InputPurchaseRequest struct {
	FarmerID        string          `json:"farmer_id"`
	VendorID        string          `json:"vendor_id"`
	Amount          decimal.Decimal `json:"amount"`
	ReceiptNumber   string          `json:"receipt_number"`
	TransactionDate Date            `json:"transaction_date"`
}

type CreateProgramRequest struct {
	Title               string              `json:"title"`
	Slug                string              `json:"slug,omitempty"` // derived from Title when empty
	Sponsor             string              `json:"sponsor"`
	Level               ProgramLevel        `json:"level"`
	State               string              `json:"state,omitempty"`
	Rate                decimal.Decimal     `json:"rate"`
	TargetBeneficiaries int                 `json:"target_num_of_beneficiaries"`
	Budget              decimal.NullDecimal `json:"budget"`
	StartDate           Date                `json:"start_date"`
	EndDate             Date                `json:"end_date"`
}

type CreateItemRequest struct {
	Kind          ItemKind             `json:"kind"`
	Name          string               `json:"name"`
	Unit          string               `json:"unit"`
	Price         decimal.Decimal      `json:"price"`
	Fertilizer    *FertilizerDetail    `json:"fertilizer,omitempty"`
	Seed          *SeedDetail          `json:"seed,omitempty"`
	Agrochemical  *AgrochemicalDetail  `json:"agrochemical,omitempty"`
	Mechanization *MechanizationDetail `json:"mechanization,omitempty"`
}

type UpdateItemPriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type SetRateRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

// RedemptionRequest asks to price and persist a subsidy redemption.
type RedemptionRequest struct {
	FarmerID           string `json:"farmer_id"`
	ItemID             string `json:"item_id"`
	ProgramID          string `json:"program_id"`
	Quantity           int    `json:"quantity"`
	RedemptionDate     Date   `json:"redemption_date"` // defaults to today
	RedemptionLocation string `json:"redemption_location,omitempty"`
}

type ProducePriceRequest struct {
	MarketID   string          `json:"market_id"`
	ProduceID  string          `json:"produce_id"`
	Price      decimal.Decimal `json:"price"`
	MarketDate Date            `json:"market_date"`
}

// PointsReport breaks a farmer's ledger points down by source, year and market.
// Accumulated is the stored counter, which deletions never reduce.
type PointsReport struct {
	FarmerID     string         `json:"farmer_id"`
	Accumulated  int            `json:"accumulated"`
	Total        int            `json:"total"`
	MarketPoints int            `json:"market_points"`
	InputPoints  int            `json:"input_points"`
	ByYear       map[int]int    `json:"by_year"`
	ByMarket     map[string]int `json:"by_market"`
}

// MarketPointsReport sums the points farmers earned selling at one market.
type MarketPointsReport struct {
	MarketID string      `json:"market_id"`
	Total    int         `json:"total"`
	ByYear   map[int]int `json:"by_year"`
}

// SubsidyTotals aggregates redemptions matching a program and/or farmer.
type SubsidyTotals struct {
	ProgramID    string                     `json:"program_id,omitempty"`
	FarmerID     string                     `json:"farmer_id,omitempty"`
	Redemptions  int                        `json:"redemptions"`
	GrossValue   decimal.Decimal            `json:"gross_value"`
	FarmerPaid   decimal.Decimal            `json:"farmer_paid"`
	SubsidyValue decimal.Decimal            `json:"subsidy_value"`
	ByProgram    map[string]decimal.Decimal `json:"by_program,omitempty"`
}

type NextMarketDayResponse struct {
	MarketID      string `json:"market_id"`
	Today         Date   `json:"today"`
	NextMarketDay Date   `json:"next_market_day"`
	IsMarketDay   bool   `json:"is_market_day"`
}

type VerificationResponse struct {
	FarmerID   string `json:"farmer_id"`
	IsVerified bool   `json:"is_verified"`
}

type EligibilityResponse struct {
	FarmerID  string `json:"farmer_id"`
	ProgramID string `json:"program_id"`
	Eligible  bool   `json:"eligible"`
	Reason    string `json:"reason,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
