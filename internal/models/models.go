package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditFields is embedded in every persisted entity.
type AuditFields struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is the farmer holding category.
type Category string

const (
	CategorySmallholder       Category = "SH"
	CategorySmallMediumHolder Category = "SMH"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategorySmallholder || c == CategorySmallMediumHolder
}

// Farmer is the aggregate root for points and verification state.
type Farmer struct {
	ID                   string          `json:"id"` // uuid
	FirstName            string          `json:"first_name"`
	LastName             string          `json:"last_name"`
	IdentificationNumber string          `json:"identification_number"` // NIN, BVN
	PhoneNumber          string          `json:"phone_number,omitempty"`
	Category             Category        `json:"category"`
	FarmSize             decimal.Decimal `json:"farm_size"` // hectares, 2 dp
	StateOfResidence     string          `json:"state_of_residence"`
	Points               int             `json:"points"`
	HasMarketTransaction bool            `json:"has_market_transaction"`
	HasInputTransaction  bool            `json:"has_input_transaction"`
	IsVerified           bool            `json:"is_verified"`
	Blacklisted          bool            `json:"blacklisted"`
	AuditFields
}

// FullName returns "first last".
func (f Farmer) FullName() string {
	return f.FirstName + " " + f.LastName
}

// Market is a physical market where farmers sell produce.
type Market struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	State             string `json:"state"`
	MarketDayInterval int    `json:"market_day_interval"` // days between market days
	ReferenceDate     Date   `json:"reference_date"`      // a confirmed market day
	LastMarketDay     Date   `json:"last_market_day"`
	AuditFields
}

// Vendor is an agro-input dealer issuing purchase receipts.
type Vendor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	Verified bool   `json:"verified"`
	AuditFields
}

// Produce is a tradeable commodity.
type Produce struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
	AuditFields
}

// ProducePrice is the observed price of a produce at a market on a market day.
type ProducePrice struct {
	ID         string          `json:"id"`
	MarketID   string          `json:"market_id"`
	ProduceID  string          `json:"produce_id"`
	Price      decimal.Decimal `json:"price"`
	MarketDate Date            `json:"market_date"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Badge is awarded once a farmer's points reach PointsRequired.
type Badge struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PointsRequired int       `json:"points_required"`
	CreatedAt      time.Time `json:"created_at"`
}

// FarmerBadge records a badge held by a farmer.
type FarmerBadge struct {
	FarmerID  string    `json:"farmer_id"`
	BadgeID   string    `json:"badge_id"`
	BadgeName string    `json:"badge_name"`
	AwardedAt time.Time `json:"awarded_at"`
}
