package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProgramLevel is the geographic scope of a subsidy program.
type ProgramLevel string

const (
	ProgramLevelState    ProgramLevel = "STATE"
	ProgramLevelNational ProgramLevel = "NATIONAL"
)

// SubsidyProgram is a time-bounded subsidy offer.
type SubsidyProgram struct {
	ID                   string              `json:"id"`
	Title                string              `json:"title"`
	Slug                 string              `json:"slug"`
	Sponsor              string              `json:"sponsor"`
	Level                ProgramLevel        `json:"level"`
	State                string              `json:"state,omitempty"` // required for STATE programs
	Rate                 decimal.Decimal     `json:"rate"`            // percent, 1 dp
	TargetBeneficiaries  int                 `json:"target_num_of_beneficiaries"`
	CurrentBeneficiaries int                 `json:"current_num_of_beneficiaries"`
	Budget               decimal.NullDecimal `json:"budget"` // ceiling on total subsidy value
	StartDate            Date                `json:"start_date"`
	EndDate              Date                `json:"end_date"`
	AuditFields
}

// IsActive reports whether the program is still running on today. Once the end date
// has passed the program never becomes active again.
func (p SubsidyProgram) IsActive(today Date) bool {
	return p.EndDate.After(today)
}

// ItemKind tags the concrete kind of a subsidized catalog item.
type ItemKind string

const (
	ItemKindFertilizer    ItemKind = "FERTILIZER"
	ItemKindSeed          ItemKind = "SEED"
	ItemKindAgrochemical  ItemKind = "AGROCHEMICAL"
	ItemKindMechanization ItemKind = "MECHANIZATION"
)

// Valid reports whether k is one of the four catalog kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case ItemKindFertilizer, ItemKindSeed, ItemKindAgrochemical, ItemKindMechanization:
		return true
	}
	return false
}

// Units accepted for catalog items.
const (
	UnitKilogram   = "kg"
	Unit50Kilogram = "50kg"
	UnitLiter      = "ltr"
	UnitHectare    = "ha"
)

// ItemDetail is implemented by each kind-specific detail record.
type ItemDetail interface {
	Kind() ItemKind
}

type FertilizerDetail struct {
	Manufacturer string `json:"manufacturer"`
	Type         string `json:"fertilizer_type"` // NPK, UREA, SSP, MOP, OTHER
	Blend        string `json:"blend"`           // e.g. 20:10:10
}

type SeedDetail struct {
	Company string `json:"seed_company"`
	Crop    string `json:"crop"`
	Variety string `json:"variety,omitempty"`
	GMO     bool   `json:"gmo"`
}

type AgrochemicalDetail struct {
	Manufacturer string `json:"manufacturer"`
	Type         string `json:"agrochemical_type"` // PRE, POS, PES, INT
}

type MechanizationDetail struct {
	Operation string `json:"operation_type"` // PLOWING, HARVESTING, ...
}

func (FertilizerDetail) Kind() ItemKind    { return ItemKindFertilizer }
func (SeedDetail) Kind() ItemKind          { return ItemKindSeed }
func (AgrochemicalDetail) Kind() ItemKind  { return ItemKindAgrochemical }
func (MechanizationDetail) Kind() ItemKind { return ItemKindMechanization }

// SubsidizedItem is a priced catalog entry. Exactly one of the detail pointers is set,
// matching Kind.
type SubsidizedItem struct {
	ID            string               `json:"id"`
	Kind          ItemKind             `json:"kind"`
	Name          string               `json:"name"`
	Unit          string               `json:"unit"`
	Price         decimal.Decimal      `json:"price"` // per unit, 2 dp
	Fertilizer    *FertilizerDetail    `json:"fertilizer,omitempty"`
	Seed          *SeedDetail          `json:"seed,omitempty"`
	Agrochemical  *AgrochemicalDetail  `json:"agrochemical,omitempty"`
	Mechanization *MechanizationDetail `json:"mechanization,omitempty"`
	AuditFields
}

// Detail returns the populated detail for the item's kind.
func (i SubsidizedItem) Detail() (ItemDetail, error) {
	var detail ItemDetail
	switch i.Kind {
	case ItemKindFertilizer:
		if i.Fertilizer != nil {
			detail = *i.Fertilizer
		}
	case ItemKindSeed:
		if i.Seed != nil {
			detail = *i.Seed
		}
	case ItemKindAgrochemical:
		if i.Agrochemical != nil {
			detail = *i.Agrochemical
		}
	case ItemKindMechanization:
		if i.Mechanization != nil {
			detail = *i.Mechanization
		}
	default:
		return nil, fmt.Errorf("unknown item kind %q", i.Kind)
	}
	if detail == nil {
		return nil, fmt.Errorf("item %s has no %s detail", i.ID, i.Kind)
	}
	return detail, nil
}

// itemDetailRecord is the persisted form of an item's detail column.
type itemDetailRecord struct {
	Fertilizer    *FertilizerDetail    `json:"fertilizer,omitempty"`
	Seed          *SeedDetail          `json:"seed,omitempty"`
	Agrochemical  *AgrochemicalDetail  `json:"agrochemical,omitempty"`
	Mechanization *MechanizationDetail `json:"mechanization,omitempty"`
}

// MarshalDetail serializes the item's detail for storage.
func (i SubsidizedItem) MarshalDetail() (string, error) {
	data, err := json.Marshal(itemDetailRecord{
		Fertilizer:    i.Fertilizer,
		Seed:          i.Seed,
		Agrochemical:  i.Agrochemical,
		Mechanization: i.Mechanization,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalDetail restores the detail pointers from their stored form.
func (i *SubsidizedItem) UnmarshalDetail(data string) error {
	if data == "" {
		return nil
	}
	var rec itemDetailRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return err
	}
	i.Fertilizer = rec.Fertilizer
	i.Seed = rec.Seed
	i.Agrochemical = rec.Agrochemical
	i.Mechanization = rec.Mechanization
	return nil
}

// SubsidyRate overrides a program's rate for one item.
type SubsidyRate struct {
	ProgramID string          `json:"program_id"`
	ItemID    string          `json:"item_id"`
	Rate      decimal.Decimal `json:"rate"` // percent, 1 dp
	AuditFields
}

// RateSource records where the applied rate came from.
type RateSource string

const (
	RateSourceOverride RateSource = "override"
	RateSourceProgram  RateSource = "program"
)

// SubsidyInstance is one redemption of an item under a program by a farmer.
type SubsidyInstance struct {
	ID                 string          `json:"id"`
	FarmerID           string          `json:"farmer_id"`
	ItemID             string          `json:"item_id"`
	ProgramID          string          `json:"program_id"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Rate               decimal.Decimal `json:"rate"`
	RateSource         RateSource      `json:"rate_source"`
	GrossPrice         decimal.Decimal `json:"gross_price"`
	DiscountedPrice    decimal.Decimal `json:"discounted_price"` // what the farmer pays, frozen
	RedemptionDate     Date            `json:"redemption_date"`
	RedemptionLocation string          `json:"redemption_location,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// SubsidyValue is the amount covered by the program.
func (s SubsidyInstance) SubsidyValue() decimal.Decimal {
	return s.GrossPrice.Sub(s.DiscountedPrice)
}

// PriceHistory records a catalog price change.
type PriceHistory struct {
	ID         string          `json:"id"`
	ItemID     string          `json:"item_id"`
	Price      decimal.Decimal `json:"price"`
	Unit       string          `json:"unit"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// ProgramSummary aggregates redemptions under a program.
type ProgramSummary struct {
	ProgramID            string              `json:"program_id"`
	Active               bool                `json:"active"`
	CurrentBeneficiaries int                 `json:"current_num_of_beneficiaries"`
	TargetBeneficiaries  int                 `json:"target_num_of_beneficiaries"`
	Redemptions          int                 `json:"redemptions"`
	TotalDisbursed       decimal.Decimal     `json:"total_disbursed"`
	TotalFarmerPaid      decimal.Decimal     `json:"total_farmer_paid"`
	RemainingBudget      decimal.NullDecimal `json:"remaining_budget"`
}
