package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"agri-ledger/internal/models"
	"agri-ledger/internal/pricing"
)

var (
	uuidRegex     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	slugRegex     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	receiptRegex  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/_-]*$`)
	nonSlugRegex  = regexp.MustCompile(`[^a-z0-9]+`)
	identityRegex = regexp.MustCompile(`^[0-9]{8,20}$`)
)

const (
	maxNameLength     = 100
	maxQuantity       = 1_000_000
	maxMarketInterval = 30
)

var maxAmount = decimal.NewFromInt(1_000_000_000)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func ValidateFarmer(req models.RegisterFarmerRequest) error {
	if err := validateName(req.FirstName, "first_name"); err != nil {
		return err
	}

	if err := validateName(req.LastName, "last_name"); err != nil {
		return err
	}

	if !identityRegex.MatchString(SanitizeString(req.IdentificationNumber)) {
		return &ValidationError{
			Field:   "identification_number",
			Message: "must be a NIN or BVN of 8 to 20 digits",
		}
	}

	if !req.Category.Valid() {
		return &ValidationError{
			Field:   "category",
			Message: "must be SH or SMH",
		}
	}

	if req.FarmSize.IsNegative() {
		return &ValidationError{
			Field:   "farm_size",
			Message: "must be non-negative",
		}
	}

	if err := validateScale(req.FarmSize, 2, "farm_size"); err != nil {
		return err
	}

	if SanitizeString(req.StateOfResidence) == "" {
		return &ValidationError{
			Field:   "state_of_residence",
			Message: "is required",
		}
	}

	return nil
}

func ValidateMarket(req models.CreateMarketRequest) error {
	if err := validateName(req.Name, "name"); err != nil {
		return err
	}

	if SanitizeString(req.State) == "" {
		return &ValidationError{
			Field:   "state",
			Message: "is required",
		}
	}

	if req.MarketDayInterval < 0 || req.MarketDayInterval > maxMarketInterval {
		return &ValidationError{
			Field:   "market_day_interval",
			Message: fmt.Sprintf("must be between 1 and %d days (0 for the default)", maxMarketInterval),
		}
	}

	return nil
}

func ValidateVendor(req models.CreateVendorRequest) error {
	return validateName(req.Name, "name")
}

func ValidateProduce(req models.CreateProduceRequest) error {
	if err := validateName(req.Name, "name"); err != nil {
		return err
	}

	if SanitizeString(req.Unit) == "" {
		return &ValidationError{
			Field:   "unit",
			Message: "is required",
		}
	}

	return nil
}

func ValidateBadge(req models.CreateBadgeRequest) error {
	if err := validateName(req.Name, "name"); err != nil {
		return err
	}

	if req.PointsRequired < 0 {
		return &ValidationError{
			Field:   "points_required",
			Message: "must be non-negative",
		}
	}

	return nil
}

// ValidateMarketSale checks a sale against today's date; sales cannot be booked ahead.
func ValidateMarketSale(req models.MarketSaleRequest, today models.Date) error {
	if err := ValidateUUID(req.FarmerID, "farmer_id"); err != nil {
		return err
	}

	if err := ValidateUUID(req.MarketID, "market_id"); err != nil {
		return err
	}

	if err := ValidateUUID(req.ProduceID, "produce_id"); err != nil {
		return err
	}

	if req.Quantity <= 0 || req.Quantity > maxQuantity {
		return &ValidationError{
			Field:   "quantity",
			Message: fmt.Sprintf("must be between 1 and %d", maxQuantity),
		}
	}

	return validateLedgerDate(req.TransactionDate, today, "transaction_date")
}

func ValidateInputPurchase(req models.InputPurchaseRequest, today models.Date) error {
	if err := ValidateUUID(req.FarmerID, "farmer_id"); err != nil {
		return err
	}

	if err := ValidateUUID(req.VendorID, "vendor_id"); err != nil {
		return err
	}

	if err := ValidateAmount(req.Amount, "amount"); err != nil {
		return err
	}

	if !req.Amount.IsPositive() {
		return &ValidationError{
			Field:   "amount",
			Message: "must be positive",
		}
	}

	receipt := SanitizeString(req.ReceiptNumber)
	if receipt == "" {
		return &ValidationError{
			Field:   "receipt_number",
			Message: "is required",
		}
	}

	if len(receipt) > 255 || !receiptRegex.MatchString(receipt) {
		return &ValidationError{
			Field:   "receipt_number",
			Message: "must be at most 255 letters, digits, '/', '_' or '-'",
		}
	}

	return validateLedgerDate(req.TransactionDate, today, "transaction_date")
}

// ValidateProgram checks a program definition. An out-of-range rate is reported as a
// *sentinel.RateError rather than a ValidationError.
func ValidateProgram(req models.CreateProgramRequest) error {
	if err := validateName(req.Title, "title"); err != nil {
		return err
	}

	if req.Slug != "" && !slugRegex.MatchString(req.Slug) {
		return &ValidationError{
			Field:   "slug",
			Message: "must be lowercase letters, digits and single hyphens",
		}
	}

	switch req.Level {
	case models.ProgramLevelNational:
	case models.ProgramLevelState:
		if SanitizeString(req.State) == "" {
			return &ValidationError{
				Field:   "state",
				Message: "is required for STATE programs",
			}
		}
	default:
		return &ValidationError{
			Field:   "level",
			Message: "must be STATE or NATIONAL",
		}
	}

	if err := ValidateRate(req.Rate); err != nil {
		return err
	}

	if req.TargetBeneficiaries < 0 {
		return &ValidationError{
			Field:   "target_num_of_beneficiaries",
			Message: "must be non-negative",
		}
	}

	if req.Budget.Valid {
		if err := ValidateAmount(req.Budget.Decimal, "budget"); err != nil {
			return err
		}
	}

	if req.StartDate.IsZero() {
		return &ValidationError{
			Field:   "start_date",
			Message: "is required",
		}
	}

	if req.EndDate.IsZero() {
		return &ValidationError{
			Field:   "end_date",
			Message: "is required",
		}
	}

	if !req.StartDate.Before(req.EndDate) {
		return &ValidationError{
			Field:   "start_date",
			Message: "must be before end_date",
		}
	}

	return nil
}

func ValidateItem(req models.CreateItemRequest) error {
	if !req.Kind.Valid() {
		return &ValidationError{
			Field:   "kind",
			Message: "must be FERTILIZER, SEED, AGROCHEMICAL or MECHANIZATION",
		}
	}

	if err := validateName(req.Name, "name"); err != nil {
		return err
	}

	switch req.Unit {
	case models.UnitKilogram, models.Unit50Kilogram, models.UnitLiter, models.UnitHectare:
	default:
		return &ValidationError{
			Field:   "unit",
			Message: "must be one of kg, 50kg, ltr, ha",
		}
	}

	if err := ValidateAmount(req.Price, "price"); err != nil {
		return err
	}

	item := models.SubsidizedItem{
		Kind:          req.Kind,
		Fertilizer:    req.Fertilizer,
		Seed:          req.Seed,
		Agrochemical:  req.Agrochemical,
		Mechanization: req.Mechanization,
	}
	if _, err := item.Detail(); err != nil {
		return &ValidationError{
			Field:   strings.ToLower(string(req.Kind)),
			Message: "detail is required for this kind",
		}
	}

	if req.Mechanization != nil && SanitizeString(req.Mechanization.Operation) == "" {
		return &ValidationError{
			Field:   "mechanization.operation_type",
			Message: "is required",
		}
	}

	return nil
}

// ValidateRate returns a *sentinel.RateError outside [0, 100] and a ValidationError when
// the rate carries more than one decimal place.
func ValidateRate(rate decimal.Decimal) error {
	if err := pricing.ValidateRate(rate); err != nil {
		return err
	}
	return validateScale(rate, 1, "rate")
}

func ValidateRedemption(req models.RedemptionRequest) error {
	if err := ValidateUUID(req.FarmerID, "farmer_id"); err != nil {
		return err
	}

	if err := ValidateUUID(req.ItemID, "item_id"); err != nil {
		return err
	}

	if err := ValidateUUID(req.ProgramID, "program_id"); err != nil {
		return err
	}

	if req.Quantity <= 0 || req.Quantity > maxQuantity {
		return &ValidationError{
			Field:   "quantity",
			Message: fmt.Sprintf("must be between 1 and %d", maxQuantity),
		}
	}

	return nil
}

func ValidateProducePrice(req models.ProducePriceRequest) error {
	if err := ValidateUUID(req.MarketID, "market_id"); err != nil {
		return err
	}

	if err := ValidateUUID(req.ProduceID, "produce_id"); err != nil {
		return err
	}

	if err := ValidateAmount(req.Price, "price"); err != nil {
		return err
	}

	if req.MarketDate.IsZero() {
		return &ValidationError{
			Field:   "market_date",
			Message: "is required",
		}
	}

	return nil
}

// ValidateAmount accepts non-negative money with at most two decimal places.
func ValidateAmount(amount decimal.Decimal, fieldName string) error {
	if amount.IsNegative() {
		return &ValidationError{
			Field:   fieldName,
			Message: "must be non-negative",
		}
	}

	if amount.GreaterThan(maxAmount) {
		return &ValidationError{
			Field:   fieldName,
			Message: "exceeds maximum allowed amount",
		}
	}

	return validateScale(amount, 2, fieldName)
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	s = nonSlugRegex.ReplaceAllString(strings.ToLower(SanitizeString(s)), "-")
	return strings.Trim(s, "-")
}

func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

func ValidateUUID(id, fieldName string) error {
	if id == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: "is required",
		}
	}

	id = SanitizeString(id)

	if !uuidRegex.MatchString(strings.ToLower(id)) {
		return &ValidationError{
			Field:   fieldName,
			Message: "must be a valid UUID v4",
		}
	}

	return nil
}

// ValidateDateString parses a YYYY-MM-DD query parameter.
func ValidateDateString(dateStr, fieldName string) (models.Date, error) {
	if dateStr == "" {
		return models.Date{}, &ValidationError{
			Field:   fieldName,
			Message: "is required",
		}
	}

	d, err := models.ParseDate(SanitizeString(dateStr))
	if err != nil {
		return models.Date{}, &ValidationError{
			Field:   fieldName,
			Message: "must be a YYYY-MM-DD date",
		}
	}

	return d, nil
}

func validateName(name, fieldName string) error {
	name = SanitizeString(name)
	if name == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: "is required",
		}
	}

	if len(name) > maxNameLength {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("cannot exceed %d characters", maxNameLength),
		}
	}

	return nil
}

func validateScale(d decimal.Decimal, places int32, fieldName string) error {
	if !d.Equal(d.Round(places)) {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("cannot have more than %d decimal places", places),
		}
	}
	return nil
}

func validateLedgerDate(d, today models.Date, fieldName string) error {
	if d.IsZero() {
		return &ValidationError{
			Field:   fieldName,
			Message: "is required",
		}
	}

	if d.After(today) {
		return &ValidationError{
			Field:   fieldName,
			Message: "cannot be in the future",
		}
	}

	if d.Before(today.AddDays(-10 * 365)) {
		return &ValidationError{
			Field:   fieldName,
			Message: "cannot be more than 10 years in the past",
		}
	}

	return nil
}
