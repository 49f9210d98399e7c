package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
)

const programColumns = `id, title, slug, sponsor, level, state, rate, target_beneficiaries,
	current_beneficiaries, budget, start_date, end_date, created_at, updated_at`

// InsertProgram creates a subsidy program.
func (q *Queries) InsertProgram(ctx context.Context, p models.SubsidyProgram) error {
	_, err := q.exec(ctx, `INSERT INTO subsidy_programs (`+programColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Sponsor, string(p.Level), p.State, p.Rate, p.TargetBeneficiaries,
		p.CurrentBeneficiaries, p.Budget, p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("program slug %q: %w", p.Slug, sentinel.ErrDuplicateCatalog)
		}
		return fmt.Errorf("failed to insert program: %w", err)
	}
	return nil
}

// GetProgram returns a program by ID.
func (q *Queries) GetProgram(ctx context.Context, id string) (models.SubsidyProgram, error) {
	return q.getProgram(ctx, id, "")
}

// GetProgramForUpdate reads the program and, on Postgres, locks its row so beneficiary
// and budget checks are serialized per program.
func (q *Queries) GetProgramForUpdate(ctx context.Context, id string) (models.SubsidyProgram, error) {
	return q.getProgram(ctx, id, q.forUpdate())
}

func (q *Queries) getProgram(ctx context.Context, id, suffix string) (models.SubsidyProgram, error) {
	row := q.queryRow(ctx, `SELECT `+programColumns+` FROM subsidy_programs WHERE id = ?`+suffix, id)
	p, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("program %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

// ListPrograms returns all programs, or only those still running on activeOn when it is set.
func (q *Queries) ListPrograms(ctx context.Context, activeOn models.Date) ([]models.SubsidyProgram, error) {
	query := `SELECT ` + programColumns + ` FROM subsidy_programs`
	var args []any
	if !activeOn.IsZero() {
		query += ` WHERE end_date > ?`
		args = append(args, activeOn)
	}
	rows, err := q.query(ctx, query+` ORDER BY start_date, slug`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	var out []models.SubsidyProgram
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating programs: %w", err)
	}
	return out, nil
}

func scanProgram(s rowScanner) (models.SubsidyProgram, error) {
	var (
		p     models.SubsidyProgram
		level string
	)
	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Sponsor, &level, &p.State, &p.Rate,
		&p.TargetBeneficiaries, &p.CurrentBeneficiaries, &p.Budget, &p.StartDate, &p.EndDate,
		&p.CreatedAt, &p.UpdatedAt)
	p.Level = models.ProgramLevel(level)
	return p, err
}

// AddBeneficiary records farmerID as a beneficiary of programID. It reports false when the
// farmer was already counted; the counter is incremented only on the first insert.
func (q *Queries) AddBeneficiary(ctx context.Context, programID, farmerID string, now time.Time) (bool, error) {
	res, err := q.exec(ctx, `INSERT INTO program_beneficiaries (program_id, farmer_id, first_redeemed_at)
		VALUES (?, ?, ?) ON CONFLICT (program_id, farmer_id) DO NOTHING`, programID, farmerID, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert beneficiary: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if _, err := q.IncrementBeneficiaries(ctx, programID, now); err != nil {
		return false, err
	}
	return true, nil
}

// IncrementBeneficiaries atomically bumps the program's beneficiary counter.
func (q *Queries) IncrementBeneficiaries(ctx context.Context, programID string, now time.Time) (int, error) {
	var current int
	err := q.queryRow(ctx, `UPDATE subsidy_programs
		SET current_beneficiaries = current_beneficiaries + 1, updated_at = ?
		WHERE id = ? RETURNING current_beneficiaries`, now, programID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("program %s: %w", programID, sentinel.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment beneficiaries: %w", err)
	}
	return current, nil
}

const itemColumns = `id, kind, name, unit, price, detail, created_at, updated_at`

// InsertItem adds a catalog item.
func (q *Queries) InsertItem(ctx context.Context, item models.SubsidizedItem) error {
	detail, err := item.MarshalDetail()
	if err != nil {
		return fmt.Errorf("failed to encode item detail: %w", err)
	}
	_, err = q.exec(ctx, `INSERT INTO subsidized_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, string(item.Kind), item.Name, item.Unit, item.Price, detail, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %q: %w", item.Kind, item.Name, sentinel.ErrDuplicateCatalog)
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// GetItem returns a catalog item by ID.
func (q *Queries) GetItem(ctx context.Context, id string) (models.SubsidizedItem, error) {
	row := q.queryRow(ctx, `SELECT `+itemColumns+` FROM subsidized_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return item, fmt.Errorf("item %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return item, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems returns the catalog, optionally filtered by kind.
func (q *Queries) ListItems(ctx context.Context, kind models.ItemKind) ([]models.SubsidizedItem, error) {
	query := `SELECT ` + itemColumns + ` FROM subsidized_items`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	rows, err := q.query(ctx, query+` ORDER BY kind, name`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var out []models.SubsidizedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return out, nil
}

func scanItem(s rowScanner) (models.SubsidizedItem, error) {
	var (
		item         models.SubsidizedItem
		kind, detail string
	)
	if err := s.Scan(&item.ID, &kind, &item.Name, &item.Unit, &item.Price, &detail,
		&item.CreatedAt, &item.UpdatedAt); err != nil {
		return item, err
	}
	item.Kind = models.ItemKind(kind)
	if err := item.UnmarshalDetail(detail); err != nil {
		return item, fmt.Errorf("failed to decode item detail: %w", err)
	}
	return item, nil
}

// UpdateItemPrice sets a new catalog price and appends a history row. Frozen redemption
// prices are not touched.
func (q *Queries) UpdateItemPrice(ctx context.Context, h models.PriceHistory) error {
	res, err := q.exec(ctx, `UPDATE subsidized_items SET price = ?, updated_at = ? WHERE id = ?`,
		h.Price, h.RecordedAt, h.ItemID)
	if err != nil {
		return fmt.Errorf("failed to update item price: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", h.ItemID, sentinel.ErrNotFound)
	}
	_, err = q.exec(ctx, `INSERT INTO item_price_history (id, item_id, price, unit, recorded_at)
		VALUES (?, ?, ?, ?, ?)`, h.ID, h.ItemID, h.Price, h.Unit, h.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert price history: %w", err)
	}
	return nil
}

// ListPriceHistory returns an item's price changes, oldest first.
func (q *Queries) ListPriceHistory(ctx context.Context, itemID string) ([]models.PriceHistory, error) {
	rows, err := q.query(ctx, `SELECT id, item_id, price, unit, recorded_at FROM item_price_history
		WHERE item_id = ? ORDER BY recorded_at, id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var out []models.PriceHistory
	for rows.Next() {
		var h models.PriceHistory
		if err := rows.Scan(&h.ID, &h.ItemID, &h.Price, &h.Unit, &h.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}
	return out, nil
}

// UpsertRate sets the rate override for (program, item).
func (q *Queries) UpsertRate(ctx context.Context, r models.SubsidyRate) error {
	_, err := q.exec(ctx, `INSERT INTO subsidy_rates (program_id, item_id, rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (program_id, item_id) DO UPDATE SET
			rate = excluded.rate,
			updated_at = excluded.updated_at`,
		r.ProgramID, r.ItemID, r.Rate, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("unknown program or item: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("failed to upsert rate: %w", err)
	}
	return nil
}

// GetRate returns the override for (program, item), or nil when none is set.
func (q *Queries) GetRate(ctx context.Context, programID, itemID string) (*models.SubsidyRate, error) {
	var r models.SubsidyRate
	err := q.queryRow(ctx, `SELECT program_id, item_id, rate, created_at, updated_at
		FROM subsidy_rates WHERE program_id = ? AND item_id = ?`, programID, itemID).
		Scan(&r.ProgramID, &r.ItemID, &r.Rate, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate: %w", err)
	}
	return &r, nil
}

// DeleteRate removes an override so the program rate applies again.
func (q *Queries) DeleteRate(ctx context.Context, programID, itemID string) error {
	res, err := q.exec(ctx, `DELETE FROM subsidy_rates WHERE program_id = ? AND item_id = ?`, programID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete rate: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("rate %s/%s: %w", programID, itemID, sentinel.ErrNotFound)
	}
	return nil
}

const instanceColumns = `id, farmer_id, item_id, program_id, quantity, unit_price, rate, rate_source,
	gross_price, discounted_price, redemption_date, redemption_location, created_at`

// InsertSubsidyInstance persists a redemption. A repeat (farmer, item, program) fails with
// sentinel.ErrDuplicateRedemption.
func (q *Queries) InsertSubsidyInstance(ctx context.Context, s models.SubsidyInstance) error {
	_, err := q.exec(ctx, `INSERT INTO subsidy_instances (`+instanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.FarmerID, s.ItemID, s.ProgramID, s.Quantity, s.UnitPrice, s.Rate, string(s.RateSource),
		s.GrossPrice, s.DiscountedPrice, s.RedemptionDate, s.RedemptionLocation, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicateRedemption
		}
		return fmt.Errorf("failed to insert subsidy instance: %w", err)
	}
	return nil
}

// HasSubsidyInstance reports whether the farmer already redeemed the item under the program.
func (q *Queries) HasSubsidyInstance(ctx context.Context, farmerID, itemID, programID string) (bool, error) {
	var exists bool
	err := q.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subsidy_instances
		WHERE farmer_id = ? AND item_id = ? AND program_id = ?)`, farmerID, itemID, programID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subsidy instance: %w", err)
	}
	return exists, nil
}

// SubsidyFilter narrows redemption listings.
type SubsidyFilter struct {
	ProgramID string
	FarmerID  string
}

// ListSubsidyInstances returns redemptions ordered by creation.
func (q *Queries) ListSubsidyInstances(ctx context.Context, filter SubsidyFilter) ([]models.SubsidyInstance, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.ProgramID != "" {
		clauses = append(clauses, "program_id = ?")
		args = append(args, filter.ProgramID)
	}
	if filter.FarmerID != "" {
		clauses = append(clauses, "farmer_id = ?")
		args = append(args, filter.FarmerID)
	}
	query := `SELECT ` + instanceColumns + ` FROM subsidy_instances`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	rows, err := q.query(ctx, query+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subsidy instances: %w", err)
	}
	defer rows.Close()

	var out []models.SubsidyInstance
	for rows.Next() {
		var (
			s      models.SubsidyInstance
			source string
		)
		if err := rows.Scan(&s.ID, &s.FarmerID, &s.ItemID, &s.ProgramID, &s.Quantity, &s.UnitPrice,
			&s.Rate, &source, &s.GrossPrice, &s.DiscountedPrice, &s.RedemptionDate,
			&s.RedemptionLocation, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subsidy instance: %w", err)
		}
		s.RateSource = models.RateSource(source)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subsidy instances: %w", err)
	}
	return out, nil
}

// ProgramSubsidyValue returns the subsidy value already disbursed under a program, summed
// exactly in Go so both backends agree on rounding.
func (q *Queries) ProgramSubsidyValue(ctx context.Context, programID string) (decimal.Decimal, error) {
	rows, err := q.query(ctx, `SELECT gross_price, discounted_price FROM subsidy_instances
		WHERE program_id = ?`, programID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query program disbursement: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var gross, discounted decimal.Decimal
		if err := rows.Scan(&gross, &discounted); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan disbursement: %w", err)
		}
		total = total.Add(gross.Sub(discounted))
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating disbursement: %w", err)
	}
	return total, nil
}

// CountBeneficiaries counts distinct farmers recorded for the program.
func (q *Queries) CountBeneficiaries(ctx context.Context, programID string) (int, error) {
	var n int
	err := q.queryRow(ctx, `SELECT COUNT(*) FROM program_beneficiaries WHERE program_id = ?`, programID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count beneficiaries: %w", err)
	}
	return n, nil
}
