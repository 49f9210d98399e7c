package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
)

const farmerColumns = `id, first_name, last_name, identification_number, phone_number, category,
	farm_size, state_of_residence, points, has_market_transaction, has_input_transaction,
	is_verified, blacklisted, created_at, updated_at`

// InsertFarmer registers a farmer.
func (q *Queries) InsertFarmer(ctx context.Context, f models.Farmer) error {
	_, err := q.exec(ctx, `INSERT INTO farmers (`+farmerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.FirstName, f.LastName, f.IdentificationNumber, f.PhoneNumber, string(f.Category),
		f.FarmSize, f.StateOfResidence, f.Points, f.HasMarketTransaction, f.HasInputTransaction,
		f.IsVerified, f.Blacklisted, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicateFarmer
		}
		return fmt.Errorf("failed to insert farmer: %w", err)
	}
	return nil
}

// GetFarmer returns the farmer with the given ID.
func (q *Queries) GetFarmer(ctx context.Context, id string) (models.Farmer, error) {
	return q.getFarmer(ctx, id, "")
}

// GetFarmerForUpdate reads the farmer and, on Postgres, locks the row until the
// transaction ends. Ledger writes use it to serialize flag and points updates per farmer.
func (q *Queries) GetFarmerForUpdate(ctx context.Context, id string) (models.Farmer, error) {
	return q.getFarmer(ctx, id, q.forUpdate())
}

func (q *Queries) getFarmer(ctx context.Context, id, suffix string) (models.Farmer, error) {
	row := q.queryRow(ctx, `SELECT `+farmerColumns+` FROM farmers WHERE id = ?`+suffix, id)
	f, err := scanFarmer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Farmer{}, fmt.Errorf("farmer %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Farmer{}, fmt.Errorf("failed to get farmer: %w", err)
	}
	return f, nil
}

// ListFarmers returns farmers ordered by registration time.
func (q *Queries) ListFarmers(ctx context.Context, limit, offset int) ([]models.Farmer, error) {
	rows, err := q.query(ctx, `SELECT `+farmerColumns+` FROM farmers
		ORDER BY created_at, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list farmers: %w", err)
	}
	defer rows.Close()

	var farmers []models.Farmer
	for rows.Next() {
		f, err := scanFarmer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan farmer: %w", err)
		}
		farmers = append(farmers, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating farmers: %w", err)
	}
	return farmers, nil
}

func scanFarmer(s rowScanner) (models.Farmer, error) {
	var (
		f        models.Farmer
		category string
	)
	err := s.Scan(
		&f.ID, &f.FirstName, &f.LastName, &f.IdentificationNumber, &f.PhoneNumber, &category,
		&f.FarmSize, &f.StateOfResidence, &f.Points, &f.HasMarketTransaction,
		&f.HasInputTransaction, &f.IsVerified, &f.Blacklisted, &f.CreatedAt, &f.UpdatedAt,
	)
	f.Category = models.Category(category)
	return f, err
}

// SetVerificationFlags stores both transaction flags and the derived verification flag.
func (q *Queries) SetVerificationFlags(ctx context.Context, farmerID string, hasMarket, hasInput, verified bool, now time.Time) error {
	res, err := q.exec(ctx, `UPDATE farmers
		SET has_market_transaction = ?, has_input_transaction = ?, is_verified = ?, updated_at = ?
		WHERE id = ?`, hasMarket, hasInput, verified, now, farmerID)
	if err != nil {
		return fmt.Errorf("failed to update farmer flags: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("farmer %s: %w", farmerID, sentinel.ErrNotFound)
	}
	return nil
}

// AddPoints atomically adds delta to the farmer's points and returns the new total.
func (q *Queries) AddPoints(ctx context.Context, farmerID string, delta int, now time.Time) (int, error) {
	var total int
	err := q.queryRow(ctx, `UPDATE farmers SET points = points + ?, updated_at = ?
		WHERE id = ? RETURNING points`, delta, now, farmerID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("farmer %s: %w", farmerID, sentinel.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add points: %w", err)
	}
	return total, nil
}

// SetBlacklisted flags or clears a farmer's blacklist status.
func (q *Queries) SetBlacklisted(ctx context.Context, farmerID string, blacklisted bool, now time.Time) error {
	res, err := q.exec(ctx, `UPDATE farmers SET blacklisted = ?, updated_at = ? WHERE id = ?`,
		blacklisted, now, farmerID)
	if err != nil {
		return fmt.Errorf("failed to update blacklist: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("farmer %s: %w", farmerID, sentinel.ErrNotFound)
	}
	return nil
}

// DeleteFarmer removes a farmer with no ledger entries. It returns sentinel.ErrReferenced
// when any ledger entry or redemption still points at the farmer.
func (q *Queries) DeleteFarmer(ctx context.Context, farmerID string) error {
	res, err := q.exec(ctx, `DELETE FROM farmers WHERE id = ?`, farmerID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("farmer %s: %w", farmerID, sentinel.ErrReferenced)
		}
		return fmt.Errorf("failed to delete farmer: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("farmer %s: %w", farmerID, sentinel.ErrNotFound)
	}
	return nil
}
