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

// InsertMarket creates a market.
func (q *Queries) InsertMarket(ctx context.Context, m models.Market) error {
	_, err := q.exec(ctx, `INSERT INTO markets (id, name, state, market_day_interval, reference_date,
		last_market_day, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.State, m.MarketDayInterval, m.ReferenceDate, m.LastMarketDay, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("market %q: %w", m.Name, sentinel.ErrDuplicateCatalog)
		}
		return fmt.Errorf("failed to insert market: %w", err)
	}
	return nil
}

// GetMarket returns a market by ID.
func (q *Queries) GetMarket(ctx context.Context, id string) (models.Market, error) {
	var m models.Market
	err := q.queryRow(ctx, `SELECT id, name, state, market_day_interval, reference_date,
		last_market_day, created_at, updated_at FROM markets WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.State, &m.MarketDayInterval, &m.ReferenceDate, &m.LastMarketDay,
			&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return m, fmt.Errorf("market %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return m, fmt.Errorf("failed to get market: %w", err)
	}
	return m, nil
}

// AdvanceLastMarketDay moves the market's last market day forward to day. Earlier dates
// leave it unchanged; the result reports whether the row moved.
func (q *Queries) AdvanceLastMarketDay(ctx context.Context, marketID string, day models.Date, now time.Time) (bool, error) {
	res, err := q.exec(ctx, `UPDATE markets SET last_market_day = ?, updated_at = ?
		WHERE id = ? AND (last_market_day IS NULL OR last_market_day < ?)`, day, now, marketID, day)
	if err != nil {
		return false, fmt.Errorf("failed to advance last market day: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertVendor creates a vendor.
func (q *Queries) InsertVendor(ctx context.Context, v models.Vendor) error {
	_, err := q.exec(ctx, `INSERT INTO vendors (id, name, state, verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, v.ID, v.Name, v.State, v.Verified, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert vendor: %w", err)
	}
	return nil
}

// GetVendor returns a vendor by ID.
func (q *Queries) GetVendor(ctx context.Context, id string) (models.Vendor, error) {
	var v models.Vendor
	err := q.queryRow(ctx, `SELECT id, name, state, verified, created_at, updated_at
		FROM vendors WHERE id = ?`, id).
		Scan(&v.ID, &v.Name, &v.State, &v.Verified, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return v, fmt.Errorf("vendor %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return v, fmt.Errorf("failed to get vendor: %w", err)
	}
	return v, nil
}

// InsertProduce adds a produce type.
func (q *Queries) InsertProduce(ctx context.Context, p models.Produce) error {
	_, err := q.exec(ctx, `INSERT INTO produce (id, name, unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, p.ID, p.Name, p.Unit, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("produce %q: %w", p.Name, sentinel.ErrDuplicateCatalog)
		}
		return fmt.Errorf("failed to insert produce: %w", err)
	}
	return nil
}

// GetProduce returns a produce type by ID.
func (q *Queries) GetProduce(ctx context.Context, id string) (models.Produce, error) {
	var p models.Produce
	err := q.queryRow(ctx, `SELECT id, name, unit, created_at, updated_at FROM produce WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Unit, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("produce %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("failed to get produce: %w", err)
	}
	return p, nil
}

// InsertProducePrice records a price observation. One price per (produce, market, date).
func (q *Queries) InsertProducePrice(ctx context.Context, p models.ProducePrice) error {
	_, err := q.exec(ctx, `INSERT INTO produce_prices (id, market_id, produce_id, price, market_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, p.ID, p.MarketID, p.ProduceID, p.Price, p.MarketDate, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicatePrice
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("unknown market or produce: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("failed to insert produce price: %w", err)
	}
	return nil
}

// ListProducePrices returns a market's prices, newest market day first. A non-zero day
// restricts the listing to that day.
func (q *Queries) ListProducePrices(ctx context.Context, marketID string, day models.Date) ([]models.ProducePrice, error) {
	query := `SELECT id, market_id, produce_id, price, market_date, created_at
		FROM produce_prices WHERE market_id = ?`
	args := []any{marketID}
	if !day.IsZero() {
		query += ` AND market_date = ?`
		args = append(args, day)
	}
	rows, err := q.query(ctx, query+` ORDER BY market_date DESC, produce_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query produce prices: %w", err)
	}
	defer rows.Close()

	var out []models.ProducePrice
	for rows.Next() {
		var p models.ProducePrice
		if err := rows.Scan(&p.ID, &p.MarketID, &p.ProduceID, &p.Price, &p.MarketDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan produce price: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating produce prices: %w", err)
	}
	return out, nil
}
