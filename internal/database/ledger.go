package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
)

const marketTxColumns = `id, farmer_id, market_id, produce_id, quantity, transaction_date,
	points_earned, created_at, updated_at`

const inputTxColumns = `id, farmer_id, vendor_id, amount, receipt_number, transaction_date,
	points_earned, created_at, updated_at`

// LedgerFilter narrows ledger listings. Zero fields are ignored; To is exclusive.
type LedgerFilter struct {
	FarmerID string
	MarketID string
	From     models.Date
	To       models.Date
}

func (f LedgerFilter) where(marketColumn, dateColumn string) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.FarmerID != "" {
		clauses = append(clauses, "farmer_id = ?")
		args = append(args, f.FarmerID)
	}
	if f.MarketID != "" && marketColumn != "" {
		clauses = append(clauses, marketColumn+" = ?")
		args = append(args, f.MarketID)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, dateColumn+" >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		clauses = append(clauses, dateColumn+" < ?")
		args = append(args, f.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// InsertMarketTransaction appends a market sale. A second sale with the same
// (produce, farmer, market, date) fails with sentinel.ErrDuplicateTransaction.
func (q *Queries) InsertMarketTransaction(ctx context.Context, t models.MarketTransaction) error {
	_, err := q.exec(ctx, `INSERT INTO market_transactions (`+marketTxColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.FarmerID, t.MarketID, t.ProduceID, t.Quantity, t.TransactionDate,
		t.PointsEarned, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicateTransaction
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("unknown market or produce: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("failed to insert market transaction: %w", err)
	}
	return nil
}

// GetMarketTransaction returns a market sale by ID.
func (q *Queries) GetMarketTransaction(ctx context.Context, id string) (models.MarketTransaction, error) {
	row := q.queryRow(ctx, `SELECT `+marketTxColumns+` FROM market_transactions WHERE id = ?`, id)
	t, err := scanMarketTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("market transaction %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return t, fmt.Errorf("failed to get market transaction: %w", err)
	}
	return t, nil
}

// DeleteMarketTransaction removes a market sale.
func (q *Queries) DeleteMarketTransaction(ctx context.Context, id string) error {
	return q.deleteByID(ctx, "market_transactions", "market transaction", id)
}

// HasMarketTransactions reports whether the farmer has any market sale left.
func (q *Queries) HasMarketTransactions(ctx context.Context, farmerID string) (bool, error) {
	return q.exists(ctx, `SELECT 1 FROM market_transactions WHERE farmer_id = ? LIMIT 1`, farmerID)
}

// ListMarketTransactions returns market sales ordered by date.
func (q *Queries) ListMarketTransactions(ctx context.Context, filter LedgerFilter) ([]models.MarketTransaction, error) {
	where, args := filter.where("market_id", "transaction_date")
	rows, err := q.query(ctx, `SELECT `+marketTxColumns+` FROM market_transactions`+where+
		` ORDER BY transaction_date, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query market transactions: %w", err)
	}
	defer rows.Close()

	var out []models.MarketTransaction
	for rows.Next() {
		t, err := scanMarketTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating market transactions: %w", err)
	}
	return out, nil
}

func scanMarketTransaction(s rowScanner) (models.MarketTransaction, error) {
	var t models.MarketTransaction
	err := s.Scan(&t.ID, &t.FarmerID, &t.MarketID, &t.ProduceID, &t.Quantity, &t.TransactionDate,
		&t.PointsEarned, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// InsertInputTransaction appends an input purchase. A receipt number already recorded
// for the same vendor fails with sentinel.ErrDuplicateReceipt.
func (q *Queries) InsertInputTransaction(ctx context.Context, t models.InputTransaction) error {
	_, err := q.exec(ctx, `INSERT INTO input_transactions (`+inputTxColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.FarmerID, t.VendorID, t.Amount, t.ReceiptNumber, t.TransactionDate,
		t.PointsEarned, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicateReceipt
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("unknown vendor: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("failed to insert input transaction: %w", err)
	}
	return nil
}

// GetInputTransaction returns an input purchase by ID.
func (q *Queries) GetInputTransaction(ctx context.Context, id string) (models.InputTransaction, error) {
	row := q.queryRow(ctx, `SELECT `+inputTxColumns+` FROM input_transactions WHERE id = ?`, id)
	t, err := scanInputTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("input transaction %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return t, fmt.Errorf("failed to get input transaction: %w", err)
	}
	return t, nil
}

// DeleteInputTransaction removes an input purchase.
func (q *Queries) DeleteInputTransaction(ctx context.Context, id string) error {
	return q.deleteByID(ctx, "input_transactions", "input transaction", id)
}

// HasInputTransactions reports whether the farmer has any input purchase left.
func (q *Queries) HasInputTransactions(ctx context.Context, farmerID string) (bool, error) {
	return q.exists(ctx, `SELECT 1 FROM input_transactions WHERE farmer_id = ? LIMIT 1`, farmerID)
}

// ListInputTransactions returns input purchases ordered by date.
func (q *Queries) ListInputTransactions(ctx context.Context, filter LedgerFilter) ([]models.InputTransaction, error) {
	where, args := filter.where("", "transaction_date")
	rows, err := q.query(ctx, `SELECT `+inputTxColumns+` FROM input_transactions`+where+
		` ORDER BY transaction_date, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query input transactions: %w", err)
	}
	defer rows.Close()

	var out []models.InputTransaction
	for rows.Next() {
		t, err := scanInputTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan input transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating input transactions: %w", err)
	}
	return out, nil
}

func scanInputTransaction(s rowScanner) (models.InputTransaction, error) {
	var t models.InputTransaction
	err := s.Scan(&t.ID, &t.FarmerID, &t.VendorID, &t.Amount, &t.ReceiptNumber, &t.TransactionDate,
		&t.PointsEarned, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := q.queryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}

func (q *Queries) deleteByID(ctx context.Context, table, noun, id string) error {
	res, err := q.exec(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", noun, err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", noun, id, sentinel.ErrNotFound)
	}
	return nil
}
