package database

import (
	"context"
	"fmt"
	"time"

	"agri-ledger/internal/models"
	"agri-ledger/internal/sentinel"
)

// InsertBadge defines a badge.
func (q *Queries) InsertBadge(ctx context.Context, b models.Badge) error {
	_, err := q.exec(ctx, `INSERT INTO badges (id, name, points_required, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.Name, b.PointsRequired, b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("badge %q: %w", b.Name, sentinel.ErrDuplicateCatalog)
		}
		return fmt.Errorf("failed to insert badge: %w", err)
	}
	return nil
}

// UnheldBadges returns the badges a farmer with the given points qualifies for but does
// not hold yet, lowest threshold first.
func (q *Queries) UnheldBadges(ctx context.Context, farmerID string, points int) ([]models.Badge, error) {
	rows, err := q.query(ctx, `SELECT b.id, b.name, b.points_required, b.created_at FROM badges b
		WHERE b.points_required <= ?
		AND NOT EXISTS (SELECT 1 FROM farmer_badges fb WHERE fb.badge_id = b.id AND fb.farmer_id = ?)
		ORDER BY b.points_required, b.name`, points, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var out []models.Badge
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.PointsRequired, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}
	return out, nil
}

// AwardBadge grants a badge. It reports false when the farmer already held it.
func (q *Queries) AwardBadge(ctx context.Context, farmerID, badgeID string, now time.Time) (bool, error) {
	res, err := q.exec(ctx, `INSERT INTO farmer_badges (farmer_id, badge_id, awarded_at) VALUES (?, ?, ?)
		ON CONFLICT (farmer_id, badge_id) DO NOTHING`, farmerID, badgeID, now)
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFarmerBadges returns the badges a farmer holds, in award order.
func (q *Queries) ListFarmerBadges(ctx context.Context, farmerID string) ([]models.FarmerBadge, error) {
	rows, err := q.query(ctx, `SELECT fb.farmer_id, fb.badge_id, b.name, fb.awarded_at
		FROM farmer_badges fb JOIN badges b ON b.id = fb.badge_id
		WHERE fb.farmer_id = ? ORDER BY b.points_required, b.name`, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query farmer badges: %w", err)
	}
	defer rows.Close()

	var out []models.FarmerBadge
	for rows.Next() {
		var fb models.FarmerBadge
		if err := rows.Scan(&fb.FarmerID, &fb.BadgeID, &fb.BadgeName, &fb.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan farmer badge: %w", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating farmer badges: %w", err)
	}
	return out, nil
}
