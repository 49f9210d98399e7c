package service

import (
	"context"
	"time"

	"agri-ledger/internal/database"
	"agri-ledger/internal/models"
)

// awardBadges grants every badge whose threshold the farmer's points reach. Runs inside
// the write transaction that changed the points; a badge already held is skipped.
func awardBadges(ctx context.Context, q *database.Queries, farmerID string, points int, now time.Time) ([]models.Badge, error) {
	candidates, err := q.UnheldBadges(ctx, farmerID, points)
	if err != nil {
		return nil, err
	}

	var awarded []models.Badge
	for _, b := range candidates {
		ok, err := q.AwardBadge(ctx, farmerID, b.ID, now)
		if err != nil {
			return nil, err
		}
		if ok {
			awarded = append(awarded, b)
		}
	}
	return awarded, nil
}

// FarmerBadges lists the badges a farmer holds.
func (s *Service) FarmerBadges(ctx context.Context, farmerID string) ([]models.FarmerBadge, error) {
	if _, err := s.GetFarmer(ctx, farmerID); err != nil {
		return nil, err
	}
	return s.db.Queries().ListFarmerBadges(ctx, farmerID)
}
