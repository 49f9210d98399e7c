package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"agri-ledger/internal/database"
	"agri-ledger/internal/marketday"
	"agri-ledger/internal/models"
	"agri-ledger/internal/pricing"
	"agri-ledger/internal/validation"
)

// RecordProducePrice stores the price of a produce at a market on a market day and moves
// the market's last market day forward to that date.
func (s *Service) RecordProducePrice(ctx context.Context, req models.ProducePriceRequest) (models.ProducePrice, error) {
	if err := validation.ValidateProducePrice(req); err != nil {
		return models.ProducePrice{}, err
	}

	now := s.clock()
	p := models.ProducePrice{
		ID:         uuid.NewString(),
		MarketID:   req.MarketID,
		ProduceID:  req.ProduceID,
		Price:      pricing.NormalizeAmount(req.Price),
		MarketDate: req.MarketDate,
		CreatedAt:  now,
	}

	err := s.write(ctx, "record_produce_price", func(q *database.Queries) error {
		if err := q.InsertProducePrice(ctx, p); err != nil {
			return err
		}
		advanced, err := q.AdvanceLastMarketDay(ctx, p.MarketID, p.MarketDate, now)
		if err != nil {
			return err
		}
		if advanced {
			s.logger.Debug("last market day advanced", "market_id", p.MarketID, "day", p.MarketDate.String())
		}
		return nil
	}, attribute.String("market.id", req.MarketID))
	if err != nil {
		return models.ProducePrice{}, err
	}

	if s.eventsEnabled() {
		s.events.PublishProducePrice(ctx, p)
	}
	return p, nil
}

// ProducePrices lists a market's prices; a zero day lists every day.
func (s *Service) ProducePrices(ctx context.Context, marketID string, day models.Date) ([]models.ProducePrice, error) {
	if _, err := s.GetMarket(ctx, marketID); err != nil {
		return nil, err
	}
	return s.db.Queries().ListProducePrices(ctx, marketID, day)
}

// NextMarketDay returns the first market day on or after today for the market.
func (s *Service) NextMarketDay(ctx context.Context, marketID string) (models.NextMarketDayResponse, error) {
	m, err := s.GetMarket(ctx, marketID)
	if err != nil {
		return models.NextMarketDayResponse{}, err
	}

	today := s.today()
	return models.NextMarketDayResponse{
		MarketID:      m.ID,
		Today:         today,
		NextMarketDay: marketday.NextForMarket(m, today),
		IsMarketDay:   marketday.IsMarketDayForMarket(m, today),
	}, nil
}
