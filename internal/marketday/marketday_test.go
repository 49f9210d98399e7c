package marketday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"agri-ledger/internal/models"
)

func TestNext(t *testing.T) {
	ref := models.NewDate(2024, time.March, 1)

	tests := []struct {
		name     string
		interval int
		today    models.Date
		want     models.Date
	}{
		{"on reference", 4, ref, ref},
		{"one day after", 4, ref.AddDays(1), ref.AddDays(4)},
		{"on later cycle", 4, ref.AddDays(8), ref.AddDays(8)},
		{"before reference", 4, ref.AddDays(-1), ref},
		{"well before reference", 5, ref.AddDays(-7), ref.AddDays(-5)},
		{"weekly market", 7, models.NewDate(2024, time.March, 10), models.NewDate(2024, time.March, 15)},
		{"zero interval uses default", 0, ref.AddDays(2), ref.AddDays(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(ref, tt.interval, tt.today)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestIsMarketDay(t *testing.T) {
	ref := models.NewDate(2024, time.March, 1)
	assert.True(t, IsMarketDay(ref, 4, ref))
	assert.True(t, IsMarketDay(ref, 4, ref.AddDays(12)))
	assert.True(t, IsMarketDay(ref, 4, ref.AddDays(-4)))
	assert.False(t, IsMarketDay(ref, 4, ref.AddDays(3)))
}

func TestNextForMarket_PrefersLastMarketDay(t *testing.T) {
	m := models.Market{
		MarketDayInterval: 4,
		ReferenceDate:     models.NewDate(2024, time.January, 1),
		LastMarketDay:     models.NewDate(2024, time.January, 6),
	}
	today := models.NewDate(2024, time.January, 7)

	assert.Equal(t, "2024-01-10", NextForMarket(m, today).String())
	assert.False(t, IsMarketDayForMarket(m, today))

	m.LastMarketDay = models.Date{}
	assert.Equal(t, "2024-01-09", NextForMarket(m, today).String())
}
