// Package marketday computes periodic market days from a confirmed reference day.
//
// Markets in the platform meet every N days. A market day is any date on the lattice
// reference + k*N for integer k, so the values are derived from stored fields on demand
// rather than cached on the market.
package marketday

import (
	"agri-ledger/internal/models"
)

// DefaultInterval is used when a market has no interval configured.
const DefaultInterval = 4

func normalizeInterval(interval int) int {
	if interval <= 0 {
		return DefaultInterval
	}
	return interval
}

// offset returns today's position within the interval cycle, in [0, interval).
func offset(reference models.Date, interval int, today models.Date) int {
	diff := today.DaysSince(reference) % interval
	if diff < 0 {
		diff += interval
	}
	return diff
}

// IsMarketDay reports whether today falls on the market's cycle.
func IsMarketDay(reference models.Date, interval int, today models.Date) bool {
	interval = normalizeInterval(interval)
	return offset(reference, interval, today) == 0
}

// Next returns the first market day on or after today.
func Next(reference models.Date, interval int, today models.Date) models.Date {
	interval = normalizeInterval(interval)
	off := offset(reference, interval, today)
	if off == 0 {
		return today
	}
	return today.AddDays(interval - off)
}

// Reference picks the anchor for a market: the last recorded market day when known,
// otherwise the configured reference date.
func Reference(m models.Market) models.Date {
	if !m.LastMarketDay.IsZero() {
		return m.LastMarketDay
	}
	return m.ReferenceDate
}

// NextForMarket returns the next market day for m on or after today.
func NextForMarket(m models.Market, today models.Date) models.Date {
	return Next(Reference(m), m.MarketDayInterval, today)
}

// IsMarketDayForMarket reports whether today is a market day for m.
func IsMarketDayForMarket(m models.Market, today models.Date) bool {
	return IsMarketDay(Reference(m), m.MarketDayInterval, today)
}
