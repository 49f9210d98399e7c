package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncLedgerEntry("market_sale")
	m.IncLedgerEntry("market_sale")
	m.IncDuplicate("redemption")
	m.AddPoints("input_purchase", 2)
	m.AddPoints("input_purchase", 0)
	m.IncVerificationChange(true)
	m.IncCache(false)
	m.ObserveWrite("record_market_sale", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerEntries.WithLabelValues("market_sale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesRejected.WithLabelValues("redemption")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PointsAwarded.WithLabelValues("input_purchase")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationsChanged.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilRegistryIsPrivate(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}
