package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics tracks ledger writes, duplicate rejections, redemptions and points.
type Metrics struct {
	LedgerEntries        *prometheus.CounterVec
	DuplicatesRejected   *prometheus.CounterVec
	EligibilityRejected  prometheus.Counter
	Redemptions          prometheus.Counter
	NewBeneficiaries     prometheus.Counter
	SubsidyDisbursed     prometheus.Counter
	PointsAwarded        *prometheus.CounterVec
	VerificationsChanged *prometheus.CounterVec
	BadgesAwarded        prometheus.Counter
	CacheLookups         *prometheus.CounterVec
	WriteDuration        *prometheus.HistogramVec
}

// New registers the metrics with reg. A nil reg uses a private registry, which keeps
// tests from colliding on the default one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		LedgerEntries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agri_ledger_entries_recorded_total",
			Help: "Ledger entries recorded, by kind",
		}, []string{"kind"}),
		DuplicatesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agri_ledger_duplicates_rejected_total",
			Help: "Writes rejected by a uniqueness constraint, by kind",
		}, []string{"kind"}),
		EligibilityRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "agri_ledger_eligibility_rejections_total",
			Help: "Redemptions refused by the eligibility check",
		}),
		Redemptions: f.NewCounter(prometheus.CounterOpts{
			Name: "agri_ledger_subsidy_redemptions_total",
			Help: "Subsidy redemptions persisted",
		}),
		NewBeneficiaries: f.NewCounter(prometheus.CounterOpts{
			Name: "agri_ledger_program_beneficiaries_added_total",
			Help: "First redemptions of a farmer under a program",
		}),
		SubsidyDisbursed: f.NewCounter(prometheus.CounterOpts{
			Name: "agri_ledger_subsidy_disbursed_total",
			Help: "Subsidy value covered by programs, in currency units",
		}),
		PointsAwarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agri_ledger_points_awarded_total",
			Help: "Loyalty points awarded, by source",
		}, []string{"source"}),
		VerificationsChanged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agri_ledger_verification_changes_total",
			Help: "Farmer verification flips, by new state",
		}, []string{"verified"}),
		BadgesAwarded: f.NewCounter(prometheus.CounterOpts{
			Name: "agri_ledger_badges_awarded_total",
			Help: "Badges granted to farmers",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agri_ledger_cache_lookups_total",
			Help: "Read-model cache lookups, by result",
		}, []string{"result"}),
		WriteDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agri_ledger_write_duration_seconds",
			Help:    "Duration of transactional writes, by operation",
			Buckets: latencyBuckets,
		}, []string{"operation"}),
	}
}

// ObserveWrite records the duration of a write. Call with time.Now() at the start.
func (m *Metrics) ObserveWrite(operation string, start time.Time) {
	m.WriteDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncLedgerEntry(kind string) {
	m.LedgerEntries.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncDuplicate(kind string) {
	m.DuplicatesRejected.WithLabelValues(kind).Inc()
}

func (m *Metrics) AddPoints(source string, points int) {
	if points > 0 {
		m.PointsAwarded.WithLabelValues(source).Add(float64(points))
	}
}

func (m *Metrics) IncVerificationChange(verified bool) {
	label := "false"
	if verified {
		label = "true"
	}
	m.VerificationsChanged.WithLabelValues(label).Inc()
}

func (m *Metrics) IncCache(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}
