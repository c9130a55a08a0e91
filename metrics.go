package grapht

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the solver's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	solves           prometheus.Counter
	ruleApplications *prometheus.CounterVec
	defaultFallbacks *prometheus.CounterVec
	memoHits         prometheus.Counter
	failures         *prometheus.CounterVec
	solveDuration    prometheus.Histogram
}

// NewMetrics creates the solver collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		solves: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "grapht_solves_total",
				Help: "Number of solve invocations.",
			},
		),
		ruleApplications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grapht_rule_applications_total",
				Help: "Number of bind rules applied, by rule weight.",
			},
			[]string{"weight"},
		),
		defaultFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grapht_default_fallbacks_total",
				Help: "Number of desires resolved by a default, by default source.",
			},
			[]string{"source"},
		),
		memoHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "grapht_memo_hits_total",
				Help: "Number of nodes reused from the resolution memo.",
			},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grapht_failures_total",
				Help: "Number of failed solves, by error kind.",
			},
			[]string{"kind"},
		),
		solveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "grapht_solve_duration_seconds",
				Help:    "Time taken to solve a set of root desires.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.solves,
			m.ruleApplications,
			m.defaultFallbacks,
			m.memoHits,
			m.failures,
			m.solveDuration,
		)
	}
	return m
}

func (m *Metrics) observeSolve(start time.Time, err error) {
	if m == nil {
		return
	}
	m.solves.Inc()
	m.solveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.failures.WithLabelValues(errorKind(err)).Inc()
	}
}

func (m *Metrics) ruleApplied(r BindRule) {
	if m == nil {
		return
	}
	m.ruleApplications.WithLabelValues(strconv.Itoa(r.Weight())).Inc()
}

func (m *Metrics) defaultUsed(source string) {
	if m == nil {
		return
	}
	m.defaultFallbacks.WithLabelValues(source).Inc()
}

func (m *Metrics) memoHit() {
	if m == nil {
		return
	}
	m.memoHits.Inc()
}
