package grapht

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetrics_RecordsSolve(t *testing.T) {
	u, cfg := largeFixture(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := NewSolver(cfg, u, WithMetrics(m))

	_, err := s.Solve(context.Background(), root("App"))
	require.NoError(t, err)
	_, err = s.Solve(context.Background(), root("Repo"), root("Repo"), root("Queue"), root("Missing"))
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.solves))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("unresolvable")))
	assert.Positive(t, testutil.ToFloat64(m.ruleApplications.WithLabelValues("1")))
	assert.Positive(t, testutil.ToFloat64(m.defaultFallbacks.WithLabelValues(DefaultConcrete)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.defaultFallbacks.WithLabelValues(DefaultQualifierValue)))
	assert.Positive(t, testutil.ToFloat64(m.memoHits))

	count, err := testutil.GatherAndCount(reg, "grapht_solves_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.memoHit()
		m.defaultUsed(DefaultNullable)
		m.ruleApplied(BindType(typeA, MatchAny(), typeA))
	})
}

func TestSolver_LogsResolutionEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	u, cfg := largeFixture(t)

	_, err := NewSolver(cfg, u, WithLogger(zap.New(core))).Solve(context.Background(), root("App"))
	require.NoError(t, err)

	assert.NotZero(t, logs.FilterMessage("rule selected").Len())
	assert.NotZero(t, logs.FilterMessage("default used").Len())
	assert.NotZero(t, logs.FilterMessage("node recorded").Len())
	assert.Equal(t, 1, logs.FilterMessage("solve complete").Len())
}
