package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngine(reg)

	m.ObserveTick(OutcomeMerged, 10, time.Millisecond)
	m.ObserveTick(OutcomeMerged, 13, time.Millisecond)
	m.ObserveTick(OutcomeSkipped, 13, time.Microsecond)
	m.MedianEmitted()
	m.MedianEmitted()
	m.Deletions(2, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks.WithLabelValues(OutcomeMerged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mediansEmitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deletionsApplied))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletionsIgnored))
	assert.Equal(t, 13.0, testutil.ToFloat64(m.aggregateSize))

	count, err := testutil.GatherAndCount(reg, "byname_tick_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilEngineIsNoop(t *testing.T) {
	var m *Engine

	assert.NotPanics(t, func() {
		m.ObserveTick(OutcomeMerged, 1, time.Second)
		m.MedianEmitted()
		m.Deletions(1, 1)
	})
}

func TestNewEngineWithoutRegistry(t *testing.T) {
	m := NewEngine(nil)
	m.MedianEmitted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mediansEmitted))
}
