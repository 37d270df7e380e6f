package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestProduction_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewProduction(reg)

	m.ObserveRun("committed", 10*time.Millisecond)
	m.ObserveRun("committed", 20*time.Millisecond)
	m.ObserveRun("insufficient_stock", time.Millisecond)
	m.AddProduced("bread", 20)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.produced.WithLabelValues("bread")))
}

func TestProduction_NilIsNoop(t *testing.T) {
	var m *Production
	assert.NotPanics(t, func() {
		m.ObserveRun("committed", time.Second)
		m.AddProduced("bread", 1)
	})
}
