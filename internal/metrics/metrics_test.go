package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePrediction(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePrediction(2, "rules-v1", 0.0001)
	m.ObservePrediction(2, "rules-v1", 0.0002)
	m.ObservePrediction(0, "rules-v1", 0.0001)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Predictions.WithLabelValues("2", "rules-v1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("0", "rules-v1")))
}

func TestObserveError(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveError("invalid_input")
	m.ObserveError("invalid_input")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Errors.WithLabelValues("invalid_input")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePrediction(1, "rules-v1", 0.1)
		m.ObserveError("internal")
	})
}

func TestGradeLabel(t *testing.T) {
	assert.Equal(t, "3", gradeLabel(3))
	assert.Equal(t, "unknown", gradeLabel(9))
}
