package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rockburst"

// Metrics holds the prediction instruments
type Metrics struct {
	Predictions *prometheus.CounterVec
	Errors      *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// New creates the instruments and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Predictions served, by grade and model version.",
			}, []string{"grade", "model"}),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_errors_total",
				Help:      "Failed predictions, by reason.",
			}, []string{"reason"}),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_duration_seconds",
				Help:      "Time spent scoring a feature vector.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
			}, []string{"model"}),
	}

	reg.MustRegister(m.Predictions, m.Errors, m.Duration)
	return m
}

// ObservePrediction records a successful prediction
func (m *Metrics) ObservePrediction(grade int, model string, seconds float64) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(gradeLabel(grade), model).Inc()
	m.Duration.WithLabelValues(model).Observe(seconds)
}

// ObserveError records a failed prediction
func (m *Metrics) ObserveError(reason string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(reason).Inc()
}

func gradeLabel(g int) string {
	switch g {
	case 0, 1, 2, 3:
		return strconv.Itoa(g)
	default:
		return "unknown"
	}
}
