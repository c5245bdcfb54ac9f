package submit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the submission counters. A nil *Metrics records nothing.
type Metrics struct {
	attempts      *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	confirmations prometheus.Histogram
	inFlight      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sagatx",
			Subsystem: "submit",
			Name:      "attempts_total",
			Help:      "Submission attempts by signing protocol",
		}, []string{"protocol"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sagatx",
			Subsystem: "submit",
			Name:      "runs_total",
			Help:      "Finished submission runs by outcome",
		}, []string{"outcome"}),
		confirmations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sagatx",
			Subsystem: "submit",
			Name:      "confirmation_seconds",
			Help:      "Time from send to confirmation",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s ~ 128s
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sagatx",
			Subsystem: "submit",
			Name:      "runs_in_flight",
			Help:      "Submission runs currently in progress",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.outcomes, m.confirmations, m.inFlight)
	}
	return m
}

func (m *Metrics) attempt(protocol string) {
	if m != nil {
		m.attempts.WithLabelValues(protocol).Inc()
	}
}

func (m *Metrics) runStarted() {
	if m != nil {
		m.inFlight.Inc()
	}
}

// runFinished records the outcome; err == nil is "confirmed".
func (m *Metrics) runFinished(err error) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	outcome := "confirmed"
	if err != nil {
		outcome = Classify(err).String()
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) confirmed(elapsed time.Duration) {
	if m != nil {
		m.confirmations.Observe(elapsed.Seconds())
	}
}
