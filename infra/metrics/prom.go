package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/parkagent/core/metrics"
)

// PromSink records decision and payment events in Prometheus metrics.
type PromSink struct {
	decisions  *prometheus.CounterVec
	scores     *prometheus.HistogramVec
	duration   *prometheus.HistogramVec
	candidates *prometheus.GaugeVec
	payments   *prometheus.CounterVec
	payLatency prometheus.Histogram
}

// NewPromSink registers metrics on the default Prometheus registerer. The
// HTTP API exposes them on /metrics.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer
// defaults to the global one. Metrics already registered by an earlier sink
// are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.decisions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkagent_decisions_total",
		Help: "Decisions taken, by pipeline, outcome and rejection reason",
	}, []string{"mode", "outcome", "reason"})); err != nil {
		return nil, err
	}
	if s.scores, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parkagent_decision_score",
		Help:    "Score of the selected provider",
		Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1, 2, 5, 10, 25},
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parkagent_decision_duration_seconds",
		Help:    "Time spent running a decision pipeline",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if s.candidates, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parkagent_decision_candidates",
		Help: "Providers considered by the last decision",
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if s.payments, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkagent_payments_total",
		Help: "Payments attempted, by outcome",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if s.payLatency, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "parkagent_payment_latency_seconds",
		Help:    "Time taken by the payment gateway",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDecision implements coremetrics.MetricsSink.
func (s *PromSink) RecordDecision(ev coremetrics.DecisionEvent) error {
	s.decisions.WithLabelValues(ev.Mode, ev.Outcome(), ev.Reason).Inc()
	s.duration.WithLabelValues(ev.Mode).Observe(ev.Duration.Seconds())
	s.candidates.WithLabelValues(ev.Mode).Set(float64(ev.Candidates))
	if ev.OK {
		s.scores.WithLabelValues(ev.Mode).Observe(ev.Score)
	}
	return nil
}

// RecordPayment implements coremetrics.PaymentRecorder.
func (s *PromSink) RecordPayment(ev coremetrics.PaymentEvent) error {
	outcome := "ok"
	if ev.Error != "" {
		outcome = "failed"
	}
	s.payments.WithLabelValues(outcome).Inc()
	s.payLatency.Observe(ev.Latency.Seconds())
	return nil
}
