package metrics

import "errors"

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink combines sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDecision forwards ev to every sink. All sinks are attempted; the
// returned error joins the individual failures.
func (m *MultiSink) RecordDecision(ev DecisionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordDecision(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordPayment forwards ev to the sinks that track payments.
func (m *MultiSink) RecordPayment(ev PaymentEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(PaymentRecorder); ok {
			if err := rec.RecordPayment(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
