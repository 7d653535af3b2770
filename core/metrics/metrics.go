package metrics

import "time"

// DecisionEvent describes one run of a decision pipeline.
type DecisionEvent struct {
	DecisionID    string        `json:"decision_id"`
	Mode          string        `json:"mode"`
	Urgency       string        `json:"urgency"`
	OK            bool          `json:"ok"`
	Reason        string        `json:"reason,omitempty"`
	ProviderID    string        `json:"provider_id,omitempty"`
	Score         float64       `json:"score,omitempty"`
	EstimatedCost float64       `json:"estimated_cost,omitempty"`
	Candidates    int           `json:"candidates"`
	Feasible      int           `json:"feasible"`
	Duration      time.Duration `json:"duration"`
	Time          time.Time     `json:"time"`
}

// Outcome returns "ok" or "rejected".
func (e DecisionEvent) Outcome() string {
	if e.OK {
		return "ok"
	}
	return "rejected"
}

// MetricsSink records decision events.
type MetricsSink interface {
	RecordDecision(ev DecisionEvent) error
}

// PaymentEvent describes a payment triggered for a decision.
type PaymentEvent struct {
	DecisionID string        `json:"decision_id"`
	ProviderID string        `json:"provider_id"`
	To         string        `json:"to"`
	Amount     float64       `json:"amount"`
	TxHash     string        `json:"tx_hash,omitempty"`
	Error      string        `json:"error,omitempty"`
	Latency    time.Duration `json:"latency"`
	Time       time.Time     `json:"time"`
}

// PaymentRecorder is implemented by sinks that also track payments.
type PaymentRecorder interface {
	RecordPayment(ev PaymentEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDecision(DecisionEvent) error { return nil }
func (NopSink) RecordPayment(PaymentEvent) error   { return nil }

// Event is a value published on the metrics event stream. It is either a
// DecisionEvent or a PaymentEvent.
type Event interface {
	At() time.Time
}

// At returns when the decision was made.
func (e DecisionEvent) At() time.Time { return e.Time }

// At returns when the payment was attempted.
func (e PaymentEvent) At() time.Time { return e.Time }
