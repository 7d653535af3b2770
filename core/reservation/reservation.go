// Package reservation describes what an agent service offers to its
// callers: running a decision, and reserving the winner by paying for it.
package reservation

import (
	"context"
	"errors"

	"github.com/kilianp07/parkagent/core/audit"
	"github.com/kilianp07/parkagent/core/decision"
	"github.com/kilianp07/parkagent/core/model"
	"github.com/kilianp07/parkagent/core/payment"
)

// ErrOverBudget is returned when the amount to pay exceeds the single
// transaction budget.
var ErrOverBudget = errors.New("payment amount exceeds single-tx budget")

// Outcome is a decision together with the id it was audited under.
type Outcome struct {
	DecisionID string          `json:"decision_id"`
	Result     decision.Result `json:"result"`
}

// Reservation is the result of Reserve. Receipt is nil when the decision
// failed and nothing was paid.
type Reservation struct {
	DecisionID  string           `json:"decision_id"`
	Result      decision.Result  `json:"agent"`
	Receipt     *payment.Receipt `json:"payment,omitempty"`
	ExplorerURL string           `json:"explorer,omitempty"`
}

// Paid reports whether a payment was made.
func (r Reservation) Paid() bool { return r.Receipt != nil }

// Agent is the service behind the HTTP API and the CLI.
type Agent interface {
	// Reserve runs the static decision over the catalog and pays the winner.
	Reserve(ctx context.Context, urgency model.Urgency) (Reservation, error)
	// Decide runs the static decision. Nil providers means the catalog.
	Decide(ctx context.Context, providers []model.Provider, opts decision.StaticOptions) (Outcome, error)
	// Plan runs the scenario decision. Nil providers means the catalog.
	Plan(ctx context.Context, s model.Scenario, providers []model.Provider) (Outcome, error)
	// Decisions queries the audit trail.
	Decisions(ctx context.Context, q audit.Query) ([]audit.Record, error)
	// StaticOptions returns the configured limits for urgency.
	StaticOptions(urgency model.Urgency) decision.StaticOptions
}
