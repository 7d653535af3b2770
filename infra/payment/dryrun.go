// Package payment provides Payer implementations: a dry-run payer for demos
// and tests, and an HTTP gateway payer for a real settlement service.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	corepayment "github.com/kilianp07/parkagent/core/payment"
)

// DryRunPayer accepts every valid request without moving funds. The
// returned hash is derived from a random UUID.
type DryRunPayer struct {
	now func() time.Time
}

// NewDryRunPayer returns a DryRunPayer.
func NewDryRunPayer() *DryRunPayer { return &DryRunPayer{now: time.Now} }

// Pay implements corepayment.Payer.
func (p *DryRunPayer) Pay(ctx context.Context, req corepayment.Request) (corepayment.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return corepayment.Receipt{}, err
	}
	if err := req.Validate(); err != nil {
		return corepayment.Receipt{}, err
	}
	return corepayment.Receipt{
		TxHash: "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		To:     req.To,
		Amount: req.Amount,
		Time:   p.now(),
	}, nil
}
