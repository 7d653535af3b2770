// Package payment defines the transfer capability used once a provider has
// been selected. The engine never pays; the service triggers a payment after
// a successful decision.
package payment

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest is returned for requests without a recipient or with a
// non-positive amount.
var ErrInvalidRequest = errors.New("invalid payment request")

// Request asks for Amount to be transferred to To.
type Request struct {
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference,omitempty"` // decision id
}

// Validate checks the request can be submitted.
func (r Request) Validate() error {
	if r.To == "" {
		return errors.Join(ErrInvalidRequest, errors.New("recipient address is required"))
	}
	if r.Amount <= 0 {
		return errors.Join(ErrInvalidRequest, errors.New("amount must be positive"))
	}
	return nil
}

// Receipt is the reference returned by the payment rail.
type Receipt struct {
	TxHash string    `json:"tx_hash"`
	To     string    `json:"to"`
	Amount float64   `json:"amount"`
	Time   time.Time `json:"time"`
}

// Payer transfers funds.
type Payer interface {
	Pay(ctx context.Context, req Request) (Receipt, error)
}
