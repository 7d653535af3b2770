package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/parkagent/core/factory"
)

// PaymentConfig controls the transfer triggered after a reservation.
type PaymentConfig struct {
	// Payer selects the payment rail, e.g. {type: dryrun} or
	// {type: gateway, conf: {url: ...}}.
	Payer factory.ModuleConfig `json:"payer"`
	// FixedAmount is paid for every reservation. Zero pays the estimated cost.
	FixedAmount float64 `json:"fixed_amount"`
	// ExplorerURL is prefixed to the transaction hash in responses.
	ExplorerURL string `json:"explorer_url"`
	// Timeout bounds a single payment.
	Timeout time.Duration `json:"timeout"`
}

// DefaultPaymentConfig pays a small fixed amount through the dry-run payer.
func DefaultPaymentConfig() PaymentConfig {
	return PaymentConfig{
		Payer:       factory.ModuleConfig{Type: "dryrun"},
		FixedAmount: 0.0001,
		ExplorerURL: "https://testnet.kitescan.ai/tx/",
	}
}

// SetDefaults fills in the payer type and timeout.
func (c *PaymentConfig) SetDefaults() {
	if c.Payer.Type == "" {
		c.Payer.Type = "dryrun"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}

// Validate checks the amount.
func (c PaymentConfig) Validate() error {
	if c.FixedAmount < 0 {
		return fmt.Errorf("fixed_amount must not be negative")
	}
	return nil
}
