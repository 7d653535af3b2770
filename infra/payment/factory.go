package payment

import (
	"github.com/kilianp07/parkagent/core/factory"
	corepayment "github.com/kilianp07/parkagent/core/payment"
)

// init registers the built-in payers.
func init() {
	_ = corepayment.RegisterPayer("dryrun", func(map[string]any) (corepayment.Payer, error) {
		return NewDryRunPayer(), nil
	})

	_ = corepayment.RegisterPayer("gateway", func(conf map[string]any) (corepayment.Payer, error) {
		var c GatewayConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewGatewayPayer(c)
	})
}
