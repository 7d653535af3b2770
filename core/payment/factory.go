package payment

import "github.com/kilianp07/parkagent/core/factory"

var payerRegistry = factory.NewRegistry[Payer]()

// RegisterPayer adds a payer factory under name.
func RegisterPayer(name string, f factory.Factory[Payer]) error {
	return payerRegistry.Register(name, f)
}

// NewPayer builds the payer described by cfg.
func NewPayer(cfg factory.ModuleConfig) (Payer, error) {
	return payerRegistry.Create(cfg)
}

// PayerTypes lists the registered payer types.
func PayerTypes() []string { return payerRegistry.Names() }
