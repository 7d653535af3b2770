package decision

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/kilianp07/parkagent/core/model"
)

// TrustPolicy decides whether a provider may be considered at all.
type TrustPolicy interface {
	Trusted(p model.Provider) bool
}

// CertifiedPolicy trusts providers carrying the certification flag.
type CertifiedPolicy struct{}

// Trusted implements TrustPolicy.
func (CertifiedPolicy) Trusted(p model.Provider) bool { return p.Certified }

// celCostLimit bounds the evaluation cost of a trust expression.
const celCostLimit = 100000

// CELPolicy evaluates a CEL expression against each provider. The provider
// is exposed as the map variable `provider`. Evaluation errors and
// non-boolean results are treated as untrusted.
type CELPolicy struct {
	expr string
	prg  cel.Program
}

// NewCELPolicy compiles expr.
func NewCELPolicy(expr string) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("provider", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile trust expression: %w", issues.Err())
	}
	prg, err := env.Program(ast, cel.CostLimit(celCostLimit))
	if err != nil {
		return nil, fmt.Errorf("trust program: %w", err)
	}
	return &CELPolicy{expr: expr, prg: prg}, nil
}

// Expression returns the source expression.
func (c *CELPolicy) Expression() string { return c.expr }

// Trusted implements TrustPolicy.
func (c *CELPolicy) Trusted(p model.Provider) bool {
	out, _, err := c.prg.Eval(map[string]any{"provider": providerFacts(p)})
	if err != nil {
		return false
	}
	ok, isBool := out.Value().(bool)
	return isBool && ok
}

// providerFacts omits charging_price_per_kwh when the provider did not
// publish one, so expressions can test it with has().
func providerFacts(p model.Provider) map[string]any {
	facts := map[string]any{
		"id":             p.ID,
		"name":           p.Name,
		"address":        p.Address,
		"certified":      p.Certified,
		"price_per_hour": p.PricePerHour,
		"queue_min":      p.QueueMin,
		"distance_km":    p.DistanceKm,
		"near":           p.Near,
		"charging":       p.Charging,
	}
	if p.ChargingPricePerKWh != nil {
		facts["charging_price_per_kwh"] = *p.ChargingPricePerKWh
	}
	return facts
}
