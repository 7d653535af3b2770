package decision

import (
	"fmt"
	"math"

	"github.com/kilianp07/parkagent/core/model"
)

// StaticWeights weight queue time and distance against the hourly price.
type StaticWeights struct {
	Queue    float64 `json:"queue"`
	Distance float64 `json:"distance"`
}

// ScenarioWeights balance normalised ETA against normalised cost.
type ScenarioWeights struct {
	Time float64 `json:"time"`
	Cost float64 `json:"cost"`
}

// Defaults are substituted for scenario and provider fields left unset.
type Defaults struct {
	ParkingHours        float64 `json:"parking_hours"`
	RequestedKWh        float64 `json:"requested_kwh"`
	ChargingPricePerKWh float64 `json:"charging_price_per_kwh"`
}

// Config holds the policy used by the engine.
type Config struct {
	// OverMarketPct is the fraction above the certified mean price a
	// provider may charge, e.g. 0.2 for 20%.
	OverMarketPct float64 `json:"over_market_pct"`
	// MaxSingleTxBudget caps the hourly price paid in a single transaction.
	MaxSingleTxBudget float64 `json:"max_single_tx_budget"`

	StaticUrgent  StaticWeights `json:"static_urgent"`
	StaticDefault StaticWeights `json:"static_default"`

	ScenarioHigh   ScenarioWeights `json:"scenario_high"`
	ScenarioNormal ScenarioWeights `json:"scenario_normal"`
	ScenarioLow    ScenarioWeights `json:"scenario_low"`

	Defaults Defaults `json:"defaults"`

	// TrustExpression is an optional CEL expression over `provider`. When
	// empty the certification flag decides.
	TrustExpression string `json:"trust_expression"`
	// Routes overrides the default travel-time table.
	Routes []Route `json:"routes"`
}

// DefaultConfig returns the policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		OverMarketPct:     0.20,
		MaxSingleTxBudget: 2,
		StaticUrgent:      StaticWeights{Queue: 0.08, Distance: 0.25},
		StaticDefault:     StaticWeights{Queue: 0.03, Distance: 0.15},
		ScenarioHigh:      ScenarioWeights{Time: 0.7, Cost: 0.3},
		ScenarioNormal:    ScenarioWeights{Time: 0.5, Cost: 0.5},
		ScenarioLow:       ScenarioWeights{Time: 0.3, Cost: 0.7},
		Defaults: Defaults{
			ParkingHours:        1,
			RequestedKWh:        10,
			ChargingPricePerKWh: 0.6,
		},
	}
}

// SetDefaults fills the scenario defaults when they are not positive.
func (c *Config) SetDefaults() {
	def := DefaultConfig().Defaults
	if c.Defaults.ParkingHours <= 0 {
		c.Defaults.ParkingHours = def.ParkingHours
	}
	if c.Defaults.RequestedKWh <= 0 {
		c.Defaults.RequestedKWh = def.RequestedKWh
	}
	if c.Defaults.ChargingPricePerKWh <= 0 {
		c.Defaults.ChargingPricePerKWh = def.ChargingPricePerKWh
	}
}

// Validate checks the policy is coherent.
func (c Config) Validate() error {
	if c.OverMarketPct < 0 {
		return fmt.Errorf("over_market_pct must not be negative")
	}
	if c.MaxSingleTxBudget <= 0 {
		return fmt.Errorf("max_single_tx_budget must be positive")
	}
	for name, w := range map[string]StaticWeights{"static_urgent": c.StaticUrgent, "static_default": c.StaticDefault} {
		if w.Queue < 0 || w.Distance < 0 {
			return fmt.Errorf("%s weights must not be negative", name)
		}
	}
	for name, w := range map[string]ScenarioWeights{
		"scenario_high":   c.ScenarioHigh,
		"scenario_normal": c.ScenarioNormal,
		"scenario_low":    c.ScenarioLow,
	} {
		if w.Time < 0 || w.Cost < 0 {
			return fmt.Errorf("%s weights must not be negative", name)
		}
		if math.Abs(w.Time+w.Cost-1) > 1e-9 {
			return fmt.Errorf("%s weights must sum to 1, got %v", name, w.Time+w.Cost)
		}
	}
	for _, r := range c.Routes {
		if r.From == "" || r.To == "" {
			return fmt.Errorf("route endpoints are required")
		}
		if r.Minutes < 0 {
			return fmt.Errorf("route %s-%s: negative travel time", r.From, r.To)
		}
	}
	return nil
}

func (c Config) staticWeights(u model.Urgency) StaticWeights {
	if u == model.UrgencyHigh {
		return c.StaticUrgent
	}
	return c.StaticDefault
}

func (c Config) scenarioWeights(u model.Urgency) ScenarioWeights {
	switch u {
	case model.UrgencyHigh:
		return c.ScenarioHigh
	case model.UrgencyLow:
		return c.ScenarioLow
	default:
		return c.ScenarioNormal
	}
}
