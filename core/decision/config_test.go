package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/parkagent/core/model"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative over market", func(c *Config) { c.OverMarketPct = -0.1 }},
		{"zero budget", func(c *Config) { c.MaxSingleTxBudget = 0 }},
		{"negative static weight", func(c *Config) { c.StaticDefault.Queue = -1 }},
		{"scenario weights not summing to one", func(c *Config) { c.ScenarioHigh = ScenarioWeights{Time: 0.8, Cost: 0.3} }},
		{"negative scenario weight", func(c *Config) { c.ScenarioLow = ScenarioWeights{Time: -0.5, Cost: 1.5} }},
		{"route without endpoint", func(c *Config) { c.Routes = []Route{{From: "A", Minutes: 3}} }},
		{"negative route", func(c *Config) { c.Routes = []Route{{From: "A", To: "B", Minutes: -3}} }},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(&cfg)
		assert.Error(t, cfg.Validate(), c.name)
	}
}

func TestConfigSetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	assert.Equal(t, DefaultConfig().Defaults, cfg.Defaults)

	cfg.Defaults.ParkingHours = 4
	cfg.SetDefaults()
	assert.Equal(t, 4.0, cfg.Defaults.ParkingHours)
}

func TestNewEngine_RoutesFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Routes = []Route{{From: "home", To: "office", Minutes: 4}}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	res := e.DecideWithScenario(model.Scenario{Current: "home", Destination: "office", DeadlineMin: model.Float(5)},
		[]model.Provider{{ID: "p1", Certified: true, Near: "office", PricePerHour: 1}})
	require.True(t, res.OK)
	assert.Equal(t, 4.0, res.Decision.EtaMin)

	// the engine keeps its own copy of the routes
	cfg.Routes[0].Minutes = 40
	assert.Equal(t, 4.0, e.Config().Routes[0].Minutes)
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSingleTxBudget = -1
	_, err := NewEngine(cfg)
	assert.Error(t, err)
}

func TestEngineStaticOptions(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StaticOptions{Urgency: model.UrgencyHigh, MaxOverMarketPct: 0.2, MaxSingleTxBudget: 2}, e.StaticOptions(model.UrgencyHigh))
}
