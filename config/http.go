package config

import (
	"fmt"
	"time"
)

// HTTPConfig configures the agent API server.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// AuthToken protects the audit endpoint when set.
	AuthToken string `json:"auth_token"`
	// RateLimit is the sustained reservations per second allowed per client.
	// A negative value disables limiting.
	RateLimit float64 `json:"rate_limit"`
	// Burst is the number of reservations a client may issue at once.
	Burst          int           `json:"burst"`
	MetricsEnabled *bool         `json:"metrics_enabled"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
}

// SetDefaults listens on :3001 with one reservation per second and a burst
// of five.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":3001"
	}
	if c.RateLimit == 0 {
		c.RateLimit = 1
	}
	if c.Burst == 0 {
		c.Burst = 5
	}
	if c.MetricsEnabled == nil {
		enabled := true
		c.MetricsEnabled = &enabled
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
}

// Validate checks the listen address and limiter settings.
func (c HTTPConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Burst < 0 {
		return fmt.Errorf("burst must not be negative")
	}
	return nil
}

// Metrics reports whether /metrics is served.
func (c HTTPConfig) Metrics() bool {
	return c.MetricsEnabled == nil || *c.MetricsEnabled
}
