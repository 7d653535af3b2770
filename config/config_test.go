package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/parkagent/core/decision"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `engine:
  over_market_pct: 0.3
  max_single_tx_budget: 5
  trust_expression: "provider.certified && provider.price_per_hour < 3"
  routes:
    - {from: home, to: office, minutes: 12}
catalog:
  path: providers.yaml
  watch: true
  debounce: 1s
payment:
  payer:
    type: gateway
    conf:
      url: http://localhost:8080/pay
  fixed_amount: 0
audit:
  backend: sqlite
  path: decisions.db
metrics:
  sinks:
    - type: prometheus
mqtt:
  enabled: true
  broker: tcp://localhost:1883
  topic: lot
http:
  addr: ":8080"
  auth_token: secret
  metrics_enabled: false
logging:
  level: debug
sentry:
  dsn: ""
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.Engine.OverMarketPct)
	assert.Equal(t, 5.0, cfg.Engine.MaxSingleTxBudget)
	assert.Equal(t, decision.DefaultConfig().StaticUrgent, cfg.Engine.StaticUrgent)
	assert.Equal(t, []decision.Route{{From: "home", To: "office", Minutes: 12}}, cfg.Engine.Routes)
	assert.NotEmpty(t, cfg.Engine.TrustExpression)

	assert.Equal(t, "providers.yaml", cfg.Catalog.Path)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, time.Second, cfg.Catalog.Debounce)

	assert.Equal(t, "gateway", cfg.Payment.Payer.Type)
	assert.Equal(t, "http://localhost:8080/pay", cfg.Payment.Payer.Conf["url"])
	assert.Zero(t, cfg.Payment.FixedAmount)
	assert.Equal(t, "https://testnet.kitescan.ai/tx/", cfg.Payment.ExplorerURL)

	assert.Equal(t, "sqlite", cfg.Audit.Backend)
	require.Len(t, cfg.Metrics.Sinks, 1)
	assert.Equal(t, "prometheus", cfg.Metrics.Sinks[0].Type)
	assert.Equal(t, "lot", cfg.MQTT.Topic)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.False(t, cfg.HTTP.Metrics())
	assert.Equal(t, 5, cfg.HTTP.Burst)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"http": {"addr": ":9000"}, "engine": {"max_single_tx_budget": 3}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 3.0, cfg.Engine.MaxSingleTxBudget)
	assert.Equal(t, 0.2, cfg.Engine.OverMarketPct)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, decision.DefaultConfig().OverMarketPct, cfg.Engine.OverMarketPct)
	assert.Equal(t, "dryrun", cfg.Payment.Payer.Type)
	assert.Equal(t, 0.0001, cfg.Payment.FixedAmount)
	assert.Equal(t, "jsonl", cfg.Audit.Backend)
	assert.Equal(t, ":3001", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.Metrics())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PARK_HTTP__ADDR", ":7000")
	t.Setenv("PARK_ENGINE__MAX_SINGLE_TX_BUDGET", "4.5")
	t.Setenv("PARK_PAYMENT__TIMEOUT", "3s")
	cfg, err := Load(writeConfig(t, "config.yaml", "http:\n  addr: \":8000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, 4.5, cfg.Engine.MaxSingleTxBudget)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(writeConfig(t, "bad.yaml", "engine:\n  max_single_tx_budget: -1\n"))
	assert.ErrorContains(t, err, "engine")

	_, err = Load(writeConfig(t, "bad.yaml", "audit:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, "audit")

	_, err = Load(writeConfig(t, "bad.yaml", "mqtt:\n  enabled: true\n"))
	assert.ErrorContains(t, err, "mqtt")

	_, err = Load(writeConfig(t, "bad.yaml", "metrics:\n  sinks:\n    - conf: {}\n"))
	assert.ErrorContains(t, err, "metrics")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "http.rate_limit", envKey("PARK_HTTP__RATE_LIMIT"))
	assert.Equal(t, "engine.defaults.parking_hours", envKey("PARK_ENGINE__DEFAULTS__PARKING_HOURS"))
}
