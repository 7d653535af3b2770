package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/parkagent/core/audit"
	"github.com/kilianp07/parkagent/core/decision"
	"github.com/kilianp07/parkagent/core/metrics"
	"github.com/kilianp07/parkagent/infra/catalog"
	"github.com/kilianp07/parkagent/infra/logger"
	"github.com/kilianp07/parkagent/infra/monitoring"
	"github.com/kilianp07/parkagent/infra/mqtt"
)

// EnvPrefix prefixes environment overrides, e.g. PARK_HTTP__ADDR.
const EnvPrefix = "PARK_"

type Config struct {
	Engine  decision.Config   `json:"engine"`
	Catalog catalog.Config    `json:"catalog"`
	Payment PaymentConfig     `json:"payment"`
	Audit   audit.Config      `json:"audit"`
	Metrics metrics.Config    `json:"metrics"`
	MQTT    mqtt.Config       `json:"mqtt"`
	HTTP    HTTPConfig        `json:"http"`
	Logging logger.Config     `json:"logging"`
	Sentry  monitoring.Config `json:"sentry"`
}

// Default returns the configuration used for keys absent from the file and
// the environment.
func Default() Config {
	cfg := Config{
		Engine:  decision.DefaultConfig(),
		Catalog: catalog.Config{Path: "data/parking.yaml"},
		Payment: DefaultPaymentConfig(),
	}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	c.Engine.SetDefaults()
	c.Catalog.SetDefaults()
	c.Payment.SetDefaults()
	c.Audit.SetDefaults()
	c.MQTT.SetDefaults()
	c.HTTP.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and reports all failures.
func (c Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	add("engine", c.Engine.Validate())
	add("catalog", c.Catalog.Validate())
	add("payment", c.Payment.Validate())
	add("audit", c.Audit.Validate())
	add("mqtt", c.MQTT.Validate())
	add("http", c.HTTP.Validate())
	add("logging", c.Logging.Validate())
	add("sentry", c.Sentry.Validate())
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			add("metrics", fmt.Errorf("sink %d has no type", i))
		}
	}
	return errors.Join(errs...)
}

// Load reads the YAML or JSON file at path, applies PARK_ environment
// overrides and validates the result. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

// envKey maps PARK_HTTP__RATE_LIMIT to http.rate_limit.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) expandPaths() {
	c.Catalog.Path = os.ExpandEnv(c.Catalog.Path)
	c.Audit.Path = os.ExpandEnv(c.Audit.Path)
}
