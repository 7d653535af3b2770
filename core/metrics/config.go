package metrics

import "github.com/kilianp07/parkagent/core/factory"

// Config lists the sinks to instantiate.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
