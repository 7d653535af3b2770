// Package catalog loads the provider catalog from a YAML or JSON file and
// keeps it in sync with the file on disk.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/parkagent/core/model"
)

// Config locates the catalog file.
type Config struct {
	// Path is a YAML or JSON file holding a list of providers.
	Path string `json:"path"`
	// Watch reloads the catalog when the file changes.
	Watch bool `json:"watch"`
	// Debounce delays a reload until writes settle.
	Debounce time.Duration `json:"debounce"`
}

// SetDefaults applies a 200ms debounce.
func (c *Config) SetDefaults() {
	if c.Debounce <= 0 {
		c.Debounce = 200 * time.Millisecond
	}
}

// Validate checks that a path is set.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("catalog path is required")
	}
	return nil
}

// entry is the on-disk provider layout shared with the agent front-end.
type entry struct {
	ID                  string   `yaml:"id"`
	Name                string   `yaml:"name"`
	ProviderAddress     string   `yaml:"providerAddress"`
	KiteCertified       bool     `yaml:"kiteCertified"`
	PricePerHour        float64  `yaml:"pricePerHour"`
	QueueMin            float64  `yaml:"queueMin"`
	DistanceKm          float64  `yaml:"distanceKm"`
	Near                string   `yaml:"near"`
	HasCharger          bool     `yaml:"hasCharger"`
	ChargingPricePerKwh *float64 `yaml:"chargingPricePerKwh"`
}

func (e entry) provider() model.Provider {
	return model.Provider{
		ID:                  e.ID,
		Name:                e.Name,
		Address:             e.ProviderAddress,
		Certified:           e.KiteCertified,
		PricePerHour:        e.PricePerHour,
		QueueMin:            e.QueueMin,
		DistanceKm:          e.DistanceKm,
		Near:                e.Near,
		Charging:            e.HasCharger,
		ChargingPricePerKWh: e.ChargingPricePerKwh,
	}
}

// Parse decodes a provider list. JSON input is accepted since it is valid
// YAML. Every provider is validated and IDs must be unique.
func Parse(data []byte) ([]model.Provider, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	providers := make([]model.Provider, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	var errs []error
	for i, e := range entries {
		p := e.provider()
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if _, dup := seen[p.ID]; dup {
			errs = append(errs, fmt.Errorf("entry %d: duplicate provider id %s", i, p.ID))
			continue
		}
		seen[p.ID] = struct{}{}
		providers = append(providers, p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return providers, nil
}

// Load reads and parses the catalog at path.
func Load(path string) ([]model.Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// FileRepository reads the catalog file on every call.
type FileRepository struct {
	path string
}

// NewFileRepository returns a repository backed by path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Providers implements catalog.Repository.
func (r *FileRepository) Providers(ctx context.Context) ([]model.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(r.path)
}
