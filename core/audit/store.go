// Package audit persists every decision together with its thought trail so
// that an operator can later explain why a provider was chosen or why a
// request was rejected.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/parkagent/core/decision"
	"github.com/kilianp07/parkagent/core/model"
)

// Record captures one decision and what happened after it.
type Record struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Mode      decision.Mode   `json:"mode"`
	Urgency   model.Urgency   `json:"urgency"`
	Scenario  *model.Scenario `json:"scenario,omitempty"`
	Providers int             `json:"providers"`
	Result    decision.Result `json:"result"`
	TxHash    string          `json:"tx_hash,omitempty"`
}

// ProviderID returns the selected provider, or "" for a rejection.
func (r Record) ProviderID() string {
	if r.Result.Decision == nil {
		return ""
	}
	return r.Result.Decision.ID
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start      time.Time
	End        time.Time
	ProviderID string // selected or listed as a candidate
	Mode       decision.Mode
}

// Match reports whether r satisfies q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Mode != "" && r.Mode != q.Mode {
		return false
	}
	if q.ProviderID != "" && !mentions(r, q.ProviderID) {
		return false
	}
	return true
}

func mentions(r Record, id string) bool {
	if r.ProviderID() == id {
		return true
	}
	for _, o := range r.Result.CandidatesForLLM {
		if o.ID == id {
			return true
		}
	}
	for _, o := range r.Result.Candidates {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Store persists records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and configures the store backend.
type Config struct {
	// Backend is "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB enables rotation of the JSONL file when positive.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files kept.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies the JSONL backend at decisions.jsonl.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "decisions.jsonl"
	}
}

// Validate checks the backend and path.
func (c Config) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown audit backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("audit path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("audit rotation settings must not be negative")
	}
	return nil
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		if cfg.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return NewJSONLStore(cfg.Path)
	}
}
