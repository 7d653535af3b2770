package decision

import "github.com/kilianp07/parkagent/core/model"

// Engine runs the decision pipelines with an immutable policy.
type Engine struct {
	cfg    Config
	trust  TrustPolicy
	travel TravelTimer
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithTrustPolicy overrides the trust policy derived from the config.
func WithTrustPolicy(p TrustPolicy) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.trust = p
		}
	}
}

// WithTravelTimer overrides the travel-time lookup derived from the config.
func WithTravelTimer(t TravelTimer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.travel = t
		}
	}
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config, opts ...EngineOption) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Routes = append([]Route(nil), cfg.Routes...)
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.trust == nil {
		if cfg.TrustExpression != "" {
			p, err := NewCELPolicy(cfg.TrustExpression)
			if err != nil {
				return nil, err
			}
			e.trust = p
		} else {
			e.trust = CertifiedPolicy{}
		}
	}
	if e.travel == nil {
		if len(cfg.Routes) > 0 {
			e.travel = NewTravelTable(cfg.Routes)
		} else {
			e.travel = DefaultTravelTable()
		}
	}
	return e, nil
}

// Config returns a copy of the engine policy.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.Routes = append([]Route(nil), e.cfg.Routes...)
	return cfg
}

// StaticOptions returns the configured limits for the given urgency.
func (e *Engine) StaticOptions(u model.Urgency) StaticOptions {
	return StaticOptions{
		Urgency:           u,
		MaxOverMarketPct:  e.cfg.OverMarketPct,
		MaxSingleTxBudget: e.cfg.MaxSingleTxBudget,
	}
}

// eligible applies the trust policy and records the whitelist thought.
func (e *Engine) eligible(providers []model.Provider, th *Thoughts) []model.Provider {
	trusted := keep(providers, e.trust.Trusted)
	th.add("Checked whitelist: %d/%d providers are certified", len(trusted), len(providers))
	return trusted
}
