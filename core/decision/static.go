package decision

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/parkagent/core/model"
)

// StaticOptions parameterise the static pipeline.
type StaticOptions struct {
	Urgency           model.Urgency `json:"urgency"`
	MaxOverMarketPct  float64       `json:"max_over_market_pct"`
	MaxSingleTxBudget float64       `json:"max_single_tx_budget"`
}

type staticCandidate struct {
	p     model.Provider
	score float64
}

// Decide runs the static pipeline: whitelist, market-price cap, budget cap,
// then picks the lowest price + queue + distance score.
func (e *Engine) Decide(providers []model.Provider, opts StaticOptions) Result {
	var th Thoughts

	certified := e.eligible(providers, &th)
	if len(certified) == 0 {
		return reject(th, ReasonNoCertified)
	}

	prices := make([]float64, len(certified))
	for i, p := range certified {
		prices[i] = p.PricePerHour
	}
	avg := stat.Mean(prices, nil)
	maxAllowed := avg * (1 + opts.MaxOverMarketPct)
	th.add("Market avg price/hr=%.2f, maxAllowed=%.2f (avg + %s%%)", avg, maxAllowed, formatNumber(opts.MaxOverMarketPct*100))

	priceOK := keep(certified, func(p model.Provider) bool { return p.PricePerHour <= maxAllowed })
	th.add("Price filter: %d/%d remain", len(priceOK), len(certified))
	if len(priceOK) == 0 {
		return reject(th, ReasonOverPrice)
	}

	budgetOK := keep(priceOK, func(p model.Provider) bool { return p.PricePerHour <= opts.MaxSingleTxBudget })
	th.add("Budget filter (<= %s): %d/%d remain", formatNumber(opts.MaxSingleTxBudget), len(budgetOK), len(priceOK))
	if len(budgetOK) == 0 {
		return reject(th, ReasonOverBudget)
	}

	w := e.cfg.staticWeights(model.ParseUrgency(string(opts.Urgency)))
	scored := make([]staticCandidate, len(budgetOK))
	for i, p := range budgetOK {
		scored[i] = staticCandidate{p: p, score: p.PricePerHour + w.Queue*p.QueueMin + w.Distance*p.DistanceKm}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score < scored[j].score })

	best := scored[0]
	th.add("Selected %s: score=%.3f (price + queue + distance)", best.p.ID, best.score)
	return Result{
		OK:       true,
		Thoughts: th,
		Feasible: len(budgetOK),
		Decision: &Decision{
			ID:            best.p.ID,
			Name:          best.p.Name,
			Address:       best.p.Address,
			EstimatedCost: best.p.PricePerHour,
			DistanceKm:    best.p.DistanceKm,
			QueueMin:      best.p.QueueMin,
			Near:          best.p.Near,
			Charging:      best.p.Charging,
			Score:         round4(best.score),
		},
	}
}
