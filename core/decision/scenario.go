package decision

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/parkagent/core/model"
)

// Estimator returns the estimator configured for this engine.
func (e *Engine) Estimator() Estimator {
	return Estimator{Travel: e.travel, Defaults: e.cfg.Defaults}
}

// DecideWithScenario runs the scenario pipeline: whitelist, charger
// capability, ETA/cost estimation, deadline feasibility, then picks the
// lowest weighted time/cost score.
func (e *Engine) DecideWithScenario(s model.Scenario, providers []model.Provider) Result {
	var th Thoughts

	pool := e.eligible(providers, &th)
	if len(pool) == 0 {
		return reject(th, ReasonNoCertified)
	}

	if s.NeedCharging {
		capable := keep(pool, func(p model.Provider) bool { return p.Charging })
		th.add("Charging filter: %d/%d spots support charging", len(capable), len(pool))
		if len(capable) == 0 {
			return reject(th, ReasonNoCharger)
		}
		pool = capable
	}

	enriched := e.Estimator().EstimateAll(s, pool)
	th.add("Estimated ETA and cost for %d candidates", len(enriched))

	feasible := enriched
	if s.HasDeadline() {
		deadline := *s.DeadlineMin
		feasible = keep(enriched, func(c Enriched) bool { return c.EtaMin <= deadline })
		th.add("Deadline filter (<= %s min): %d/%d feasible", formatNumber(deadline), len(feasible), len(enriched))
	} else {
		th.add("Deadline filter (none): %d/%d feasible", len(feasible), len(enriched))
	}
	if len(feasible) == 0 {
		res := reject(th, ReasonMissDeadline)
		res.Candidates = options(enriched)
		return res
	}

	urgency := model.ParseUrgency(string(s.Urgency))
	w := e.cfg.scenarioWeights(urgency)
	th.add("Weights: time=%.2f, cost=%.2f (urgency=%s)", w.Time, w.Cost, urgency)

	ranked := rankScenario(feasible, w)
	best := ranked[0]
	th.add("Selected %s: score=%.4f, eta=%.0fmin, cost=%.2f", best.ID, best.Score, best.EtaMin, best.TotalCost)

	return Result{
		OK:       true,
		Thoughts: th,
		Feasible: len(feasible),
		Decision: &Decision{
			ID:            best.ID,
			Name:          best.Name,
			Address:       best.Address,
			EstimatedCost: best.TotalCost,
			DistanceKm:    best.DistanceKm,
			QueueMin:      best.QueueMin,
			Near:          best.Near,
			DriveMin:      best.DriveMin,
			EtaMin:        best.EtaMin,
			TotalCost:     best.TotalCost,
			Charging:      best.Charging,
			Score:         best.Score,
		},
		CandidatesForLLM: options(ranked),
	}
}

// rankScenario scores a non-empty feasible set and returns a new slice sorted
// by ascending score. Ties keep their input order.
func rankScenario(feasible []Enriched, w ScenarioWeights) []Enriched {
	etas := make([]float64, len(feasible))
	costs := make([]float64, len(feasible))
	for i, c := range feasible {
		etas[i] = c.EtaMin
		costs[i] = c.TotalCost
	}
	maxEta := nonZero(floats.Max(etas))
	maxCost := nonZero(floats.Max(costs))

	ranked := make([]Enriched, len(feasible))
	for i, c := range feasible {
		c.Score = round4(w.Time*(c.EtaMin/maxEta) + w.Cost*(c.TotalCost/maxCost))
		ranked[i] = c
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score < ranked[j].Score })
	return ranked
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
