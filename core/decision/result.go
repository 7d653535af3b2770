package decision

import "fmt"

// Rejection reasons reported in Result.Reason.
const (
	ReasonNoCertified  = "No certified providers available"
	ReasonOverPrice    = "All providers exceed price limit"
	ReasonOverBudget   = "All providers exceed single-tx budget"
	ReasonNoCharger    = "No charger-capable spot available"
	ReasonMissDeadline = "No feasible option meets the deadline"
)

// Mode identifies which pipeline produced a result.
type Mode string

const (
	ModeStatic   Mode = "static"
	ModeScenario Mode = "scenario"
)

// Decision is the public view of the selected provider.
type Decision struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	EstimatedCost float64 `json:"estimated_cost"`
	DistanceKm    float64 `json:"distance_km"`
	QueueMin      float64 `json:"queue_min"`
	Near          string  `json:"near,omitempty"`
	DriveMin      float64 `json:"drive_min,omitempty"`
	EtaMin        float64 `json:"eta_min,omitempty"`
	TotalCost     float64 `json:"total_cost,omitempty"`
	Charging      bool    `json:"charging"`
	Score         float64 `json:"score"`
}

// Option is the public view of an enriched candidate, used to present the
// ranking or the closest misses.
type Option struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Near      string  `json:"near,omitempty"`
	DriveMin  float64 `json:"drive_min"`
	QueueMin  float64 `json:"queue_min"`
	EtaMin    float64 `json:"eta_min"`
	TotalCost float64 `json:"total_cost"`
	Charging  bool    `json:"charging"`
	Score     float64 `json:"score,omitempty"`
}

// Result is the outcome of a pipeline run. When OK is false, Reason explains
// the rejection and Decision is nil.
type Result struct {
	OK               bool      `json:"ok"`
	Thoughts         []string  `json:"thoughts"`
	Decision         *Decision `json:"decision,omitempty"`
	CandidatesForLLM []Option  `json:"candidates_for_llm,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	Candidates       []Option  `json:"candidates,omitempty"`
	// Feasible counts the candidates that passed every filter.
	Feasible int `json:"-"`
}

// Thoughts is the ordered audit trail of a pipeline run.
type Thoughts []string

func (t *Thoughts) add(format string, args ...any) {
	*t = append(*t, fmt.Sprintf(format, args...))
}

func reject(th Thoughts, reason string) Result {
	return Result{OK: false, Thoughts: th, Reason: reason}
}
