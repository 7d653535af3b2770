package model

// Urgency expresses how much the requester favours time over cost.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency converts s to an Urgency. Matching is exact; any value other
// than "low" or "high" is treated as normal.
func ParseUrgency(s string) Urgency {
	switch Urgency(s) {
	case UrgencyLow:
		return UrgencyLow
	case UrgencyHigh:
		return UrgencyHigh
	default:
		return UrgencyNormal
	}
}

// String returns the urgency label.
func (u Urgency) String() string {
	if u == "" {
		return string(UrgencyNormal)
	}
	return string(u)
}

// Scenario describes a request for a parking spot with travel, charging and
// deadline constraints. Optional numeric fields are nil when the requester
// left them out; an explicit zero is a value, not an omission.
type Scenario struct {
	Current      string   `json:"current"`
	Destination  string   `json:"destination"`
	Urgency      Urgency  `json:"urgency"`
	DeadlineMin  *float64 `json:"deadline_min,omitempty"` // nil means no deadline
	NeedCharging bool     `json:"need_charging"`
	RequestedKWh *float64 `json:"requested_kwh,omitempty"` // nil uses the configured default
	ParkingHours *float64 `json:"parking_hours,omitempty"` // nil uses the configured default
}

// HasDeadline reports whether the scenario constrains the arrival time.
func (s Scenario) HasDeadline() bool {
	return s.DeadlineMin != nil
}

// Float returns a pointer to v, for filling optional fields.
func Float(v float64) *float64 {
	return &v
}

// FloatOr returns *p, or def when p is nil.
func FloatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
