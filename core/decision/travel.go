package decision

// SentinelPenalty is the travel time returned for location pairs with no
// known route. It pushes such candidates to the back without failing.
const SentinelPenalty = 999.0

// TravelTimer returns the drive time in minutes between two locations.
type TravelTimer interface {
	TravelMinutes(from, to string) float64
}

// TravelFunc adapts a function to the TravelTimer interface.
type TravelFunc func(from, to string) float64

// TravelMinutes calls f(from, to).
func (f TravelFunc) TravelMinutes(from, to string) float64 { return f(from, to) }

// Route is one entry of a travel-time table.
type Route struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Minutes float64 `json:"minutes"`
}

type routeKey struct{ a, b string }

func newRouteKey(from, to string) routeKey {
	if from > to {
		from, to = to, from
	}
	return routeKey{a: from, b: to}
}

// TravelTable is a symmetric lookup over a fixed set of routes.
type TravelTable struct {
	minutes map[routeKey]float64
}

// NewTravelTable builds a table from routes. A later route overrides an
// earlier one for the same pair in either direction.
func NewTravelTable(routes []Route) *TravelTable {
	t := &TravelTable{minutes: make(map[routeKey]float64, len(routes))}
	for _, r := range routes {
		t.minutes[newRouteKey(r.From, r.To)] = r.Minutes
	}
	return t
}

// DefaultRoutes is the built-in table over locations A to E.
func DefaultRoutes() []Route {
	return []Route{
		{From: "A", To: "B", Minutes: 18},
		{From: "A", To: "C", Minutes: 12},
		{From: "A", To: "D", Minutes: 25},
		{From: "A", To: "E", Minutes: 30},
		{From: "B", To: "C", Minutes: 9},
		{From: "B", To: "D", Minutes: 14},
		{From: "B", To: "E", Minutes: 22},
		{From: "C", To: "D", Minutes: 11},
		{From: "C", To: "E", Minutes: 16},
		{From: "D", To: "E", Minutes: 8},
	}
}

// DefaultTravelTable returns a table built from DefaultRoutes.
func DefaultTravelTable() *TravelTable { return NewTravelTable(DefaultRoutes()) }

// TravelMinutes implements TravelTimer. Staying in place costs nothing.
func (t *TravelTable) TravelMinutes(from, to string) float64 {
	if from == to {
		return 0
	}
	if m, ok := t.minutes[newRouteKey(from, to)]; ok {
		return m
	}
	return SentinelPenalty
}
