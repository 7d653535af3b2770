package decision

import "github.com/kilianp07/parkagent/core/model"

// Enriched is a provider together with the values derived for a scenario.
type Enriched struct {
	model.Provider
	DriveMin    float64
	EtaMin      float64
	ParkingCost float64
	ChargeCost  float64
	TotalCost   float64
	Score       float64
}

// Option returns the public projection of c.
func (c Enriched) Option() Option {
	return Option{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		Near:      c.Near,
		DriveMin:  c.DriveMin,
		QueueMin:  c.QueueMin,
		EtaMin:    c.EtaMin,
		TotalCost: c.TotalCost,
		Charging:  c.Charging,
		Score:     c.Score,
	}
}

// Estimator derives drive time, ETA and total cost for a provider.
type Estimator struct {
	Travel   TravelTimer
	Defaults Defaults
}

// Estimate computes the enriched view of p for scenario s.
func (est Estimator) Estimate(s model.Scenario, p model.Provider) Enriched {
	drive := est.Travel.TravelMinutes(s.Current, p.Near) + est.Travel.TravelMinutes(p.Near, s.Destination)

	parking := p.PricePerHour * model.FloatOr(s.ParkingHours, est.Defaults.ParkingHours)

	var charge float64
	if s.NeedCharging {
		kwh := model.FloatOr(s.RequestedKWh, est.Defaults.RequestedKWh)
		price := model.FloatOr(p.ChargingPricePerKWh, est.Defaults.ChargingPricePerKWh)
		charge = kwh * price
	}

	return Enriched{
		Provider:    p,
		DriveMin:    drive,
		EtaMin:      drive + p.QueueMin,
		ParkingCost: parking,
		ChargeCost:  charge,
		TotalCost:   round2(parking + charge),
	}
}

// EstimateAll enriches every provider, preserving order.
func (est Estimator) EstimateAll(s model.Scenario, providers []model.Provider) []Enriched {
	out := make([]Enriched, len(providers))
	for i, p := range providers {
		out[i] = est.Estimate(s, p)
	}
	return out
}

func options(list []Enriched) []Option {
	out := make([]Option, len(list))
	for i, c := range list {
		out[i] = c.Option()
	}
	return out
}
