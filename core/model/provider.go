package model

import "fmt"

// Provider represents a parking spot offered by a service provider. It is an
// immutable input to the decision engine.
type Provider struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Address             string   `json:"address"`                          // payment address of the provider
	Certified           bool     `json:"certified"`                        // passed out-of-band verification
	PricePerHour        float64  `json:"price_per_hour"`                   // parking price for one hour
	QueueMin            float64  `json:"queue_min"`                        // expected wait before entering the spot
	DistanceKm          float64  `json:"distance_km"`                      // distance from the requester
	Near                string   `json:"near,omitempty"`                   // location key used by travel-time lookups
	Charging            bool     `json:"charging"`                         // spot has a charger
	ChargingPricePerKWh *float64 `json:"charging_price_per_kwh,omitempty"` // nil when the provider did not publish one
}

// Validate checks that the provider data is usable.
func (p Provider) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("provider id is required")
	}
	if p.PricePerHour < 0 {
		return fmt.Errorf("provider %s: negative price per hour", p.ID)
	}
	if p.QueueMin < 0 {
		return fmt.Errorf("provider %s: negative queue time", p.ID)
	}
	if p.DistanceKm < 0 {
		return fmt.Errorf("provider %s: negative distance", p.ID)
	}
	if p.ChargingPricePerKWh != nil && *p.ChargingPricePerKWh < 0 {
		return fmt.Errorf("provider %s: negative charging price", p.ID)
	}
	return nil
}

// HasChargingPrice reports whether the provider published a per-kWh price.
// A published price of zero is a free charger.
func (p Provider) HasChargingPrice() bool {
	return p.ChargingPricePerKWh != nil
}
