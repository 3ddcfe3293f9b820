// Package route defines the delivery-request and route-result shapes shared
// by the gateway and agent tiers. These are the only wire types in the
// system: a request is built once per call, used once, and discarded.
package route

// Address is a single delivery stop with a customer priority (1..5, where 5
// is the highest).
type Address struct {
	Address  string `json:"address" validate:"required"`
	Priority int    `json:"priority" validate:"min=1,max=5"`
}

// DeliveryRequest is the inbound optimization request. Addresses keep their
// input order; that order is the fallback route when the model reply cannot
// be parsed.
type DeliveryRequest struct {
	Addresses           []Address      `json:"addresses" validate:"required,min=1,dive"`
	WeatherCondition    string         `json:"weather_condition,omitempty"`
	TrafficCondition    string         `json:"traffic_condition,omitempty"`
	WarehouseDelays     map[string]int `json:"warehouse_delays,omitempty" validate:"omitempty,dive,min=0"`
	SpecialRequirements []string       `json:"special_requirements,omitempty"`
}

// RouteResult is the response shape of every optimization call. Optional
// fields are pointers so a reply in which the model declined to estimate
// stays distinguishable from one that estimated a zero value.
type RouteResult struct {
	OptimizedRoute     []string `json:"optimized_route"`
	Explanation        string   `json:"explanation"`
	TotalEstimatedTime *string  `json:"total_estimated_time,omitempty"`
	RiskAssessment     *string  `json:"risk_assessment,omitempty"`
	SuccessProbability *float64 `json:"success_probability,omitempty"`
}

// ApplyDefaults fills the priority default (1) for addresses that omitted
// it, matching the wire contract where priority is optional.
func (r *DeliveryRequest) ApplyDefaults() {
	for i := range r.Addresses {
		if r.Addresses[i].Priority == 0 {
			r.Addresses[i].Priority = 1
		}
	}
}

// IdentityRoute returns the address strings in their original input order.
// This is the fallback ordering used whenever the model output is unusable.
func (r DeliveryRequest) IdentityRoute() []string {
	out := make([]string, len(r.Addresses))
	for i, a := range r.Addresses {
		out[i] = a.Address
	}
	return out
}

// String and Float are pointer helpers for the optional RouteResult fields.
func String(s string) *string  { return &s }
func Float(f float64) *float64 { return &f }

// Example returns the canonical sample request served by the gateway's
// /example endpoint and run by the agent's /test endpoints.
func Example() DeliveryRequest {
	return DeliveryRequest{
		Addresses: []Address{
			{Address: "10 Lenin St, Moscow", Priority: 3},
			{Address: "25 Mira Ave, Moscow", Priority: 5},
			{Address: "15 Tverskaya St, Moscow", Priority: 2},
		},
		WeatherCondition:    "rain",
		TrafficCondition:    "heavy",
		WarehouseDelays:     map[string]int{"warehouse_1": 15},
		SpecialRequirements: []string{"fragile cargo", "urgent delivery"},
	}
}
