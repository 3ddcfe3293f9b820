// Package prompt renders delivery requests into the natural-language
// prompts sent to the model. Rendering is deterministic and total: any
// request produces a prompt, unknown condition values pass through
// verbatim.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/routelab/optiroute/internal/route"
)

// Template identifies a versioned prompt template. Call sites reference
// templates by identifier instead of duplicating free text.
type Template string

const (
	DirectV1      Template = "direct/v1"
	WeatherV1     Template = "pipeline/weather/v1"
	TrafficV1     Template = "pipeline/traffic/v1"
	PlannerV1     Template = "pipeline/planner/v1"
	CoordinatorV1 Template = "pipeline/coordinator/v1"
)

// PipelineV1 is the stage order of the multi-role pipeline. Each stage
// sees the outputs of all earlier stages; the coordinator runs last.
var PipelineV1 = []Template{WeatherV1, TrafficV1, PlannerV1, CoordinatorV1}

// weatherPhrases translates the known weather enum values into descriptive
// phrases. Unknown values are passed through as-is.
var weatherPhrases = map[string]string{
	"sunny": "clear and sunny",
	"rain":  "rain",
	"snow":  "snow",
	"fog":   "fog",
}

// trafficPhrases translates the known traffic enum values.
var trafficPhrases = map[string]string{
	"light":    "light traffic",
	"moderate": "moderate congestion",
	"heavy":    "heavy congestion",
}

// System returns the system instruction for a template.
func System(t Template) string {
	switch t {
	case WeatherV1:
		return "You are an expert meteorologist with 15 years of experience in logistics " +
			"and transportation. You understand how weather conditions affect road " +
			"conditions, visibility, and delivery times."
	case TrafficV1:
		return "You are a traffic management specialist with extensive knowledge of urban " +
			"traffic patterns, peak hours, and alternative routes. You help optimize " +
			"delivery routes based on current traffic conditions."
	case PlannerV1:
		return "You are a senior logistics coordinator with expertise in route optimization " +
			"and delivery management. You synthesize weather and traffic analyses to " +
			"create the most efficient delivery routes."
	case CoordinatorV1:
		return "You are the head of delivery operations. You coordinate between different " +
			"specialists to produce final delivery plans that balance efficiency, safety, " +
			"and customer satisfaction."
	default:
		return "You act as the route-optimization module of an autonomous delivery agent. " +
			"You receive a list of delivery addresses together with simplified conditions: " +
			"traffic, weather, warehouse delays, and customer priorities. Propose an " +
			"optimized route as an ordered list of addresses with a short explanation. " +
			"Use heuristics and reasoning rather than exact mathematical computation.\n\n" +
			"Answer ONLY in JSON of the form:\n" +
			`{"optimized_route": ["address1", "address2"], "explanation": "short reasoning", "total_estimated_time": "approximate time in hours"}`
	}
}

// Build renders the user prompt for a template. The context argument holds
// the outputs of earlier pipeline stages in execution order; it is ignored
// by templates that take no stage context.
func Build(t Template, req route.DeliveryRequest, context []string) string {
	switch t {
	case WeatherV1:
		return buildWeather(req)
	case TrafficV1:
		return buildTraffic(req)
	case PlannerV1:
		return buildPlanner(req, context)
	case CoordinatorV1:
		return buildCoordinator(req, context)
	default:
		return buildDirect(req)
	}
}

func buildDirect(req route.DeliveryRequest) string {
	var b strings.Builder
	b.WriteString("Delivery route optimization task:\n\nDELIVERY ADDRESSES:\n")
	writeAddresses(&b, req)

	b.WriteString("\nCONDITIONS:\n")
	if req.WeatherCondition != "" {
		fmt.Fprintf(&b, "- Weather: %s\n", phrase(weatherPhrases, req.WeatherCondition))
	}
	if req.TrafficCondition != "" {
		fmt.Fprintf(&b, "- Traffic: %s\n", phrase(trafficPhrases, req.TrafficCondition))
	}
	if len(req.WarehouseDelays) > 0 {
		b.WriteString("- Warehouse delays:\n")
		for _, w := range sortedKeys(req.WarehouseDelays) {
			fmt.Fprintf(&b, "  * %s: +%d minutes\n", w, req.WarehouseDelays[w])
		}
	}
	if len(req.SpecialRequirements) > 0 {
		fmt.Fprintf(&b, "- Special requirements: %s\n", strings.Join(req.SpecialRequirements, ", "))
	}

	b.WriteString("\nDetermine the optimal delivery order, taking into account:\n" +
		"1. Customer priorities\n" +
		"2. Weather conditions\n" +
		"3. Traffic\n" +
		"4. Warehouse delays\n" +
		"5. Special requirements\n\n" +
		"Answer in JSON with fields: optimized_route, explanation, total_estimated_time\n")
	return b.String()
}

func buildWeather(req route.DeliveryRequest) string {
	weather := req.WeatherCondition
	if weather == "" {
		weather = "unknown"
	}
	return fmt.Sprintf("Analyze the weather conditions (%s) and their impact on delivery routes.\n"+
		"Consider road safety, visibility, delivery time impact, and special precautions.\n\n"+
		"Answer in JSON with fields: impact_level (low/medium/high), safety_concerns, "+
		"time_adjustment (estimated increase in minutes), recommendations.\n",
		phrase(weatherPhrases, weather))
}

func buildTraffic(req route.DeliveryRequest) string {
	traffic := req.TrafficCondition
	if traffic == "" {
		traffic = "unknown"
	}
	return fmt.Sprintf("Analyze the traffic conditions (%s) and suggest routing strategies.\n"+
		"Consider peak-hour impact, alternative routes, expected delays, and route efficiency.\n\n"+
		"Answer in JSON with fields: congestion_level (low/medium/high), estimated_delay "+
		"(minutes), alternative_routes, optimal_timing.\n",
		phrase(trafficPhrases, traffic))
}

func buildPlanner(req route.DeliveryRequest, context []string) string {
	var b strings.Builder
	b.WriteString("Create an optimized delivery route for the following addresses:\n")
	writeAddresses(&b, req)

	b.WriteString("\nCustomer priorities: ")
	parts := make([]string, len(req.Addresses))
	for i, a := range req.Addresses {
		parts[i] = fmt.Sprintf("%s: %d", a.Address, a.Priority)
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString("\n")

	reqs := "none"
	if len(req.SpecialRequirements) > 0 {
		reqs = strings.Join(req.SpecialRequirements, ", ")
	}
	fmt.Fprintf(&b, "Special requirements: %s\n", reqs)

	writeContext(&b, context)
	b.WriteString("\nAnswer in JSON with fields: optimized_route, total_estimated_time, " +
		"route_efficiency_score (1-10), reasoning.\n")
	return b.String()
}

func buildCoordinator(req route.DeliveryRequest, context []string) string {
	var b strings.Builder
	b.WriteString("As the delivery coordinator, synthesize all analyses below into the " +
		"final optimized delivery plan for these addresses:\n")
	writeAddresses(&b, req)
	writeContext(&b, context)
	b.WriteString("\nAnswer in JSON with fields: optimized_route (final ordered list of " +
		"addresses), explanation, total_estimated_time, risk_assessment, " +
		"success_probability (1-10).\n")
	return b.String()
}

func writeAddresses(b *strings.Builder, req route.DeliveryRequest) {
	for i, a := range req.Addresses {
		fmt.Fprintf(b, "%d. %s (priority: %d/5)\n", i+1, a.Address, a.Priority)
	}
}

func writeContext(b *strings.Builder, context []string) {
	if len(context) == 0 {
		return
	}
	b.WriteString("\nEARLIER ANALYSES:\n")
	for i, c := range context {
		fmt.Fprintf(b, "--- analysis %d ---\n%s\n", i+1, c)
	}
}

func phrase(table map[string]string, value string) string {
	if p, ok := table[value]; ok {
		return p
	}
	return value
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
