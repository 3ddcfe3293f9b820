// Package normalize coerces untrusted model replies into the fixed
// RouteResult schema. Normalize never fails: every combination of
// transport error, malformed JSON, and free text yields a usable,
// schema-valid result. Fidelity is traded for availability.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/routelab/optiroute/internal/route"
)

// Outcome tags which branch of the normalization state machine produced
// the result.
type Outcome string

const (
	// OutcomeUpstreamFailure: the model call itself failed (transport error
	// or timeout). Identity route, minimum confidence.
	OutcomeUpstreamFailure Outcome = "upstream_failure"

	// OutcomeStructured: the entire reply parsed as a result object.
	OutcomeStructured Outcome = "structured"

	// OutcomeEmbeddedJSON: a JSON object embedded in surrounding prose
	// parsed as the result object.
	OutcomeEmbeddedJSON Outcome = "embedded_json"

	// OutcomeFreeText: no parseable JSON anywhere; the raw text becomes the
	// explanation and the route falls back to input order.
	OutcomeFreeText Outcome = "free_text"
)

const (
	// TimeUnknown marks an estimate that could not be produced at all.
	TimeUnknown = "unknown"

	// TimeDefault marks an unverified estimate synthesized from free text.
	TimeDefault = "2-3 hours"

	// MinProbability is the lowest value on the 1-10 confidence scale,
	// reported when the upstream call failed outright.
	MinProbability = 1.0
)

// Input is the untrusted reply fed to Normalize. When Err is non-nil the
// text is ignored and the upstream-failure branch is taken.
type Input struct {
	Text string
	Err  error
}

// Normalize converts a raw model reply into a RouteResult. It never
// returns an error; every path yields a result whose optimized_route is
// non-empty whenever the request's address list is non-empty.
func Normalize(in Input, req route.DeliveryRequest) (route.RouteResult, Outcome) {
	if in.Err != nil {
		return route.RouteResult{
			OptimizedRoute:     req.IdentityRoute(),
			Explanation:        fmt.Sprintf("model call failed: %v", in.Err),
			TotalEstimatedTime: route.String(TimeUnknown),
			SuccessProbability: route.Float(MinProbability),
		}, OutcomeUpstreamFailure
	}

	text := strings.TrimSpace(in.Text)

	// Whole reply is the object.
	if res, ok := parseResult(text, req); ok {
		return res, OutcomeStructured
	}

	// Object embedded in prose: greedy span from the first '{' to the last
	// '}', matching across newlines.
	if span, ok := jsonSpan(text); ok {
		if res, ok := parseResult(span, req); ok {
			return res, OutcomeEmbeddedJSON
		}
	}

	// Free text: keep the whole reply as the explanation.
	return route.RouteResult{
		OptimizedRoute:     req.IdentityRoute(),
		Explanation:        in.Text,
		TotalEstimatedTime: route.String(TimeDefault),
	}, OutcomeFreeText
}

// parseResult attempts a strict parse of text as a RouteResult. A parsed
// object with an empty route is repaired to the identity route so the
// non-empty invariant holds; all other fields pass through verbatim and
// absent optionals stay nil.
func parseResult(text string, req route.DeliveryRequest) (route.RouteResult, bool) {
	if !strings.HasPrefix(text, "{") {
		return route.RouteResult{}, false
	}
	var res route.RouteResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return route.RouteResult{}, false
	}
	if len(res.OptimizedRoute) == 0 {
		res.OptimizedRoute = req.IdentityRoute()
	}
	return res, true
}

// jsonSpan returns the greedy {...} span of text, when one exists.
func jsonSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
