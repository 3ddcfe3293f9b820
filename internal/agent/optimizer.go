// Package agent implements the agent tier: prompt assembly, model calls,
// the multi-role pipeline, and the HTTP surface consumed by the gateway.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/routelab/optiroute/internal/llm"
	"github.com/routelab/optiroute/internal/metrics"
	"github.com/routelab/optiroute/internal/normalize"
	"github.com/routelab/optiroute/internal/prompt"
	"github.com/routelab/optiroute/internal/route"
)

// Pipeline-mode defaults filled in when the coordinator answers in prose
// instead of JSON.
const (
	defaultRiskAssessment  = "standard delivery risks"
	abortedRiskAssessment  = "analysis aborted before completion"
	defaultFreeTextSuccess = 8.0
)

// Optimizer orchestrates prompts, model calls, and normalization. It holds
// no per-request state; concurrent calls are independent.
type Optimizer struct {
	gen     llm.Generator
	metrics *metrics.Registry
	logger  *slog.Logger
}

func NewOptimizer(gen llm.Generator, m *metrics.Registry, logger *slog.Logger) *Optimizer {
	return &Optimizer{gen: gen, metrics: m, logger: logger}
}

// Direct runs the single-call optimization path. It never returns an
// error: model failures surface as the normalizer's degraded result.
func (o *Optimizer) Direct(ctx context.Context, req route.DeliveryRequest) (route.RouteResult, normalize.Outcome) {
	text, err := o.RunStage(ctx, prompt.DirectV1, req, nil)
	return normalize.Normalize(normalize.Input{Text: text, Err: err}, req)
}

// Pipeline runs the sequential multi-role path. A failure at any stage
// aborts the chain; the request still yields a degraded result rather
// than an error. No stage is retried; the pipeline runs at most once.
func (o *Optimizer) Pipeline(ctx context.Context, req route.DeliveryRequest) (route.RouteResult, normalize.Outcome) {
	var stageOutputs []string
	var finalText string

	for _, t := range prompt.PipelineV1 {
		out, err := o.RunStage(ctx, t, req, stageOutputs)
		if err != nil {
			res, outcome := normalize.Normalize(normalize.Input{Err: fmt.Errorf("stage %s: %w", t, err)}, req)
			res.RiskAssessment = route.String(abortedRiskAssessment)
			return res, outcome
		}
		stageOutputs = append(stageOutputs, out)
		finalText = out
	}

	return FinalizePipeline(finalText, req)
}

// RunStage issues one model call for the given template. Shared by the
// in-process runner and the workflow activities.
func (o *Optimizer) RunStage(ctx context.Context, t prompt.Template, req route.DeliveryRequest, stageContext []string) (string, error) {
	text, err := o.gen.Generate(ctx, prompt.System(t), prompt.Build(t, req, stageContext))

	status := "ok"
	if err != nil {
		status = "error"
		o.logger.Warn("model call failed",
			slog.String("template", string(t)),
			slog.String("error", err.Error()))
	}
	if o.metrics != nil {
		o.metrics.ModelCallsTotal.WithLabelValues(string(t), status).Inc()
	}
	return text, err
}

// FinalizePipeline normalizes the coordinator's output and fills the
// pipeline-mode defaults for a prose reply: the coordinator was expected
// to assess risk and confidence, so their absence gets conservative
// mid-scale values instead of staying unset.
func FinalizePipeline(finalText string, req route.DeliveryRequest) (route.RouteResult, normalize.Outcome) {
	res, outcome := normalize.Normalize(normalize.Input{Text: finalText}, req)
	if outcome == normalize.OutcomeFreeText {
		if res.RiskAssessment == nil {
			res.RiskAssessment = route.String(defaultRiskAssessment)
		}
		if res.SuccessProbability == nil {
			res.SuccessProbability = route.Float(defaultFreeTextSuccess)
		}
	}
	return res, outcome
}
