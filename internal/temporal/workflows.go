// Package temporal dispatches the multi-role pipeline as a Temporal
// workflow: one activity per stage, executed sequentially, with each
// stage's output carried forward as context for later stages. Result
// normalization and history logging stay with the HTTP handler so the
// workflow history contains only plain stage text.
package temporal

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/routelab/optiroute/internal/prompt"
)

const stageTimeout = 60 * time.Second

// PipelineWorkflow runs the pipeline stages in order. A stage failure
// stops the chain and is reported in-band; the workflow itself still
// completes so the caller can produce a degraded result.
func PipelineWorkflow(ctx workflow.Context, input PipelineInput) (PipelineOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: stageTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1, // stages are never retried
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	start := workflow.Now(ctx)

	var out PipelineOutput
	var stageContext []string

	for _, t := range prompt.PipelineV1 {
		in := StageInput{
			Template:     string(t),
			Request:      input.Request,
			StageContext: stageContext,
		}
		var text string
		if err := workflow.ExecuteActivity(ctx, (*Activities).RunStage, in).Get(ctx, &text); err != nil {
			out.FailedStage = string(t)
			out.Error = err.Error()
			break
		}
		stageContext = append(stageContext, text)
		out.FinalText = text
	}

	out.LatencyMs = workflow.Now(ctx).Sub(start).Milliseconds()
	return out, nil
}
