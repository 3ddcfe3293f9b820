package temporal

import (
	"context"

	"github.com/routelab/optiroute/internal/prompt"
	"github.com/routelab/optiroute/internal/route"
)

// StageRunner executes one pipeline stage against the model.
// *agent.Optimizer satisfies it.
type StageRunner interface {
	RunStage(ctx context.Context, t prompt.Template, req route.DeliveryRequest, stageContext []string) (string, error)
}

// Activities holds the dependencies for workflow activities.
type Activities struct {
	Runner StageRunner
}

// RunStage executes a single pipeline stage. It is deliberately not
// retried by Temporal: the pipeline runs each stage at most once, and a
// failure degrades the whole request instead of being retried.
func (a *Activities) RunStage(ctx context.Context, in StageInput) (string, error) {
	return a.Runner.RunStage(ctx, prompt.Template(in.Template), in.Request, in.StageContext)
}
