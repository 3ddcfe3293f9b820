package temporal

import "github.com/routelab/optiroute/internal/route"

// PipelineInput is the input for PipelineWorkflow.
type PipelineInput struct {
	RequestID string                `json:"request_id"`
	Request   route.DeliveryRequest `json:"request"`
}

// PipelineOutput is the output of PipelineWorkflow. A stage failure is
// reported in-band (FailedStage/Error) so the workflow history records the
// degraded run; the caller feeds it to the normalizer.
type PipelineOutput struct {
	FinalText   string `json:"final_text"`
	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
	LatencyMs   int64  `json:"latency_ms"`
}

// StageInput is the input for the RunStage activity.
type StageInput struct {
	Template     string                `json:"template"`
	Request      route.DeliveryRequest `json:"request"`
	StageContext []string              `json:"stage_context,omitempty"`
}
