package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.temporal.io/sdk/client"

	"github.com/routelab/optiroute/internal/circuitbreaker"
	"github.com/routelab/optiroute/internal/llm"
	"github.com/routelab/optiroute/internal/metrics"
	"github.com/routelab/optiroute/internal/normalize"
	"github.com/routelab/optiroute/internal/route"
	"github.com/routelab/optiroute/internal/store"
	temporalpkg "github.com/routelab/optiroute/internal/temporal"
)

var validate = validator.New()

// Dependencies carries everything the agent handlers need. Handlers are
// closures over this struct so tests can assemble them with stubs.
type Dependencies struct {
	Optimizer *Optimizer
	Store     store.Store
	Metrics   *metrics.Registry
	Logger    *slog.Logger

	// Temporal dispatch for pipeline mode (nil client disables it).
	TemporalClient    client.Client
	TemporalTaskQueue string
	Breaker           *circuitbreaker.Breaker
}

// MountRoutes attaches the agent surface to the router.
func MountRoutes(r chi.Router, d Dependencies) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "agent running",
			"service": "route-optimizer-agent",
		})
	})

	r.Post("/optimize", OptimizeHandler(d, "direct"))
	r.Post("/optimize-crewai", OptimizeHandler(d, "pipeline"))

	r.Get("/test", TestHandler(d, "direct"))
	r.Get("/test-crewai", TestHandler(d, "pipeline"))

	r.Get("/history", HistoryHandler(d))

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
}

// OptimizeHandler serves both optimization endpoints; mode selects the
// direct or pipeline path.
func OptimizeHandler(d Dependencies, mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req route.DeliveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "bad json", http.StatusBadRequest)
			return
		}
		req.ApplyDefaults()
		if err := validate.Struct(req); err != nil {
			jsonError(w, "address list is required", http.StatusBadRequest)
			return
		}

		reqID := middleware.GetReqID(r.Context())
		ctx := llm.WithRequestID(r.Context(), reqID)

		var res route.RouteResult
		var outcome normalize.Outcome
		if mode == "pipeline" {
			res, outcome = d.runPipeline(ctx, req, reqID)
		} else {
			res, outcome = d.Optimizer.Direct(ctx, req)
		}

		d.observe(r, mode, outcome, len(req.Addresses), time.Since(start))
		writeJSON(w, http.StatusOK, res)
	}
}

// TestHandler runs the canonical example request through the given mode.
func TestHandler(d Dependencies, mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		req := route.Example()
		reqID := middleware.GetReqID(r.Context())
		ctx := llm.WithRequestID(r.Context(), reqID)

		var res route.RouteResult
		var outcome normalize.Outcome
		if mode == "pipeline" {
			res, outcome = d.runPipeline(ctx, req, reqID)
		} else {
			res, outcome = d.Optimizer.Direct(ctx, req)
		}

		d.observe(r, mode, outcome, len(req.Addresses), time.Since(start))
		writeJSON(w, http.StatusOK, res)
	}
}

// HistoryHandler lists recent optimization log entries.
func HistoryHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Store == nil {
			jsonError(w, "no store configured", http.StatusInternalServerError)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		entries, err := d.Store.ListOptimizations(r.Context(), limit, offset)
		if err != nil {
			jsonError(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []store.OptimizationLog{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"optimizations": entries})
	}
}

// runPipeline dispatches pipeline mode through Temporal when available,
// falling back to the in-process runner when the workflow service is down
// or the circuit is open.
func (d Dependencies) runPipeline(ctx context.Context, req route.DeliveryRequest, reqID string) (route.RouteResult, normalize.Outcome) {
	if d.TemporalClient != nil && d.Breaker != nil && d.Breaker.Allow() {
		run, err := d.TemporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        "pipeline-" + reqID,
			TaskQueue: d.TemporalTaskQueue,
		}, temporalpkg.PipelineWorkflow, temporalpkg.PipelineInput{RequestID: reqID, Request: req})
		if err != nil {
			d.Breaker.RecordFailure()
			d.Logger.Warn("temporal dispatch failed, running pipeline in-process",
				slog.String("request_id", reqID), slog.String("error", err.Error()))
		} else {
			var out temporalpkg.PipelineOutput
			if err := run.Get(ctx, &out); err != nil {
				d.Breaker.RecordFailure()
				d.Logger.Warn("temporal workflow failed, running pipeline in-process",
					slog.String("request_id", reqID), slog.String("error", err.Error()))
			} else {
				d.Breaker.RecordSuccess()
				if out.Error != "" {
					res, outcome := normalize.Normalize(normalize.Input{
						Err: fmt.Errorf("stage %s: %s", out.FailedStage, out.Error),
					}, req)
					res.RiskAssessment = route.String(abortedRiskAssessment)
					return res, outcome
				}
				return FinalizePipeline(out.FinalText, req)
			}
		}
	}
	return d.Optimizer.Pipeline(ctx, req)
}

// observe records metrics and appends the history log entry. Store
// failures are logged, never surfaced.
func (d Dependencies) observe(r *http.Request, mode string, outcome normalize.Outcome, addrCount int, elapsed time.Duration) {
	if d.Metrics != nil {
		d.Metrics.OptimizationsTotal.WithLabelValues(mode, string(outcome)).Inc()
		d.Metrics.OptimizationLatency.WithLabelValues(mode).Observe(float64(elapsed.Milliseconds()))
	}
	if d.Store != nil {
		err := d.Store.LogOptimization(r.Context(), store.OptimizationLog{
			Mode:         mode,
			AddressCount: addrCount,
			Outcome:      string(outcome),
			LatencyMs:    elapsed.Milliseconds(),
			RequestID:    middleware.GetReqID(r.Context()),
		})
		if err != nil {
			d.Logger.Warn("history write failed", slog.String("error", err.Error()))
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes {"error": msg} with the given status code.
func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
