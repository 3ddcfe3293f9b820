package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/routelab/optiroute/internal/metrics"
	"github.com/routelab/optiroute/internal/route"
)

var validate = validator.New()

// Dependencies carries what the gateway handlers need.
type Dependencies struct {
	Agent   *AgentClient
	Metrics *metrics.Registry
	Logger  *slog.Logger

	DirectTimeout   time.Duration
	PipelineTimeout time.Duration
}

// MountRoutes attaches the public surface to the router.
func MountRoutes(r chi.Router, d Dependencies) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Delivery Route Optimizer API",
			"status":  "running",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Get("/example", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"example_request": route.Example()})
	})

	r.Post("/optimize-route", OptimizeRouteHandler(d, "/optimize"))
	r.Post("/optimize-route-crewai", OptimizeRouteHandler(d, "/optimize-crewai"))

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
}

// OptimizeRouteHandler validates the request and forwards it to the given
// agent path. The pipeline path gets the wider timeout budget.
func OptimizeRouteHandler(d Dependencies, agentPath string) http.HandlerFunc {
	timeout := d.DirectTimeout
	if agentPath == "/optimize-crewai" {
		timeout = d.PipelineTimeout
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req route.DeliveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "bad json", http.StatusBadRequest)
			return
		}
		req.ApplyDefaults()
		if err := validate.Struct(req); err != nil {
			jsonError(w, "address list must not be empty", http.StatusBadRequest)
			return
		}
		if len(req.Addresses) < 2 {
			jsonError(w, "at least 2 addresses are required for optimization", http.StatusBadRequest)
			return
		}

		body, err := d.Agent.Optimize(r.Context(), agentPath, req, timeout)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, ErrAgentTimeout):
				status = http.StatusGatewayTimeout
			case errors.Is(err, ErrAgentUnavailable):
				status = http.StatusServiceUnavailable
			}
			d.Logger.Warn("agent call failed",
				slog.String("path", agentPath),
				slog.Int("status", status),
				slog.String("error", err.Error()))
			jsonError(w, err.Error(), status)
			return
		}

		// RouteResult passes through unchanged.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
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
