package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/routelab/optiroute/internal/logging"
	"github.com/routelab/optiroute/internal/metrics"
	"github.com/routelab/optiroute/internal/ratelimit"
	"github.com/routelab/optiroute/internal/tracing"
)

// Server is the public gateway tier.
type Server struct {
	cfg Config

	r *chi.Mux

	logger  *slog.Logger
	limiter *ratelimit.Limiter

	tracingShutdown func(context.Context) error
}

func NewServer(cfg Config) (*Server, error) {
	logger := logging.Setup(cfg.LogLevel)

	shutdown, err := tracing.Setup(tracing.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: "optiroute-gateway",
	})
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, time.Second,
		ratelimit.WithCounter(m.RateLimitedTotal))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(limiter.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	agent := NewAgentClient(cfg.AgentURL, tracing.Client(cfg.OTelEnabled))
	logger.Info("gateway configured", slog.String("agent_url", cfg.AgentURL))

	MountRoutes(r, Dependencies{
		Agent:           agent,
		Metrics:         m,
		Logger:          logger,
		DirectTimeout:   time.Duration(cfg.DirectTimeoutSecs) * time.Second,
		PipelineTimeout: time.Duration(cfg.PipelineTimeoutSecs) * time.Second,
	})

	return &Server{
		cfg:             cfg,
		r:               r,
		logger:          logger,
		limiter:         limiter,
		tracingShutdown: shutdown,
	}, nil
}

func (s *Server) Router() http.Handler { return s.r }

func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.tracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.tracingShutdown(ctx)
	}
	return nil
}
