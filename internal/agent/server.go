package agent

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/routelab/optiroute/internal/circuitbreaker"
	"github.com/routelab/optiroute/internal/llm/openai"
	"github.com/routelab/optiroute/internal/logging"
	"github.com/routelab/optiroute/internal/metrics"
	"github.com/routelab/optiroute/internal/store"
	temporalpkg "github.com/routelab/optiroute/internal/temporal"
	"github.com/routelab/optiroute/internal/tracing"
)

// Server wires the agent tier together: model adapter, optimizer, store,
// optional Temporal worker, and the HTTP surface.
type Server struct {
	cfg Config

	r *chi.Mux

	store  store.Store
	logger *slog.Logger

	temporal        *temporalpkg.Manager
	tracingShutdown func(context.Context) error
}

func NewServer(cfg Config) (*Server, error) {
	logger := logging.Setup(cfg.LogLevel)

	shutdown, err := tracing.Setup(tracing.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: "optiroute-agent",
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	gen := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
		openai.WithHTTPClient(tracing.Client(cfg.OTelEnabled)),
		openai.WithTimeout(time.Duration(cfg.ModelTimeout)*time.Second),
		openai.WithModel(cfg.Model),
	)

	m := metrics.New()
	opt := NewOptimizer(gen, m, logger)

	db, err := store.NewSQLite(cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("history store initialized", slog.String("dsn", cfg.DBDSN))

	deps := Dependencies{
		Optimizer: opt,
		Store:     db,
		Metrics:   m,
		Logger:    logger,
	}

	s := &Server{
		cfg:             cfg,
		r:               r,
		store:           db,
		logger:          logger,
		tracingShutdown: shutdown,
	}

	if cfg.TemporalEnabled {
		mgr, err := temporalpkg.New(temporalpkg.Config{
			HostPort:  cfg.TemporalHostPort,
			Namespace: cfg.TemporalNamespace,
			TaskQueue: cfg.TemporalTaskQueue,
		}, &temporalpkg.Activities{Runner: opt})
		if err != nil {
			// Temporal is optional; the in-process runner covers pipeline mode.
			logger.Warn("temporal unavailable, pipeline runs in-process", slog.String("error", err.Error()))
		} else if err := mgr.Start(); err != nil {
			logger.Warn("temporal worker start failed, pipeline runs in-process", slog.String("error", err.Error()))
			mgr.Stop()
		} else {
			s.temporal = mgr
			deps.TemporalClient = mgr.Client()
			deps.TemporalTaskQueue = mgr.TaskQueue()
			deps.Breaker = circuitbreaker.New()
			logger.Info("temporal pipeline dispatch enabled", slog.String("task_queue", mgr.TaskQueue()))
		}
	}

	MountRoutes(r, deps)
	return s, nil
}

func (s *Server) Router() http.Handler { return s.r }

func (s *Server) Close() error {
	if s.temporal != nil {
		s.temporal.Stop()
	}
	if s.tracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.tracingShutdown(ctx)
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
