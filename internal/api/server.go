package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/metrics"
	"github.com/dgallion1/docqa/internal/pipeline"
	"github.com/dgallion1/docqa/internal/qa"
)

// OracleInfo reports which oracle answers questions and how fast it is.
type OracleInfo interface {
	Provider() string
	Model() string
	Stats() qa.StatsSnapshot
}

// Server is the HTTP API server for docqa.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	oracle       OracleInfo
	log          *zap.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, oracle OracleInfo, log *zap.Logger, cfg config.Config) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		orchestrator: orch,
		oracle:       oracle,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(metrics.Middleware())

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey))
		}

		r.Post("/api/sessions", s.handleCreateSession)
		r.Get("/api/sessions/{sessionID}", s.handleGetSession)
		r.Delete("/api/sessions/{sessionID}", s.handleDeleteSession)
		r.Post("/api/sessions/{sessionID}/document", s.handleUpload)
		r.Get("/api/sessions/{sessionID}/document/text", s.handleDocumentText)
		r.Post("/api/sessions/{sessionID}/ask", s.handleAsk)
		r.Get("/api/stats/oracle", s.handleOracleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
