package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/doctext/internal/config"
	"github.com/dgallion1/doctext/internal/extract"
	"github.com/dgallion1/doctext/internal/pipeline"
	"github.com/dgallion1/doctext/internal/sink"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP API server for doctext.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	extractor    *extract.Extractor
	sinks        *sink.Factory
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, ex *extract.Extractor, sinks *sink.Factory, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		extractor:    ex,
		sinks:        sinks,
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
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/extract", s.handleExtract)
		r.Post("/api/extract/batch", s.handleBatchExtract)
		r.Get("/api/extract/{jobID}/status", s.handleExtractStatus)
		r.Get("/api/extract/{jobID}/text", s.handleExtractText)
		r.Get("/api/stats/extract", s.handleExtractStats)

		r.Get("/api/extracts", s.handleListExtracts)
		r.Delete("/api/extracts/{docID}", s.handleDeleteExtract)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
