package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/qagen/internal/config"
	"github.com/dgallion1/qagen/internal/extract"
	"github.com/dgallion1/qagen/internal/metrics"
	"github.com/dgallion1/qagen/internal/pipeline"
)

// Server is the HTTP API server for qagen.
type Server struct {
	router   chi.Router
	session  *pipeline.Session
	claude   *extract.ClaudeClient
	metrics  *metrics.Metrics
	validate *validator.Validate
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. A nil session makes the
// generation endpoints answer 500 until one is available.
func NewServer(session *pipeline.Session, claude *extract.ClaudeClient, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		session:  session,
		claude:   claude,
		metrics:  m,
		validate: validator.New(),
		log:      log,
		cfg:      cfg,
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
	r.Use(RequestLogger(s.log, s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/generate-qa", s.handleGenerateQA)
		r.Post("/api/generate-qa-chunked", s.handleGenerateQAChunked)
		r.Get("/api/document-info", s.handleDocumentInfo)
		r.Get("/api/runs/{runID}", s.handleRunStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "RAG Q&A API",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
