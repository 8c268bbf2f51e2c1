package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/callcoachhq/callcoach/internal/analysis"
	"github.com/callcoachhq/callcoach/internal/coach"
	"github.com/callcoachhq/callcoach/internal/events"
	"github.com/callcoachhq/callcoach/internal/extract"
	"github.com/callcoachhq/callcoach/internal/store"
)

type analysisStore interface {
	CreateAnalysis(ctx context.Context, rec *store.Record) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*store.Record, error)
	ListAnalyses(ctx context.Context, userID string) ([]store.Record, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CompleteAnalysis(ctx context.Context, id uuid.UUID, result *analysis.Result) error
	FailAnalysis(ctx context.Context, id uuid.UUID, message string) error
}

type objectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

type transcriptAnalyzer interface {
	Analyze(ctx context.Context, transcript string, meta analysis.Metadata) (*analysis.Result, error)
}

type chatCoach interface {
	Respond(ctx context.Context, messages []coach.Message, result *analysis.Result) (string, error)
}

type extractRunner interface {
	ProcessBatch(ctx context.Context) ([]extract.ItemResult, error)
}

// Deps are the collaborators the handlers call into. Everything is an
// interface so tests can swap in fakes without a database or vendor.
type Deps struct {
	Store    analysisStore
	Objects  objectStore
	Analyzer transcriptAnalyzer
	Coach    chatCoach
	Extract  extractRunner
	Events   *events.Publisher
}

type Server struct {
	router *chi.Mux
	port   int
	logger *slog.Logger
	deps   Deps
}

func NewServer(port int, apiToken, cronSecret string, deps Deps, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		logger: logger,
		deps:   deps,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/status", s.status)

	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiToken))
			r.Use(RequireUserMiddleware)
			r.Post("/analyses", s.createAnalysis)
			r.Get("/analyses", s.listAnalyses)
			r.Get("/analyses/{id}", s.getAnalysis)
			r.Post("/analyses/{id}/process", s.processAnalysis)
			r.Get("/analyses/{id}/export", s.exportAnalysis)
			r.Post("/coaching/chat", s.coachingChat)
		})
		r.With(BearerAuthMiddleware(cronSecret)).Post("/jobs/extract", s.runExtractJob)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "callcoach",
		"status":  "ok",
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
