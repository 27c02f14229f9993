// Package server exposes sessions, evidence and the model operations over
// HTTP for the presentation layer.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"marketcompanion/internal/conversation"
	"marketcompanion/internal/evidence"
	"marketcompanion/internal/llm"
	"marketcompanion/internal/prompt"
	"marketcompanion/internal/session"
	"marketcompanion/internal/source"
)

const (
	maxBodyBytes = 1 << 20
	// MaxTickers bounds one request's instrument list.
	MaxTickers = 50
)

// Evidence is the aggregation side the handlers need.
//
//go:generate mockgen -package=server_test -destination=mock_deps_test.go -source=server.go Evidence,Model
type Evidence interface {
	FetchAll(ctx context.Context, instruments []evidence.Instrument) map[evidence.Instrument]*evidence.Bundle
	ProbeAll(ctx context.Context, probers ...source.Prober) map[string]bool
}

// Model is the language-model side the handlers need.
type Model interface {
	Synthesize(ctx context.Context, instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle) (llm.SummaryResult, error)
	Respond(ctx context.Context, question string, instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle, history []conversation.Turn) (string, error)
	Classify(ctx context.Context, text string) (llm.SentimentClassification, error)
}

// Config wires the server.
type Config struct {
	Evidence       Evidence
	Model          Model
	Store          *session.Store
	Prompts        *prompt.Builder
	Probers        []source.Prober
	RequestTimeout time.Duration
	Log            zerolog.Logger
}

// Server holds the router and its dependencies.
type Server struct {
	evidence Evidence
	model    Model
	store    *session.Store
	prompts  *prompt.Builder
	probers  []source.Prober
	timeout  time.Duration
	log      zerolog.Logger
	router   *chi.Mux
}

func New(cfg Config) *Server {
	if cfg.Prompts == nil {
		cfg.Prompts = prompt.Default()
	}
	if cfg.Store == nil {
		cfg.Store = session.NewStore(cfg.Evidence, cfg.Model, session.WithLogger(cfg.Log))
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	s := &Server{
		evidence: cfg.Evidence,
		model:    cfg.Model,
		store:    cfg.Store,
		prompts:  cfg.Prompts,
		probers:  cfg.Probers,
		timeout:  cfg.RequestTimeout,
		log:      cfg.Log.With().Str("component", "server").Logger(),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.RegisterRoutes(s.router)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(s.timeout))
	s.router.Use(middleware.RequestSize(maxBodyBytes))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
}

// RegisterRoutes mounts every endpoint on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health/sources", s.handleSourceHealth)
		r.Post("/classify", s.handleClassify)
		r.Post("/render", s.handleRender)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/instruments", s.handleUpdateInstruments)
				r.Post("/refresh", s.handleRefresh)
				r.Get("/evidence", s.handleEvidence)
				r.Get("/summary", s.handleSummary)
				r.Post("/chat", s.handleChat)
				r.Get("/history", s.handleHistory)
			})
		})
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
