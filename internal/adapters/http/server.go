// Package http exposes the engine over a JSON HTTP API plus a
// WebSocket step stream.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/internal/presentation/dot"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/review"
)

// Engine defines the surface of the rill core the server depends on.
type Engine interface {
	CreateGraph(def domain.GraphDefinition) (string, error)
	Graph(id string) (domain.GraphDefinition, error)
	RunGraph(ctx context.Context, graphID string, initial domain.State) (*domain.Run, error)
	StartGraph(graphID string, initial domain.State) (string, error)
	GetState(ctx context.Context, runID string) (*domain.Run, error)
	Cancel(runID string) error
	Subscribe(runID string) (<-chan domain.Step, func(), error)
}

// Server handles the HTTP API.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/graph/create", s.createGraph)
	r.Post("/graph/create_sample/code_review", s.createSampleGraph)
	r.Get("/graph/{graphID}/dot", s.graphDOT)
	r.Post("/graph/run", s.runGraph)
	r.Post("/graph/run_async", s.runGraphAsync)
	r.Get("/graph/state/{runID}", s.runState)
	r.Post("/run/{runID}/cancel", s.cancelRun)
	r.Get("/ws/run/{runID}", s.streamRun)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createGraph(w http.ResponseWriter, r *http.Request) {
	var req graphCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.engine.CreateGraph(domain.GraphDefinition{
		EntryNodeID: req.EntryNodeID,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, graphCreateResponse{GraphID: id})
}

func (s *Server) createSampleGraph(w http.ResponseWriter, r *http.Request) {
	id, err := s.engine.CreateGraph(review.SampleGraph())
	if err != nil {
		s.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graphCreateResponse{GraphID: id})
}

func (s *Server) graphDOT(w http.ResponseWriter, r *http.Request) {
	def, err := s.engine.Graph(chi.URLParam(r, "graphID"))
	if err != nil {
		s.mapError(w, err)
		return
	}

	out, err := dot.Export(def)
	if err != nil {
		s.error(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(out))
}

func (s *Server) runGraph(w http.ResponseWriter, r *http.Request) {
	var req graphRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	run, err := s.engine.RunGraph(r.Context(), req.GraphID, req.InitialState)
	if run == nil {
		s.mapError(w, err)
		return
	}

	// A failed run is a valid result: its status and log up to the
	// failure point are returned to the caller.
	writeJSON(w, http.StatusOK, runResponseFrom(run))
}

func (s *Server) runGraphAsync(w http.ResponseWriter, r *http.Request) {
	var req graphRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	runID, err := s.engine.StartGraph(req.GraphID, req.InitialState)
	if err != nil {
		s.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, runStartResponse{
		RunID:  runID,
		Status: domain.StatusRunning,
	})
}

func (s *Server) runState(w http.ResponseWriter, r *http.Request) {
	run, err := s.engine.GetState(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponseFrom(run))
}

func (s *Server) cancelRun(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Cancel(chi.URLParam(r, "runID")); err != nil {
		s.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (s *Server) mapError(w http.ResponseWriter, err error) {
	var invalid *domain.InvalidGraphError

	switch {
	case errors.Is(err, domain.ErrGraphNotFound), errors.Is(err, domain.ErrRunNotFound):
		s.error(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalid):
		s.error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidRunState):
		s.error(w, http.StatusConflict, err.Error())
	case err == nil:
		s.error(w, http.StatusInternalServerError, "unknown error")
	default:
		s.logger.Error("request failed", "error", err)
		s.error(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) error(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
