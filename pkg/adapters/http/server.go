package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/internal/presentation/graph"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/aretw0/foreman/pkg/runner"
	"github.com/aretw0/foreman/pkg/stream"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodySize caps POST /api bodies before JSON decoding.
const maxBodySize = 1 << 20

// Team is the part of foreman.Team the server needs.
type Team interface {
	Start(ctx context.Context, task string) *foreman.Run
	Workers() []string
	Nodes() []domain.Node
	StepLimit() int
	Recorder() ports.RunRecorder
}

// Server serves the run stream and the introspection endpoints.
type Server struct {
	Team        Team
	logger      *slog.Logger
	metrics     http.Handler
	defaultTask string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithDefaultTask sets the task used by GET /api when none is given.
func WithDefaultTask(task string) Option {
	return func(s *Server) {
		s.defaultTask = task
	}
}

// NewHandler creates the HTTP handler for a team.
func NewHandler(team Team, opts ...Option) http.Handler {
	s := &Server{
		Team:        team,
		logger:      logging.NewNop(),
		defaultTask: foreman.DefaultTask,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(enableCORS)

	r.Get("/api", s.Stream)
	r.Post("/api", s.Stream)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Get("/{id}", s.GetRun)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.DebugContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type taskRequest struct {
	Task string `json:"task"`
}

// Stream handles GET and POST /api: it runs the team on the task and streams
// the filtered events as Server-Sent Events, ending with the sentinel.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	task, err := s.readTask(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid task: %v", err), http.StatusBadRequest)
		s.logger.WarnContext(r.Context(), "stream: task rejected", "err", err)
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.ErrorContext(r.Context(), "stream: response writer cannot flush")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	sw := stream.NewWriter(w)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	run := s.Team.Start(ctx, task)
	s.logger.InfoContext(ctx, "stream: run started", "run_id", run.ID())

	var writeErr error
	for ev := range run.Events() {
		if writeErr != nil {
			continue
		}
		if writeErr = sw.WriteContent(ev.Payload.Content()); writeErr != nil {
			s.logger.WarnContext(ctx, "stream: client write failed", "run_id", run.ID(), "err", writeErr)
			cancel()
		}
	}

	res := run.Wait()
	if writeErr != nil {
		return
	}
	if res.Status == domain.StatusFailed && res.Err != nil {
		if err := sw.WriteError(res.Err); err != nil {
			return
		}
	}
	if err := sw.Close(); err != nil {
		s.logger.DebugContext(ctx, "stream: sentinel not delivered", "run_id", run.ID(), "err", err)
	}
}

// readTask extracts the task from the query string (GET) or JSON body (POST).
func (s *Server) readTask(r *http.Request) (string, error) {
	var task string
	switch r.Method {
	case http.MethodPost:
		var body taskRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&body); err != nil {
			return "", fmt.Errorf("invalid request body: %w", err)
		}
		task = body.Task
	default:
		values := r.URL.Query()
		if !values.Has("task") {
			return s.defaultTask, nil
		}
		task = values.Get("task")
	}
	return runner.SanitizeTask(task)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, map[string]any{
		"app":        "foreman-http",
		"version":    strings.TrimSpace(foreman.Version),
		"workers":    s.Team.Workers(),
		"step_limit": s.Team.StepLimit(),
	})
}

// GetGraph handles the GET /graph request.
// ?format=mermaid returns a flowchart; ?run=<id> highlights that run's path.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	nodes := s.Team.Nodes()
	if r.URL.Query().Get("format") != "mermaid" {
		s.writeJSON(w, r, nodes)
		return
	}

	var overlay *graph.Overlay
	if runID := r.URL.Query().Get("run"); runID != "" {
		rec, ok := s.loadRun(w, r, runID)
		if !ok {
			return
		}
		overlay = graph.OverlayFromRecord(rec)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(nodes, overlay))
}

// ListRuns handles the GET /runs request.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	recorder := s.Team.Recorder()
	if recorder == nil {
		s.writeJSON(w, r, []string{})
		return
	}
	ids, err := recorder.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.ErrorContext(r.Context(), "list runs failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, r, ids)
}

// GetRun handles the GET /runs/{id} request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	if rec, ok := s.loadRun(w, r, chi.URLParam(r, "id")); ok {
		s.writeJSON(w, r, rec)
	}
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request, runID string) (*domain.RunRecord, bool) {
	recorder := s.Team.Recorder()
	if recorder == nil {
		http.Error(w, "Run recording is disabled", http.StatusNotFound)
		return nil, false
	}
	rec, err := recorder.Load(r.Context(), runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		http.Error(w, fmt.Sprintf("Run not found: %s", runID), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.ErrorContext(r.Context(), "load run failed", "run_id", runID, "err", err)
		return nil, false
	}
	return rec, true
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.ErrorContext(r.Context(), "response encode failed", "path", r.URL.Path, "err", err)
	}
}
