package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

// RunFunc executes one job run and returns its result.
type RunFunc func(ctx context.Context) (any, error)

// Server provides HTTP endpoints for health monitoring and on-demand runs.
type Server struct {
	monitor *Monitor
	run     RunFunc
	server  *http.Server
	log     *slog.Logger
}

// RunResponse is the body returned by POST /run.
type RunResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

// NewServer creates a new health server.
func NewServer(monitor *Monitor, run RunFunc, port int, log *slog.Logger) *Server {
	if log == nil {
		panic("health: nil logger")
	}
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		run:     run,
		log:     log.With("component", "server"),
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleDetailed)
	mux.HandleFunc("POST /run", s.handleRun)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run executes the job once and records the outcome. It is shared by the
// HTTP handler and the interval scheduler.
func (s *Server) Run(ctx context.Context) (any, error) {
	s.monitor.RunStarted()
	result, err := s.run(ctx)
	if errors.Is(err, domain.ErrJobInProgress) {
		// The active run will record its own outcome
		return nil, err
	}
	s.monitor.RunFinished(result, err)
	return result, err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth()

	status := http.StatusOK
	if report.SystemStatus == StatusCritical {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"status": string(report.SystemStatus)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.CheckHealth())
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.Run(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, RunResponse{Status: "ok", Result: result})
	case errors.Is(err, domain.ErrJobInProgress):
		writeJSON(w, http.StatusConflict, RunResponse{Status: "error", Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, RunResponse{Status: "error", Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
