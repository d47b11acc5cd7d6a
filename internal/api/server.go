// Package api provides the HTTP boundary for MapGrid: agent-card discovery,
// the task protocol routes, and the shared-secret auth check. Everything
// here is plumbing around the registry and dispatcher.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mapgrid-network/mapgrid/internal/app/card"
	"github.com/mapgrid-network/mapgrid/internal/app/dispatch"
	"github.com/mapgrid-network/mapgrid/internal/app/task"
	"github.com/mapgrid-network/mapgrid/internal/domain"
	"github.com/mapgrid-network/mapgrid/internal/health"
)

// Server is the MapGrid HTTP API server.
type Server struct {
	registry       *task.Registry
	dispatcher     *dispatch.Dispatcher
	card           *card.Provider
	health         *health.Checker
	apiKey         string
	version        string
	metricsEnabled bool
	log            *log.Logger
}

// NewServer creates a new API server.
func NewServer(registry *task.Registry, dispatcher *dispatch.Dispatcher, cardProvider *card.Provider, checker *health.Checker, apiKey, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		registry:   registry,
		dispatcher: dispatcher,
		card:       cardProvider,
		health:     checker,
		apiKey:     apiKey,
		version:    version,
		log:        logger.With("component", "api"),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))
	r.Use(corsMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "MapGrid A2A Server",
			"version": s.version,
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		if !s.health.IsHealthy() {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{
			"healthy": s.health.IsHealthy(),
			"checks":  s.health.Statuses(),
		})
	})

	// Capability discovery is the one unauthenticated protocol route.
	r.Get("/agent-card", s.handleAgentCard)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/tasks", s.handleCreateTask)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Put("/tasks/{id}/execute", s.handleExecuteTask)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.card.Card())
}

// createTaskRequest is the POST /tasks body. output_format is optional;
// an empty value negotiates to the task type's default.
type createTaskRequest struct {
	Type         domain.TaskType `json:"type"`
	Input        domain.Payload  `json:"input"`
	OutputFormat domain.Format   `json:"output_format,omitempty"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := s.registry.Create(r.Context(), req.Type, req.Input, req.OutputFormat)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleExecuteTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.dispatcher.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a core bug surfaced as a generic server error.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	default:
		s.log.Error("internal error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Middleware ─────────────────────────────────────────────────────────────

// requireAPIKey checks the shared secret in constant time.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(card.AuthHeader)
		if presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(s.apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds permissive CORS headers for cross-origin agents.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+card.AuthHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
