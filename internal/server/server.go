// Package server adapts the core facade to HTTP. Handlers are thin: they
// decode, call the facade, and encode; all semantics live in core.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/bk25/internal/config"
	"github.com/nextlevelbuilder/bk25/internal/core"
)

// Server is the HTTP transport over a Core.
type Server struct {
	core *core.Core
	http *http.Server
}

// New builds the server on the configured address.
func New(c *core.Core, cfg config.ServerConfig) *Server {
	s := &Server{core: c}
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/personas", s.handleListPersonas)
	mux.HandleFunc("GET /api/personas/current", s.handleCurrentPersona)
	mux.HandleFunc("POST /api/personas/switch", s.handleSwitchPersona)
	mux.HandleFunc("POST /api/personas", s.handleCreatePersona)
	mux.HandleFunc("POST /api/personas/reload", s.handleReloadPersonas)

	mux.HandleFunc("GET /api/channels", s.handleListChannels)
	mux.HandleFunc("GET /api/channels/current", s.handleCurrentChannel)
	mux.HandleFunc("POST /api/channels/switch", s.handleSwitchChannel)
	mux.HandleFunc("POST /api/artifacts", s.handleGenerateArtifact)

	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/scripts/improve", s.handleImprove)
	mux.HandleFunc("POST /api/scripts/validate", s.handleValidate)
	mux.HandleFunc("GET /api/platforms", s.handlePlatforms)
	mux.HandleFunc("GET /api/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /api/llm/status", s.handleLLMStatus)

	mux.HandleFunc("POST /api/execute", s.handleExecute)
	mux.HandleFunc("POST /api/tasks", s.handleSubmitTask)
	mux.HandleFunc("GET /api/tasks", s.handleTaskHistory)
	mux.HandleFunc("GET /api/tasks/running", s.handleRunningTasks)
	mux.HandleFunc("GET /api/tasks/statistics", s.handleTaskStatistics)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleTaskStatus)
	mux.HandleFunc("GET /api/tasks/{id}/metrics", s.handleTaskMetrics)
	mux.HandleFunc("POST /api/tasks/{id}/cancel", s.handleTaskSignal("cancel"))
	mux.HandleFunc("POST /api/tasks/{id}/pause", s.handleTaskSignal("pause"))
	mux.HandleFunc("POST /api/tasks/{id}/resume", s.handleTaskSignal("resume"))

	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", s.handleDeleteConversation)

	mux.HandleFunc("GET /api/stats", s.handleStats)

	return logRequests(mux)
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	slog.Info("server.listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("http.request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("http.encode_failed", "error", err)
	}
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(code core.Code) int {
	switch code {
	case core.CodeInvalidInput:
		return http.StatusBadRequest
	case core.CodeNotFound:
		return http.StatusNotFound
	case core.CodePolicyViolation:
		return http.StatusForbidden
	case core.CodeLLMUnavailable:
		return http.StatusServiceUnavailable
	case core.CodeTimeout:
		return http.StatusGatewayTimeout
	case core.CodeCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := core.CodeOf(err)
	writeJSON(w, statusFor(code), map[string]string{
		"error":   string(code),
		"message": core.MessageOf(err),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, core.E(core.CodeInvalidInput, "invalid request body: %v", err))
		return false
	}
	return true
}
