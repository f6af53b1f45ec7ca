package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/nixgw/internal/logstore"
	"github.com/mattjoyce/nixgw/internal/nix"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		LogsStored:    s.store.Len(),
		Operations:    len(s.executor.Ops()),
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleOp handles POST /op/{name}. The request body is the operation's JSON
// argument object; an empty body means no arguments.
func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	opName := chi.URLParam(r, "name")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		s.writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	content, err := s.executor.Execute(r.Context(), opName, json.RawMessage(body))
	if err != nil {
		if errors.Is(err, nix.ErrUnknownOperation) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Malformed arguments and bad grep patterns are caller mistakes;
		// everything else is internal. The distinction only affects the
		// status code, the body shape is the same.
		status := http.StatusBadRequest
		if isInternal(err) {
			status = http.StatusInternalServerError
		}
		s.writeError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, OpResponse{Content: content})
}

// handleListOps handles GET /ops.
func (s *Server) handleListOps(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, OpsResponse{Operations: s.executor.Ops()})
}

// handleListLogs handles GET /logs.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	entries := s.store.Recent(logstore.DefaultRecentLimit)
	resp := LogListResponse{Logs: make([]LogSummary, 0, len(entries))}
	for _, e := range entries {
		resp.Logs = append(resp.Logs, LogSummary{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Command:   e.Command,
			ExitCode:  e.ExitCode,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleGetLog handles GET /logs/{logID}. Unlike the nix_get_log operation,
// this is a structured read-only view, so a missing id is a plain 404 here.
func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	logID := chi.URLParam(r, "logID")

	entry, ok := s.store.Get(logID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "log not found")
		return
	}

	respondJSON(w, http.StatusOK, LogDetailResponse{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		Command:   entry.Command,
		ExitCode:  entry.ExitCode,
		Stdout:    entry.Stdout,
		Stderr:    entry.Stderr,
	})
}

// isInternal classifies dispatcher errors: recovered panics are internal,
// decode/pattern errors are the caller's.
func isInternal(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "internal error")
}

// respondJSON is a helper to write JSON responses.
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, IsError: true})
}
