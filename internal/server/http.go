package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alfredjeanlab/datedvalues/internal/model"
	"github.com/alfredjeanlab/datedvalues/internal/store"
	dvsync "github.com/alfredjeanlab/datedvalues/internal/sync"
)

// NewHTTPHandler returns an http.Handler with all routes and middleware
// registered. Every route except GET /v1/health requires editor access.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/settings", s.handleSettings)
	mux.HandleFunc("GET /v1/export", s.handleExport)

	mux.HandleFunc("POST /v1/types", s.handleCreateType)
	mux.HandleFunc("GET /v1/types", s.handleListTypes)
	mux.HandleFunc("GET /v1/types/{id}", s.handleGetType)
	mux.HandleFunc("PATCH /v1/types/{id}", s.handleUpdateType)
	mux.HandleFunc("DELETE /v1/types/{id}", s.handleDeleteType)

	mux.HandleFunc("POST /v1/values", s.handleCreateValue)
	mux.HandleFunc("GET /v1/values", s.handleListValues)
	mux.HandleFunc("GET /v1/values/{id}", s.handleGetValue)
	mux.HandleFunc("PATCH /v1/values/{id}", s.handleUpdateValue)
	mux.HandleFunc("DELETE /v1/values/{id}", s.handleDeleteValue)

	mux.HandleFunc("GET /v1/objects/{kind}/{id}/values", s.handleGetEditor)
	mux.HandleFunc("POST /v1/objects/{kind}/{id}/values", s.handleSaveEditor)

	root := http.NewServeMux()
	root.HandleFunc("GET /v1/health", s.handleHealth)
	root.Handle("/", RequireAccess(s.opts.Access, s.opts.LoginURL, mux))

	var h http.Handler = root
	h = LoggingMiddleware(s.logger, h)
	h = IdentityMiddleware(s.opts.AuthToken, s.opts.TrustProxyHeaders, h)
	h = RecoveryMiddleware(s.logger, h)
	h = RequestIDMiddleware(h)
	return h
}

type healthResponse struct {
	Status string         `json:"status"`
	Sync   *dvsync.Status `json:"sync,omitempty"`
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.opts.SyncStatus != nil {
		st := s.opts.SyncStatus()
		resp.Sync = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSettings handles GET /v1/settings.
func (s *Server) handleSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"displayed_items": s.settings.DisplayedItems,
		"date_format":     s.settings.DateFormat,
		"max_days":        s.settings.MaxDays,
		"access_mode":     s.settings.Access.Mode,
	})
}

// handleExport handles GET /v1/export by streaming a JSONL backup.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	if err := dvsync.ExportJSONL(r.Context(), s.store, w); err != nil {
		// Headers are already sent; the truncated stream is all we can signal.
		s.logger.Error("export failed", "err", err)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeValidationError writes field errors as a 400 response.
func writeValidationError(w http.ResponseWriter, ve *model.ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  ve.Error(),
		"errors": ve.Errors,
	})
}

// writeStoreError maps a store error onto a response: missing rows are 404,
// uniqueness conflicts 409, anything else 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, what string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeValidationError(w, ve)
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, what+" not found")
	case store.IsUniqueViolation(err):
		writeError(w, http.StatusConflict, what+" already exists")
	default:
		s.logger.Error("store error", "what", what, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to access "+what)
	}
}
