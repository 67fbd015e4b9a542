package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noot-app/fct-api/internal/query"
	"github.com/noot-app/fct-api/internal/response"
)

// writeJSON writes v as the response body with the given status
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error body carrying the request id
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message, param string) {
	s.writeJSON(w, status, response.Error(code, message, param, requestIDFrom(r.Context())))
}

// writeQueryError maps a query engine error to its status code. Only typed
// errors are inspected; anything else is a 500.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *query.InvalidParamError
	var notFound *query.NotFoundError

	switch {
	case errors.As(err, &invalid):
		s.writeError(w, r, http.StatusBadRequest, response.CodeInvalidParam, invalid.Error(), invalid.Param)
	case errors.As(err, &notFound):
		s.writeError(w, r, http.StatusNotFound, response.CodeNotFound, notFound.Error(), "")
	case errors.Is(err, query.ErrNotReady):
		w.Header().Set("Retry-After", RetryAfterSeconds)
		s.writeError(w, r, http.StatusServiceUnavailable, response.CodeNotReady, "dataset is still loading", "")
	default:
		s.log.Error("Request failed",
			"request_id", requestIDFrom(r.Context()),
			"path", r.URL.Path,
			"error", err)
		message := "internal error"
		if s.config.IsDevelopment() {
			// In development mode, return detailed error
			message = "internal error: " + err.Error()
		}
		s.writeError(w, r, http.StatusInternalServerError, response.CodeInternal, message, "")
	}
}
