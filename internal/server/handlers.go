package server

import (
	"context"
	"net/http"
	"time"

	"github.com/noot-app/fct-api/internal/query"
	"github.com/noot-app/fct-api/internal/response"
	"github.com/noot-app/fct-api/internal/version"
)

// HealthResponse represents the liveness and readiness response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// handleFoods handles GET /v1/foods
func (s *Server) handleFoods(w http.ResponseWriter, r *http.Request) {
	params, err := query.ParseParams(r.URL.Query(), s.engine.Limits())
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	foods, total, err := s.engine.Search(r.Context(), params)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}
	searchMatches.Observe(float64(total))

	s.writeJSON(w, http.StatusOK, response.List(foods, total, params))
}

// handleFood handles GET /v1/foods/{id}
func (s *Server) handleFood(w http.ResponseWriter, r *http.Request) {
	food, err := s.engine.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response.Single(food))
}

// handleNutrients handles GET /v1/nutrients
func (s *Server) handleNutrients(w http.ResponseWriter, r *http.Request) {
	nutrients, err := s.engine.ListNutrients(r.Context())
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response.Collection(nutrients))
}

// handleCategories handles GET /v1/categories
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.engine.ListCategories(r.Context())
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response.Collection(categories))
}

// handleHealth reports liveness. It does not depend on the dataset.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: version.Tag()})
}

// handleReady reports whether a snapshot is installed
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.checkHealthWithCache(r.Context()); err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}

// checkHealthWithCache reuses a readiness result for ReadyCacheDuration so
// probes cannot hammer the engine
func (s *Server) checkHealthWithCache(ctx context.Context) error {
	s.healthMu.RLock()
	if time.Since(s.lastHealthCheck) < ReadyCacheDuration {
		err := s.lastHealthError
		s.healthMu.RUnlock()
		return err
	}
	s.healthMu.RUnlock()

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	// Double-check in case another goroutine updated while waiting for write lock
	if time.Since(s.lastHealthCheck) < ReadyCacheDuration {
		return s.lastHealthError
	}

	err := s.engine.HealthCheck(ctx)
	s.lastHealthCheck = time.Now()
	s.lastHealthError = err

	return err
}
