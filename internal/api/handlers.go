package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ktane-tracker/tracker/internal/missions"
	"github.com/ktane-tracker/tracker/internal/models"
	"github.com/ktane-tracker/tracker/internal/tracker"
)

// Practice bomb size limits
const (
	MinBombSize = 1
	MaxBombSize = 200
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeBody decodes a JSON body onto v; an empty body leaves v untouched
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Catalog handlers

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := s.service.ListModules(r.Context())
	if err != nil {
		slog.Error("failed to list modules", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list modules")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"modules": modules,
		"total":   len(modules),
	})
}

// Mission handlers

func (s *Server) handleQueryMissions(w http.ResponseWriter, r *http.Request) {
	// Filter fields missing from the body keep their defaults. A sort object
	// replaces the default sort as a whole and its order defaults to asc.
	filters := missions.DefaultFilters(time.Now().Year())
	req := models.MissionQueryRequest{Filters: &filters}

	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := validateQuery(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if req.Sort == nil {
		sort := missions.DefaultSort
		req.Sort = &sort
	} else if req.Sort.Order == "" {
		req.Sort.Order = models.OrderAsc
	}

	s.queryMissions(w, r, req)
}

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	filters := missions.DefaultFilters(time.Now().Year())
	filters.ModuleSearch = r.URL.Query().Get("search")

	sort := missions.DefaultSort
	if key := r.URL.Query().Get("sort"); key != "" {
		sort = models.Sort{Key: models.SortKey(key), Order: models.OrderAsc}
	}
	if order := r.URL.Query().Get("order"); order != "" {
		sort.Order = models.SortOrder(order)
	}

	req := models.MissionQueryRequest{Filters: &filters, Sort: &sort}
	if err := validateQuery(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	s.queryMissions(w, r, req)
}

func (s *Server) queryMissions(w http.ResponseWriter, r *http.Request, req models.MissionQueryRequest) {
	result, err := s.service.QueryMissions(r.Context(), UserFromContext(r.Context()), req)
	if err != nil {
		if errors.Is(err, tracker.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user_not_found", err.Error())
			return
		}
		slog.Error("failed to query missions", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to query missions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"missions": result,
		"total":    len(result),
	})
}

// validateQuery rejects requests the mission browser could not have produced
func validateQuery(req *models.MissionQueryRequest) error {
	for _, m := range req.Team {
		if m.ID == "" {
			return errors.New("team member id is required")
		}
	}

	if req.Sort != nil {
		if !req.Sort.Key.Valid() {
			return fmt.Errorf("unknown sort key: %q", req.Sort.Key)
		}
		switch req.Sort.Order {
		case "", models.OrderAsc, models.OrderDesc:
		default:
			return fmt.Errorf("unknown sort order: %q", req.Sort.Order)
		}
	}

	if f := req.Filters; f != nil {
		ranges := map[string]models.Range{
			"difficulty_range":            f.DifficultyRange,
			"date_range":                  f.DateRange,
			"module_count_range":          f.ModuleCountRange,
			"possible_module_count_range": f.PossibleModuleCountRange,
			"known_percent_range":         f.KnownPercentRange,
		}
		for name, rng := range ranges {
			if rng.Min() > rng.Max() {
				return fmt.Errorf("%s: min exceeds max", name)
			}
		}

		switch f.FavesFilter {
		case "", models.FavesAll, models.FavesOnlyFaves, models.FavesNoFaves:
		default:
			return fmt.Errorf("unknown faves filter: %q", f.FavesFilter)
		}
	}

	return nil
}

// Practice handlers

func (s *Server) handleGeneratePractice(w http.ResponseWriter, r *http.Request) {
	var req models.PracticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.BombSize < MinBombSize || req.BombSize > MaxBombSize {
		respondError(w, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("bomb_size must be between %d and %d", MinBombSize, MaxBombSize))
		return
	}

	bomb, err := s.service.GeneratePractice(r.Context(), UserFromContext(r.Context()), req)
	if err != nil {
		slog.Error("failed to generate practice bomb", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to generate practice bomb")
		return
	}

	respondJSON(w, http.StatusOK, bomb)
}

// User handlers

func (s *Server) handleUserScores(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user id is required")
		return
	}

	scores, err := s.service.UserScores(r.Context(), id)
	if err != nil {
		if errors.Is(err, tracker.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		slog.Error("failed to get user scores", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get user scores")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scores": scores,
		"total":  len(scores),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, UserFromContext(r.Context()))
}
