package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/passiotour/tourpricing/internal/audit"
	"github.com/passiotour/tourpricing/internal/seasons"
	"github.com/passiotour/tourpricing/internal/store"
	"github.com/passiotour/tourpricing/internal/validation"
)

type listSeasonsResponse struct {
	TourID  string           `json:"tour_id"`
	Seasons []SeasonResponse `json:"seasons"`
}

func (s *Server) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	if !s.tourExists(w, r, tourID) {
		return
	}

	list, err := s.store.ListSeasons(r.Context(), tourID)
	if err != nil {
		InternalError(w, r, "Failed to list seasons")
		return
	}
	resp := listSeasonsResponse{TourID: tourID, Seasons: make([]SeasonResponse, 0, len(list))}
	for _, season := range list {
		resp.Seasons = append(resp.Seasons, toSeasonResponse(season))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSeason(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")

	params, ok := s.decodeSeason(w, r, true)
	if !ok {
		return
	}
	params.TourID = tourID

	created, err := s.store.CreateSeason(r.Context(), params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "Tour not found")
			return
		}
		InternalError(w, r, "Failed to create season")
		return
	}

	event := audit.NewEventBuilder(r).
		ForResource(audit.ResourceTypeSeason, created.ID).
		WithAction(audit.ActionCreated).
		WithTour(tourID).
		WithAfterState(audit.ToMap(toSeasonResponse(*created))).
		Build()
	if err := s.afterMutation(r, event); err != nil {
		InternalError(w, r, "Catalog rebuild failed")
		return
	}

	writeJSON(w, http.StatusCreated, toSeasonResponse(*created))
}

func (s *Server) handleUpdateSeason(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	seasonID := chi.URLParam(r, "seasonID")

	before, ok := s.seasonOfTour(w, r, tourID, seasonID)
	if !ok {
		return
	}

	params, ok := s.decodeSeason(w, r, false)
	if !ok {
		return
	}

	updated, err := s.store.UpdateSeason(r.Context(), seasonID, params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "Season not found")
			return
		}
		InternalError(w, r, "Failed to update season")
		return
	}

	event := audit.NewEventBuilder(r).
		ForResource(audit.ResourceTypeSeason, seasonID).
		WithAction(audit.ActionUpdated).
		WithTour(tourID).
		WithBeforeState(audit.ToMap(toSeasonResponse(*before))).
		WithAfterState(audit.ToMap(toSeasonResponse(*updated))).
		Build()
	if err := s.afterMutation(r, event); err != nil {
		InternalError(w, r, "Catalog rebuild failed")
		return
	}

	writeJSON(w, http.StatusOK, toSeasonResponse(*updated))
}

func (s *Server) handleDeleteSeason(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	seasonID := chi.URLParam(r, "seasonID")

	before, err := s.store.GetSeason(r.Context(), seasonID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Idempotent: nothing to delete
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		InternalError(w, r, "Failed to load season")
		return
	case before.TourID != tourID:
		NotFoundError(w, r, "Season not found")
		return
	}

	if err := s.store.DeleteSeason(r.Context(), seasonID); err != nil {
		InternalError(w, r, "Failed to delete season")
		return
	}

	event := audit.NewEventBuilder(r).
		ForResource(audit.ResourceTypeSeason, seasonID).
		WithAction(audit.ActionDeleted).
		WithTour(tourID).
		WithBeforeState(audit.ToMap(toSeasonResponse(*before))).
		Build()
	if err := s.afterMutation(r, event); err != nil {
		InternalError(w, r, "Catalog rebuild failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeSeason reads and validates a season body. Field problems are
// reported under "fields"; rule violations under "errors", in order. The
// end date is only required to be in the future when creating.
func (s *Server) decodeSeason(w http.ResponseWriter, r *http.Request, creating bool) (store.SeasonParams, bool) {
	var req SeasonRequest
	if !decodeJSON(w, r, &req, "expected fields 'name', 'start_date', 'end_date', 'price_modifier' and optional 'is_active'") {
		return store.SeasonParams{}, false
	}

	fields := validation.ValidateSeason(validation.SeasonInput{
		Name:          req.Name,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		PriceModifier: req.PriceModifier,
	})
	if !fields.Valid {
		ValidationError(w, r, "Validation failed for one or more fields", fields.Errors)
		return store.SeasonParams{}, false
	}

	validate := s.validator.ValidateUpdateStrings
	if creating {
		validate = s.validator.ValidateStrings
	}
	result := validate(req.StartDate, req.EndDate, *req.PriceModifier)
	if !result.IsValid {
		RuleViolationError(w, r, result.Errors)
		return store.SeasonParams{}, false
	}

	// both dates parsed cleanly above
	start, _ := seasons.ParseDate(req.StartDate)
	end, _ := seasons.ParseDate(req.EndDate)
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return store.SeasonParams{
		Name:          req.Name,
		StartDate:     seasons.DateOf(start),
		EndDate:       seasons.DateOf(end),
		PriceModifier: *req.PriceModifier,
		IsActive:      active,
	}, true
}

func (s *Server) tourExists(w http.ResponseWriter, r *http.Request, tourID string) bool {
	if _, err := s.store.GetTour(r.Context(), tourID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "Tour not found")
			return false
		}
		InternalError(w, r, "Failed to load tour")
		return false
	}
	return true
}

// seasonOfTour loads a season and checks it belongs to tourID.
func (s *Server) seasonOfTour(w http.ResponseWriter, r *http.Request, tourID, seasonID string) (*store.Season, bool) {
	season, err := s.store.GetSeason(r.Context(), seasonID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "Season not found")
			return nil, false
		}
		InternalError(w, r, "Failed to load season")
		return nil, false
	}
	if season.TourID != tourID {
		NotFoundError(w, r, "Season not found")
		return nil, false
	}
	return season, true
}
