package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/passiotour/tourpricing/internal/audit"
	"github.com/passiotour/tourpricing/internal/store"
	"github.com/passiotour/tourpricing/internal/validation"
)

type listToursResponse struct {
	Tours []store.Tour `json:"tours"`
}

func (s *Server) handleListTours(w http.ResponseWriter, r *http.Request) {
	tours, err := s.store.ListTours(r.Context())
	if err != nil {
		InternalError(w, r, "Failed to list tours")
		return
	}
	writeJSON(w, http.StatusOK, listToursResponse{Tours: tours})
}

func (s *Server) handleGetTour(w http.ResponseWriter, r *http.Request) {
	tour, err := s.store.GetTour(r.Context(), chi.URLParam(r, "tourID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "Tour not found")
			return
		}
		InternalError(w, r, "Failed to load tour")
		return
	}
	writeJSON(w, http.StatusOK, tour)
}

func (s *Server) handleUpsertTour(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")

	var req TourRequest
	if !decodeJSON(w, r, &req, "expected fields 'name', 'base_price' and optional 'currency'") {
		return
	}
	if strings.TrimSpace(req.Currency) == "" {
		req.Currency = s.defaultCurrency
	}

	in := validation.TourInput{ID: tourID, Name: req.Name, Currency: req.Currency}
	if req.BasePrice != nil {
		in.BasePrice = req.BasePrice.String()
	}
	if result := validation.ValidateTour(in); !result.Valid {
		ValidationError(w, r, "Validation failed for one or more fields", result.Errors)
		return
	}

	before, err := s.store.GetTour(r.Context(), tourID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		InternalError(w, r, "Failed to load tour")
		return
	}

	tour, err := s.store.UpsertTour(r.Context(), store.TourParams{
		ID:        strings.TrimSpace(tourID),
		Name:      strings.TrimSpace(req.Name),
		BasePrice: *req.BasePrice,
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
	})
	if err != nil {
		InternalError(w, r, "Failed to save tour")
		return
	}

	action := audit.ActionUpdated
	var beforeState map[string]any
	if before == nil {
		action = audit.ActionCreated
	} else {
		beforeState = audit.ToMap(before)
	}
	event := audit.NewEventBuilder(r).
		ForResource(audit.ResourceTypeTour, tour.ID).
		WithAction(action).
		WithTour(tour.ID).
		WithBeforeState(beforeState).
		WithAfterState(audit.ToMap(tour)).
		Build()
	if err := s.afterMutation(r, event); err != nil {
		InternalError(w, r, "Catalog rebuild failed")
		return
	}

	status := http.StatusOK
	if before == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, tour)
}

func (s *Server) handleDeleteTour(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")

	before, err := s.store.GetTour(r.Context(), tourID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		InternalError(w, r, "Failed to load tour")
		return
	}

	// Idempotent: deleting an unknown tour succeeds
	if err := s.store.DeleteTour(r.Context(), tourID); err != nil {
		InternalError(w, r, "Failed to delete tour")
		return
	}

	if before != nil {
		event := audit.NewEventBuilder(r).
			ForResource(audit.ResourceTypeTour, tourID).
			WithAction(audit.ActionDeleted).
			WithTour(tourID).
			WithBeforeState(audit.ToMap(before)).
			Build()
		if err := s.afterMutation(r, event); err != nil {
			InternalError(w, r, "Catalog rebuild failed")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
