package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/passiotour/tourpricing/internal/quote"
	"github.com/passiotour/tourpricing/internal/seasons"
)

// handleValidateSeason checks a season definition without storing it. The
// result is returned with status 200 whether or not the rule is valid.
func (s *Server) handleValidateSeason(w http.ResponseWriter, r *http.Request) {
	var req ValidateSeasonRequest
	if !decodeJSON(w, r, &req, "expected fields 'start_date', 'end_date' and 'price_modifier'") {
		return
	}
	writeJSON(w, http.StatusOK, s.validator.ValidateStrings(req.StartDate, req.EndDate, req.PriceModifier))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	date, ok := dateParam(r, "date", s.clock.Now())
	if !ok {
		BadRequestErrorWithFields(w, r, ErrCodeInvalidDate, "Invalid date", map[string]string{
			"date": "Use YYYY-MM-DD",
		})
		return
	}

	res, err := s.quoter.Quote(r.Context(), tourID, date)
	if err != nil {
		s.quoteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(*res))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	today := seasons.DateOf(s.clock.Now())

	fields := make(map[string]string)
	from, ok := dateParam(r, "from", today)
	if !ok {
		fields["from"] = "Use YYYY-MM-DD"
	}
	to, ok := dateParam(r, "to", from.AddDate(0, 0, 29))
	if !ok {
		fields["to"] = "Use YYYY-MM-DD"
	}
	if len(fields) > 0 {
		BadRequestErrorWithFields(w, r, ErrCodeInvalidDate, "Invalid date", fields)
		return
	}

	results, err := s.quoter.Calendar(r.Context(), tourID, from, to)
	if err != nil {
		s.quoteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalendarResponse(tourID, results))
}

func (s *Server) quoteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quote.ErrTourNotFound):
		NotFoundError(w, r, "Tour not found")
	case errors.Is(err, quote.ErrInvalidRange), errors.Is(err, quote.ErrRangeTooLarge):
		BadRequestError(w, r, ErrCodeInvalidRange, err.Error())
	default:
		InternalError(w, r, "Failed to compute quote")
	}
}
