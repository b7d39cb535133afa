package api

import (
	"github.com/shopspring/decimal"

	"github.com/passiotour/tourpricing/internal/quote"
	"github.com/passiotour/tourpricing/internal/seasons"
	"github.com/passiotour/tourpricing/internal/store"
)

// TourRequest is the body of PUT /v1/tours/{tourID}.
type TourRequest struct {
	Name      string           `json:"name"`
	BasePrice *decimal.Decimal `json:"base_price"`
	Currency  string           `json:"currency"`
}

// SeasonRequest is the body of season create and update calls. Dates are
// YYYY-MM-DD; IsActive defaults to true.
type SeasonRequest struct {
	Name          string   `json:"name"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	PriceModifier *float64 `json:"price_modifier"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

// ValidateSeasonRequest is the body of POST /v1/seasons/validate.
type ValidateSeasonRequest struct {
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	PriceModifier float64 `json:"price_modifier"`
}

// SeasonResponse is a stored season with calendar dates.
type SeasonResponse struct {
	ID            string  `json:"id"`
	TourID        string  `json:"tour_id"`
	Name          string  `json:"name"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	PriceModifier float64 `json:"price_modifier"`
	IsActive      bool    `json:"is_active"`
	Position      int     `json:"position"`
}

func toSeasonResponse(s store.Season) SeasonResponse {
	return SeasonResponse{
		ID:            s.ID,
		TourID:        s.TourID,
		Name:          s.Name,
		StartDate:     seasons.FormatDate(s.StartDate),
		EndDate:       seasons.FormatDate(s.EndDate),
		PriceModifier: s.PriceModifier,
		IsActive:      s.IsActive,
		Position:      s.Position,
	}
}

// AppliedSeason is one season's contribution to a quote.
type AppliedSeason struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	PriceModifier float64         `json:"price_modifier"`
	Amount        decimal.Decimal `json:"amount"`
}

// QuoteResponse is the price of one tour on one day.
type QuoteResponse struct {
	TourID         string          `json:"tour_id"`
	TourName       string          `json:"tour_name"`
	Date           string          `json:"date"`
	Currency       string          `json:"currency"`
	BasePrice      decimal.Decimal `json:"base_price"`
	AdjustedPrice  decimal.Decimal `json:"adjusted_price"`
	AppliedSeasons []AppliedSeason `json:"applied_seasons"`
}

func toQuoteResponse(res quote.Result) QuoteResponse {
	applied := make([]AppliedSeason, 0, len(res.Adjustments))
	for _, adj := range res.Adjustments {
		applied = append(applied, AppliedSeason{
			ID:            adj.Season.ID,
			Name:          adj.Season.Name,
			StartDate:     seasons.FormatDate(adj.Season.StartDate),
			EndDate:       seasons.FormatDate(adj.Season.EndDate),
			PriceModifier: adj.Season.PriceModifier,
			Amount:        adj.Amount,
		})
	}
	return QuoteResponse{
		TourID:         res.TourID,
		TourName:       res.TourName,
		Date:           seasons.FormatDate(res.Date),
		Currency:       res.Currency,
		BasePrice:      res.BasePrice,
		AdjustedPrice:  res.AdjustedPrice,
		AppliedSeasons: applied,
	}
}

// CalendarDay is one row of a price calendar.
type CalendarDay struct {
	Date           string          `json:"date"`
	AdjustedPrice  decimal.Decimal `json:"adjusted_price"`
	AppliedSeasons []string        `json:"applied_seasons"`
}

// CalendarResponse lists a tour's price for every day of a range.
type CalendarResponse struct {
	TourID    string          `json:"tour_id"`
	Currency  string          `json:"currency"`
	BasePrice decimal.Decimal `json:"base_price"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Days      []CalendarDay   `json:"days"`
}

func toCalendarResponse(tourID string, results []quote.Result) CalendarResponse {
	resp := CalendarResponse{TourID: tourID, Days: make([]CalendarDay, 0, len(results))}
	for _, res := range results {
		names := make([]string, 0, len(res.AppliedSeasons))
		for _, s := range res.AppliedSeasons {
			names = append(names, s.Name)
		}
		resp.Days = append(resp.Days, CalendarDay{
			Date:           seasons.FormatDate(res.Date),
			AdjustedPrice:  res.AdjustedPrice,
			AppliedSeasons: names,
		})
	}
	if len(results) > 0 {
		resp.Currency = results[0].Currency
		resp.BasePrice = results[0].BasePrice
		resp.From = resp.Days[0].Date
		resp.To = resp.Days[len(resp.Days)-1].Date
	}
	return resp
}
