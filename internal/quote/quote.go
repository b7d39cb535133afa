// Package quote prices tours from the catalog snapshot.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/passiotour/tourpricing/internal/catalog"
	"github.com/passiotour/tourpricing/internal/seasons"
	"github.com/passiotour/tourpricing/internal/telemetry"
)

// MaxCalendarDays bounds a single Calendar call.
const MaxCalendarDays = 366

var (
	ErrTourNotFound  = errors.New("tour not found")
	ErrInvalidRange  = errors.New("calendar start must not be after its end")
	ErrRangeTooLarge = fmt.Errorf("calendar range exceeds %d days", MaxCalendarDays)
)

// Source provides the current catalog snapshot.
type Source interface {
	Load() *catalog.Snapshot
}

// Result is the price of one tour on one day.
type Result struct {
	TourID    string          `json:"tour_id"`
	TourName  string          `json:"tour_name"`
	Currency  string          `json:"currency"`
	Date      time.Time       `json:"date"`
	BasePrice decimal.Decimal `json:"base_price"`
	seasons.Quote
}

// Quoter computes quotes. It is safe for concurrent use.
type Quoter struct {
	source Source
	logger *zap.Logger
}

// New creates a Quoter reading from source.
func New(source Source, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{source: source, logger: logger}
}

// Quote prices tourID on the calendar date of date.
func (q *Quoter) Quote(ctx context.Context, tourID string, date time.Time) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tour, ok := q.source.Load().Tour(tourID)
	if !ok {
		telemetry.PriceQuotes.WithLabelValues("not_found").Inc()
		return nil, ErrTourNotFound
	}

	res := price(tour, tour.Rules(), date)
	q.logger.Debug("quote computed",
		zap.String("tour_id", tourID),
		zap.String("date", seasons.FormatDate(date)),
		zap.String("adjusted_price", res.AdjustedPrice.String()),
		zap.Int("applied_seasons", len(res.AppliedSeasons)))
	return &res, nil
}

// Calendar prices tourID for every day from from to to, both included.
// Every day is priced against the same snapshot.
func (q *Quoter) Calendar(ctx context.Context, tourID string, from, to time.Time) ([]Result, error) {
	from, to = seasons.DateOf(from), seasons.DateOf(to)
	if from.After(to) {
		return nil, ErrInvalidRange
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxCalendarDays {
		return nil, ErrRangeTooLarge
	}

	tour, ok := q.source.Load().Tour(tourID)
	if !ok {
		telemetry.PriceQuotes.WithLabelValues("not_found").Inc()
		return nil, ErrTourNotFound
	}

	rules := tour.Rules()
	results := make([]Result, 0, days)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, price(tour, rules, day))
	}

	q.logger.Debug("calendar computed",
		zap.String("tour_id", tourID),
		zap.String("from", seasons.FormatDate(from)),
		zap.String("to", seasons.FormatDate(to)),
		zap.Int("days", len(results)))
	return results, nil
}

func price(tour catalog.TourView, rules []seasons.Rule, date time.Time) Result {
	quote := seasons.CalculatePrice(tour.BasePrice, date, rules)
	telemetry.PriceQuotes.WithLabelValues("ok").Inc()
	telemetry.AppliedSeasons.Observe(float64(len(quote.AppliedSeasons)))
	return Result{
		TourID:    tour.ID,
		TourName:  tour.Name,
		Currency:  tour.Currency,
		Date:      seasons.DateOf(date),
		BasePrice: tour.BasePrice,
		Quote:     quote,
	}
}
