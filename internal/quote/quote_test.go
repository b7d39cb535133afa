package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/passiotour/tourpricing/internal/catalog"
	"github.com/passiotour/tourpricing/internal/store"
)

type staticSource struct{ snap *catalog.Snapshot }

func (s staticSource) Load() *catalog.Snapshot { return s.snap }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestQuoter() *Quoter {
	tours := []store.Tour{{ID: "douro", Name: "Douro Valley", BasePrice: decimal.NewFromInt(100), Currency: "EUR"}}
	seasonsByTour := map[string][]store.Season{
		"douro": {
			{ID: "high", Name: "High Season", StartDate: day(2026, 6, 1), EndDate: day(2026, 8, 31), PriceModifier: 20, IsActive: true},
			{ID: "holiday", Name: "Holiday Season", StartDate: day(2026, 8, 1), EndDate: day(2026, 8, 15), PriceModifier: 10, IsActive: true},
			{ID: "off", Name: "Low Season", StartDate: day(2026, 1, 1), EndDate: day(2026, 12, 31), PriceModifier: -30, IsActive: false},
		},
	}
	return New(staticSource{catalog.Build(tours, seasonsByTour)}, nil)
}

func TestQuote(t *testing.T) {
	q := newTestQuoter()

	tests := []struct {
		name     string
		date     time.Time
		expected string
		applied  int
	}{
		{"no season", day(2026, 3, 10), "100", 0},
		{"high season", day(2026, 6, 1), "120", 1},
		{"overlap is additive", day(2026, 8, 10), "130", 2},
		{"last day inclusive", day(2026, 8, 31).Add(23 * time.Hour), "120", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := q.Quote(context.Background(), "douro", tt.date)
			if err != nil {
				t.Fatalf("Quote failed: %v", err)
			}
			if !res.AdjustedPrice.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("Expected price %s, got %s", tt.expected, res.AdjustedPrice)
			}
			if len(res.AppliedSeasons) != tt.applied {
				t.Errorf("Expected %d applied seasons, got %d", tt.applied, len(res.AppliedSeasons))
			}
			if res.Currency != "EUR" || res.TourName != "Douro Valley" {
				t.Errorf("Unexpected tour fields %+v", res)
			}
		})
	}
}

func TestQuote_UnknownTour(t *testing.T) {
	q := newTestQuoter()

	_, err := q.Quote(context.Background(), "nowhere", day(2026, 6, 1))
	if !errors.Is(err, ErrTourNotFound) {
		t.Errorf("Expected ErrTourNotFound, got %v", err)
	}
}

func TestCalendar(t *testing.T) {
	q := newTestQuoter()

	results, err := q.Calendar(context.Background(), "douro", day(2026, 5, 31), day(2026, 6, 2))
	if err != nil {
		t.Fatalf("Calendar failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(results))
	}

	expected := []string{"100", "120", "120"}
	for i, res := range results {
		if !res.AdjustedPrice.Equal(decimal.RequireFromString(expected[i])) {
			t.Errorf("Day %d: expected %s, got %s", i, expected[i], res.AdjustedPrice)
		}
	}
	if !results[0].Date.Equal(day(2026, 5, 31)) || !results[2].Date.Equal(day(2026, 6, 2)) {
		t.Errorf("Unexpected dates %v .. %v", results[0].Date, results[2].Date)
	}
}

func TestCalendar_Ranges(t *testing.T) {
	q := newTestQuoter()
	ctx := context.Background()

	if _, err := q.Calendar(ctx, "douro", day(2026, 6, 2), day(2026, 6, 1)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}
	if _, err := q.Calendar(ctx, "douro", day(2026, 1, 1), day(2027, 1, 2)); !errors.Is(err, ErrRangeTooLarge) {
		t.Errorf("Expected ErrRangeTooLarge, got %v", err)
	}

	results, err := q.Calendar(ctx, "douro", day(2026, 1, 1), day(2027, 1, 1))
	if err != nil {
		t.Fatalf("Expected a 366 day range to be accepted, got %v", err)
	}
	if len(results) != MaxCalendarDays {
		t.Errorf("Expected %d days, got %d", MaxCalendarDays, len(results))
	}

	single, err := q.Calendar(ctx, "douro", day(2026, 6, 1), day(2026, 6, 1))
	if err != nil || len(single) != 1 {
		t.Errorf("Expected one day, got %d (%v)", len(single), err)
	}

	if _, err := q.Calendar(ctx, "nowhere", day(2026, 6, 1), day(2026, 6, 1)); !errors.Is(err, ErrTourNotFound) {
		t.Errorf("Expected ErrTourNotFound, got %v", err)
	}
}

func TestCalendar_Cancelled(t *testing.T) {
	q := newTestQuoter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Calendar(ctx, "douro", day(2026, 6, 1), day(2026, 6, 30)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestQuote_Cancelled(t *testing.T) {
	q := newTestQuoter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Quote(ctx, "douro", day(2026, 7, 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
