package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	mydb "github.com/passiotour/tourpricing/internal/db"
)

// newTestPostgresStore connects to TEST_DATABASE_DSN and skips the test
// when it is not set.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	pool, err := mydb.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE tours, seasons, api_keys CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	s := NewPostgresStore(pool)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresStore_TourAndSeasons(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	tour, err := s.UpsertTour(ctx, TourParams{ID: "porto-food", Name: "Porto Food Tour", BasePrice: decimal.RequireFromString("79.90"), Currency: "EUR"})
	if err != nil {
		t.Fatalf("UpsertTour failed: %v", err)
	}
	if !tour.BasePrice.Equal(decimal.RequireFromString("79.9")) {
		t.Errorf("Expected base price 79.90, got %s", tour.BasePrice)
	}

	first, err := s.CreateSeason(ctx, SeasonParams{
		TourID: "porto-food", Name: "High Season",
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		PriceModifier: 20, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateSeason failed: %v", err)
	}
	second, err := s.CreateSeason(ctx, SeasonParams{
		TourID: "porto-food", Name: "Holiday Season",
		StartDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		PriceModifier: 10, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateSeason failed: %v", err)
	}

	list, err := s.ListSeasons(ctx, "porto-food")
	if err != nil {
		t.Fatalf("ListSeasons failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("Expected seasons in creation order, got %+v", list)
	}

	if _, err := s.CreateSeason(ctx, SeasonParams{TourID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown tour, got %v", err)
	}

	if err := s.DeleteTour(ctx, "porto-food"); err != nil {
		t.Fatalf("DeleteTour failed: %v", err)
	}
	if _, err := s.GetSeason(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected cascade delete, got %v", err)
	}
}
