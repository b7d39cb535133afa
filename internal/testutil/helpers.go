// Package testutil holds helpers shared by HTTP-level tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/passiotour/tourpricing/internal/api"
	"github.com/passiotour/tourpricing/internal/seasons"
	"github.com/passiotour/tourpricing/internal/store"
)

// Today is the fixed "now" of servers built by NewTestServer.
var Today = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

// NewTestServer creates a server over an in-memory store with its clock
// fixed at Today.
func NewTestServer(t *testing.T, adminKey string, opts ...api.Option) (*api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	opts = append([]api.Option{api.WithClock(seasons.FixedClock(Today))}, opts...)
	server := api.NewServer(memStore, adminKey, opts...)
	return server, memStore
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeasonSeed describes a season to insert with SeedTour.
type SeasonSeed struct {
	Name     string
	Start    string // YYYY-MM-DD
	End      string // YYYY-MM-DD
	Modifier float64
	Inactive bool
}

// SeedTour inserts a tour priced at basePrice and its seasons in order.
func SeedTour(ctx context.Context, st store.Store, id, basePrice string, list ...SeasonSeed) error {
	price, err := decimal.NewFromString(basePrice)
	if err != nil {
		return err
	}
	if _, err := st.UpsertTour(ctx, store.TourParams{ID: id, Name: "Tour " + id, BasePrice: price, Currency: "USD"}); err != nil {
		return err
	}
	for _, s := range list {
		start, err := seasons.ParseDate(s.Start)
		if err != nil {
			return err
		}
		end, err := seasons.ParseDate(s.End)
		if err != nil {
			return err
		}
		_, err = st.CreateSeason(ctx, store.SeasonParams{
			TourID:        id,
			Name:          s.Name,
			StartDate:     start,
			EndDate:       end,
			PriceModifier: s.Modifier,
			IsActive:      !s.Inactive,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
