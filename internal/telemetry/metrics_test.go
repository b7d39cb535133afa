package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	Init()
	Init() // second call must not panic

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/tours/{tourID}/quote", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/tours/{tourID}/quote", "GET", "418"))

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tours/"+id+"/quote", nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("Expected status 418, got %d", rec.Code)
		}
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/tours/{tourID}/quote", "GET", "418"))
	if after-before != 2 {
		t.Errorf("Expected 2 requests counted under the route pattern, got %v", after-before)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	Init()
	CatalogTours.Set(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "catalog_tours 3") {
		t.Error("Expected catalog_tours gauge in output")
	}
}
