package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_LevelFallback(t *testing.T) {
	logger, err := New(Config{Level: "chatty", Format: "json"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected unknown level to fall back to info")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected info level to be enabled")
	}
}

func TestNew_Console(t *testing.T) {
	logger, err := New(Config{Level: "debug", Format: "console", Development: true})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level to be enabled")
	}
}

func TestMiddleware_LogsRoutePattern(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, Middleware(logger))
	r.Get("/v1/tours/{tourID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/tours/lisbon-walk", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/v1/tours/{tourID}" {
		t.Errorf("Expected route pattern, got %v", fields["route"])
	}
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("Expected status 418, got %v", fields["status"])
	}
	if fields["request_id"] == "" {
		t.Error("Expected request id to be logged")
	}
}
