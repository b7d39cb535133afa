package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter, r *http.Request)
		wantStatus int
		wantCode   ErrorCode
	}{
		{"validation", func(w http.ResponseWriter, r *http.Request) {
			ValidationError(w, r, "Validation failed", map[string]string{"currency": "bad"})
		}, http.StatusBadRequest, ErrCodeValidation},
		{"rule violation", func(w http.ResponseWriter, r *http.Request) {
			RuleViolationError(w, r, []string{"x"})
		}, http.StatusBadRequest, ErrCodeValidation},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON")
		}, http.StatusBadRequest, ErrCodeInvalidJSON},
		{"invalid date", func(w http.ResponseWriter, r *http.Request) {
			BadRequestErrorWithFields(w, r, ErrCodeInvalidDate, "Invalid date", map[string]string{"date": "bad"})
		}, http.StatusBadRequest, ErrCodeInvalidDate},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			UnauthorizedError(w, r, "Missing authentication")
		}, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"forbidden via authError", func(w http.ResponseWriter, r *http.Request) {
			authError(w, r, http.StatusForbidden, "Insufficient permissions")
		}, http.StatusForbidden, ErrCodeForbidden},
		{"unauthorized via authError", func(w http.ResponseWriter, r *http.Request) {
			authError(w, r, http.StatusUnauthorized, "Invalid key")
		}, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			NotFoundError(w, r, "Tour not found")
		}, http.StatusNotFound, ErrCodeNotFound},
		{"too large", func(w http.ResponseWriter, r *http.Request) {
			RequestTooLargeError(w, r, "Request body exceeds limit")
		}, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge},
		{"rate limited", RateLimitedError, http.StatusTooManyRequests, ErrCodeRateLimited},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			InternalError(w, r, "Catalog rebuild failed")
		}, http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.write(rr, httptest.NewRequest(http.MethodGet, "/v1/tours/douro", nil))

			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %q", ct)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, resp.Code)
			}
			if resp.Error != http.StatusText(tt.wantStatus) {
				t.Errorf("Expected error %q, got %q", http.StatusText(tt.wantStatus), resp.Error)
			}
		})
	}
}

func TestErrorResponse_CarriesRequestID(t *testing.T) {
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError(w, r, "Season not found")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/tours/douro/seasons/x", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.RequestID != "req-42" {
		t.Errorf("Expected request id req-42, got %q", resp.RequestID)
	}
}

func TestRuleViolationError_KeepsOrder(t *testing.T) {
	want := []string{"Start date must be before end date", "End date cannot be in the past"}
	rr := httptest.NewRecorder()
	RuleViolationError(rr, httptest.NewRequest(http.MethodPost, "/v1/seasons/validate", nil), want)

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Errors) != len(want) {
		t.Fatalf("Expected %d errors, got %v", len(want), resp.Errors)
	}
	for i := range want {
		if resp.Errors[i] != want[i] {
			t.Errorf("Error %d: expected %q, got %q", i, want[i], resp.Errors[i])
		}
	}
	if resp.Fields != nil {
		t.Errorf("Expected no field errors, got %v", resp.Fields)
	}
}
