package validation

import (
	"strings"
	"testing"
)

func validTour() TourInput {
	return TourInput{ID: "lisbon-walk", Name: "Lisbon Walking Tour", BasePrice: "49.90", Currency: "EUR"}
}

func TestValidateTour(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*TourInput)
		wantValid   bool
		wantField   string
		wantMessage string
	}{
		{
			name:      "valid tour",
			mutate:    func(*TourInput) {},
			wantValid: true,
		},
		{
			name:      "lowercase currency is normalised",
			mutate:    func(in *TourInput) { in.Currency = "eur" },
			wantValid: true,
		},
		{
			name:      "zero price allowed",
			mutate:    func(in *TourInput) { in.BasePrice = "0" },
			wantValid: true,
		},
		{
			name:        "missing id",
			mutate:      func(in *TourInput) { in.ID = "  " },
			wantField:   "id",
			wantMessage: "ID is required",
		},
		{
			name:        "id too long",
			mutate:      func(in *TourInput) { in.ID = strings.Repeat("a", 65) },
			wantField:   "id",
			wantMessage: "ID must not exceed 64 characters",
		},
		{
			name:        "id with slash",
			mutate:      func(in *TourInput) { in.ID = "lisbon/walk" },
			wantField:   "id",
			wantMessage: "ID must contain only alphanumeric characters, underscores, and hyphens",
		},
		{
			name:        "missing name",
			mutate:      func(in *TourInput) { in.Name = "" },
			wantField:   "name",
			wantMessage: "Name is required",
		},
		{
			name:        "negative price",
			mutate:      func(in *TourInput) { in.BasePrice = "-1" },
			wantField:   "base_price",
			wantMessage: "Base price must be a non-negative decimal number",
		},
		{
			name:        "non numeric price",
			mutate:      func(in *TourInput) { in.BasePrice = "ten" },
			wantField:   "base_price",
			wantMessage: "Base price must be a non-negative decimal number",
		},
		{
			name:        "unknown currency",
			mutate:      func(in *TourInput) { in.Currency = "XYZ" },
			wantField:   "currency",
			wantMessage: "Currency must be a 3-letter ISO 4217 code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validTour()
			tt.mutate(&in)
			result := ValidateTour(in)

			if result.Valid != tt.wantValid {
				t.Fatalf("Expected valid=%v, got %v (errors: %v)", tt.wantValid, result.Valid, result.Errors)
			}
			if !tt.wantValid {
				if got := result.Errors[tt.wantField]; got != tt.wantMessage {
					t.Errorf("Expected %s error %q, got %q", tt.wantField, tt.wantMessage, got)
				}
			}
		})
	}
}

func TestValidateTour_MultipleErrors(t *testing.T) {
	result := ValidateTour(TourInput{})

	if result.Valid {
		t.Fatal("Expected invalid result")
	}
	for _, field := range []string{"id", "name", "base_price", "currency"} {
		if _, ok := result.Errors[field]; !ok {
			t.Errorf("Expected error for %s", field)
		}
	}
	// only the first failing tag is reported
	if result.Errors["id"] != "ID is required" {
		t.Errorf("Expected required message for id, got %q", result.Errors["id"])
	}
}

func TestValidateSeason(t *testing.T) {
	modifier := 20.0
	valid := ValidateSeason(SeasonInput{Name: "High Season", StartDate: "2026-06-01", EndDate: "2026-08-31", PriceModifier: &modifier})
	if !valid.Valid {
		t.Errorf("Expected valid season, got %v", valid.Errors)
	}

	invalid := ValidateSeason(SeasonInput{Name: strings.Repeat("x", 101)})
	if invalid.Valid {
		t.Fatal("Expected invalid season")
	}
	expected := map[string]string{
		"name":           "Name must not exceed 100 characters",
		"start_date":     "Start date is required",
		"end_date":       "End date is required",
		"price_modifier": "Price modifier is required",
	}
	for field, msg := range expected {
		if invalid.Errors[field] != msg {
			t.Errorf("Expected %s error %q, got %q", field, msg, invalid.Errors[field])
		}
	}
}

func TestValidateID(t *testing.T) {
	if r := ValidateID("porto_food-2"); !r.Valid {
		t.Errorf("Expected valid id, got %v", r.Errors)
	}
	if r := ValidateID("porto food"); r.Valid {
		t.Error("Expected id with space to be invalid")
	}
}
