// Package validation checks tour and season request fields before they reach
// the store. Seasonal business rules live in package seasons.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	// MaxIDLength is the maximum length for tour ids
	MaxIDLength = 64
	// MaxTourNameLength is the maximum length for tour names
	MaxTourNameLength = 200
	// MaxSeasonNameLength is the maximum length for season names
	MaxSeasonNameLength = 100
)

// idPattern matches alphanumeric characters, underscores, and hyphens
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("catalog_id", func(fl validator.FieldLevel) bool {
		return idPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	})
	return v
}

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// TourInput contains the parameters for validating a tour
type TourInput struct {
	ID        string `json:"id" validate:"required,max=64,catalog_id"`
	Name      string `json:"name" validate:"required,max=200"`
	BasePrice string `json:"base_price" validate:"required,price"`
	Currency  string `json:"currency" validate:"required,iso4217"`
}

// SeasonInput contains the parameters for validating a season's fields.
// Date ordering and modifier bounds are checked by seasons.Validator.
type SeasonInput struct {
	Name          string   `json:"name" validate:"required,max=100"`
	StartDate     string   `json:"start_date" validate:"required"`
	EndDate       string   `json:"end_date" validate:"required"`
	PriceModifier *float64 `json:"price_modifier" validate:"required"`
}

// ValidateTour validates all tour fields and returns a validation result
func ValidateTour(in TourInput) *ValidationResult {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	return check(in)
}

// ValidateSeason validates season fields and returns a validation result
func ValidateSeason(in SeasonInput) *ValidationResult {
	in.Name = strings.TrimSpace(in.Name)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)
	return check(in)
}

// ValidateID validates a tour id taken from a URL
func ValidateID(id string) *ValidationResult {
	result := NewValidationResult()
	if err := validate.Var(strings.TrimSpace(id), "required,max=64,catalog_id"); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result.AddError("id", message("id", fe))
			}
		}
	}
	return result
}

func check(in any) *ValidationResult {
	result := NewValidationResult()
	err := validate.Struct(in)
	if err == nil {
		return result
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		result.AddError("request", err.Error())
		return result
	}
	for _, fe := range fieldErrs {
		// first failing tag per field wins
		if _, seen := result.Errors[fe.Field()]; seen {
			continue
		}
		result.AddError(fe.Field(), message(fe.Field(), fe))
	}
	return result
}

var labels = map[string]string{
	"id":             "ID",
	"name":           "Name",
	"base_price":     "Base price",
	"currency":       "Currency",
	"start_date":     "Start date",
	"end_date":       "End date",
	"price_modifier": "Price modifier",
}

func message(field string, fe validator.FieldError) string {
	label, ok := labels[field]
	if !ok {
		label = field
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", label, fe.Param())
	case "catalog_id":
		return label + " must contain only alphanumeric characters, underscores, and hyphens"
	case "price":
		return label + " must be a non-negative decimal number"
	case "iso4217":
		return label + " must be a 3-letter ISO 4217 code"
	default:
		return fmt.Sprintf("%s failed %s validation", label, fe.Tag())
	}
}
