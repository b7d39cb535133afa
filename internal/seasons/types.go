// Package seasons evaluates seasonal pricing rules for a tour.
//
// A rule is a named calendar-date range with a signed percentage modifier.
// Every active rule whose range contains the priced date contributes
// base * modifier / 100 to the price; contributions are computed against the
// original base price and summed, never compounded.
//
// The evaluator functions trust their inputs. Use a Validator before storing
// rules if the bounds must be enforced.
package seasons

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MinPriceModifier is the lowest accepted percentage modifier.
	MinPriceModifier = -50.0
	// MaxPriceModifier is the highest accepted percentage modifier.
	MaxPriceModifier = 200.0
)

// Common season names. Rules may use any other label.
const (
	NameHighSeason     = "High Season"
	NameLowSeason      = "Low Season"
	NamePeakSeason     = "Peak Season"
	NameShoulderSeason = "Shoulder Season"
	NameHolidaySeason  = "Holiday Season"
)

// CommonNames lists the suggested season labels in display order.
var CommonNames = []string{
	NameHighSeason,
	NameLowSeason,
	NamePeakSeason,
	NameShoulderSeason,
	NameHolidaySeason,
}

// Rule is a seasonal pricing rule. Rules are values; the evaluator never
// modifies them.
type Rule struct {
	ID            string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string    `json:"name" yaml:"name"`
	StartDate     time.Time `json:"start_date" yaml:"start_date"`
	EndDate       time.Time `json:"end_date" yaml:"end_date"`
	PriceModifier float64   `json:"price_modifier" yaml:"price_modifier"`
	IsActive      bool      `json:"is_active" yaml:"is_active"`
}

// Adjustment is the amount one applied season added to the base price.
type Adjustment struct {
	Season Rule            `json:"season"`
	Amount decimal.Decimal `json:"amount"`
}

// Quote is the result of CalculatePrice.
type Quote struct {
	AdjustedPrice  decimal.Decimal `json:"adjusted_price"`
	AppliedSeasons []Rule          `json:"applied_seasons"`
	Adjustments    []Adjustment    `json:"adjustments"`
}

// ValidationResult lists every problem found with a rule definition.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

func (r *ValidationResult) add(msg string) {
	r.Errors = append(r.Errors, msg)
	r.IsValid = false
}
