package seasons

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// IsDateInSeason reports whether date falls within the rule's range, both
// ends included. Only calendar dates are compared. A zero time on either
// side never matches. IsActive is ignored.
func IsDateInSeason(date time.Time, rule Rule) bool {
	if date.IsZero() || rule.StartDate.IsZero() || rule.EndDate.IsZero() {
		return false
	}
	d := DateOf(date)
	return !d.Before(DateOf(rule.StartDate)) && !d.After(DateOf(rule.EndDate))
}

// ActiveSeasons returns the active rules containing date, in input order.
func ActiveSeasons(date time.Time, rules []Rule) []Rule {
	active := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.IsActive && IsDateInSeason(date, rule) {
			active = append(active, rule)
		}
	}
	return active
}

// CalculatePrice adds base * modifier / 100 for every active season
// containing date. Each adjustment uses the original base price, so
// overlapping seasons add up rather than compound. The result is not
// clamped and may be zero or negative.
func CalculatePrice(basePrice decimal.Decimal, date time.Time, rules []Rule) Quote {
	applied := ActiveSeasons(date, rules)
	quote := Quote{
		AdjustedPrice:  basePrice,
		AppliedSeasons: applied,
		Adjustments:    make([]Adjustment, 0, len(applied)),
	}

	for _, rule := range applied {
		amount := Adjust(basePrice, rule.PriceModifier)
		quote.AdjustedPrice = quote.AdjustedPrice.Add(amount)
		quote.Adjustments = append(quote.Adjustments, Adjustment{Season: rule, Amount: amount})
	}

	return quote
}

// Adjust returns the amount a modifier percentage adds to base.
func Adjust(base decimal.Decimal, modifier float64) decimal.Decimal {
	return base.Mul(decimal.NewFromFloat(modifier)).Div(hundred)
}
