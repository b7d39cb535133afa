package seasons

import "time"

// Validation messages, in the order they are reported.
const (
	MsgStartAfterEnd    = "Start date must be before end date"
	MsgEndInPast        = "End date cannot be in the past"
	MsgModifierTooLow   = "Price modifier cannot be less than -50%"
	MsgModifierTooHigh  = "Price modifier cannot be greater than 200%"
	MsgInvalidStartDate = "Invalid start date"
	MsgInvalidEndDate   = "Invalid end date"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Validator checks rule definitions at creation time. The zero value uses
// the system clock.
type Validator struct {
	clock Clock
}

// NewValidator returns a Validator reading time from clock. A nil clock means
// the system clock.
func NewValidator(clock Clock) *Validator {
	return &Validator{clock: clock}
}

func (v *Validator) now() time.Time {
	if v == nil || v.clock == nil {
		return time.Now()
	}
	return v.clock.Now()
}

// Validate reports every violation instead of stopping at the first one.
func (v *Validator) Validate(start, end time.Time, priceModifier float64) ValidationResult {
	result := ValidationResult{IsValid: true, Errors: []string{}}

	if !start.Before(end) {
		result.add(MsgStartAfterEnd)
	}
	if end.Before(v.now()) {
		result.add(MsgEndInPast)
	}
	checkModifier(&result, priceModifier)

	return result
}

// ValidateStrings parses both dates with ParseDate and validates them as a
// new season. Comparisons that need an unparsable date are skipped; the
// modifier is always checked.
func (v *Validator) ValidateStrings(start, end string, priceModifier float64) ValidationResult {
	return v.validateStrings(start, end, priceModifier, true)
}

// ValidateUpdateStrings validates a change to a stored season. It runs every
// check of ValidateStrings except the end date one, so a season that already
// ended can still be renamed, corrected or deactivated.
func (v *Validator) ValidateUpdateStrings(start, end string, priceModifier float64) ValidationResult {
	return v.validateStrings(start, end, priceModifier, false)
}

func (v *Validator) validateStrings(start, end string, priceModifier float64, creating bool) ValidationResult {
	result := ValidationResult{IsValid: true, Errors: []string{}}

	startDate, startErr := ParseDate(start)
	if startErr != nil {
		result.add(MsgInvalidStartDate)
	}
	endDate, endErr := ParseDate(end)
	if endErr != nil {
		result.add(MsgInvalidEndDate)
	}

	if startErr == nil && endErr == nil && !startDate.Before(endDate) {
		result.add(MsgStartAfterEnd)
	}
	if creating && endErr == nil && endDate.Before(v.now()) {
		result.add(MsgEndInPast)
	}
	checkModifier(&result, priceModifier)

	return result
}

// ValidateRule checks the date order and modifier bounds of a rule that may
// already be stored. It never reads the clock.
func (v *Validator) ValidateRule(r Rule) ValidationResult {
	result := ValidationResult{IsValid: true, Errors: []string{}}
	if !r.StartDate.Before(r.EndDate) {
		result.add(MsgStartAfterEnd)
	}
	checkModifier(&result, r.PriceModifier)
	return result
}

func checkModifier(result *ValidationResult, priceModifier float64) {
	if priceModifier < MinPriceModifier {
		result.add(MsgModifierTooLow)
	}
	if priceModifier > MaxPriceModifier {
		result.add(MsgModifierTooHigh)
	}
}
