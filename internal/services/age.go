package services

import "time"

// MonthDuration is the long-run average month (2.628e9 ms), which folds leap
// years in rather than following calendar boundaries.
const MonthDuration = 2628000000 * time.Millisecond

// Qualifies reports whether something last modified elapsed ago is at least
// ageMonths old. Callers validate ageMonths > 0 beforehand.
func Qualifies(elapsed time.Duration, ageMonths float64) bool {
	return float64(elapsed) >= ageMonths*float64(MonthDuration)
}
