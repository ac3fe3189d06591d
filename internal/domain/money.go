package domain

import "math"

// Money is handled as integer cents everywhere in the engine so that
// aggregation is exact: the sum of per-category subtotals must equal the
// period total to the cent, with no float drift. Conversion to/from the
// JSON decimal representation happens only at the API boundary.

// CentsFromFloat converts a decimal amount (e.g. 12.34) to cents with
// half-up rounding on the fractional cent.
func CentsFromFloat(v float64) int64 {
	return int64(math.Floor(v*100 + 0.5))
}

// CentsToFloat converts cents back to a decimal amount for responses.
func CentsToFloat(c int64) float64 {
	return float64(c) / 100.0
}
