package mathutil

import "math"

// Round rounds x to the given number of decimal places. Exact ties go to the
// even digit, so 0.0625 becomes 0.062 at three places.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.RoundToEven(x*p) / p
}

// Clamp limits x to [lo, hi]
func Clamp(x, lo, hi float64) float64 {
	return min(max(x, lo), hi)
}
