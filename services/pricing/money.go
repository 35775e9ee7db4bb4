package pricing

import "math"

// Round2 rounds a monetary amount to two decimals using round-half-up at
// the cent. Every intermediate fare component is rounded before summation
// so repeated estimates are bit-identical and free of float drift.
func Round2(amount float64) float64 {
	return math.Floor(amount*100+0.5) / 100
}
