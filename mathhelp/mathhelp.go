package mathhelp

import (
	"math"

	"golang.org/x/exp/constraints"
)

func Pow2(n uint) uint {
	return 1 << n
}

// RoundPow2 rounds x to the nearest power of two in log space, so 3 becomes 4 and 2.8 becomes 2.
func RoundPow2(x float64) float64 {
	return math.Pow(2, math.Round(math.Log2(x)))
}

// IsPow2 reports whether x is an exact (positive, possibly fractional) power of two.
func IsPow2(x float64) bool {
	if x <= 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return false
	}
	frac, _ := math.Frexp(x)
	return frac == 0.5
}

// CeilLog2 is ceil(log2(x)) for x > 0.
func CeilLog2(x float64) int {
	return int(math.Ceil(math.Log2(x)))
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func EuclidianMod(d, m int) int {
	r := d % m
	if (r < 0 && m > 0) || (r > 0 && m < 0) {
		return r + m
	}
	return r
}

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
