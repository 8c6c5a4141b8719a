// Package xmath holds the integer helpers shared by the sizing code.
package xmath

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Clamp returns v clamped to the range [low, high].
func Clamp[T constraints.Ordered](v, low, high T) T {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// AlignUp rounds v up to a multiple of a. a must be non-zero.
func AlignUp[T constraints.Unsigned](v, a T) T {
	return (v + a - 1) / a * a
}

// DivRoundUp returns ceil(a / b).
func DivRoundUp[T constraints.Unsigned](a, b T) T {
	return (a + b - 1) / b
}

// SubSat returns a - b, or zero when b > a.
func SubSat[T constraints.Unsigned](a, b T) T {
	if b > a {
		return 0
	}
	return a - b
}

// Log2 returns floor(log2(v)); Log2(0) is 0.
func Log2(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return uint32(31 - bits.LeadingZeros32(v))
}

// Log2Ceil returns ceil(log2(v)); values up to 1 give 0.
func Log2Ceil(v uint32) uint32 {
	if v <= 1 {
		return 0
	}
	return uint32(32 - bits.LeadingZeros32(v-1))
}
