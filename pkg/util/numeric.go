package util

import (
	"math"
	"math/cmplx"

	"golang.org/x/exp/constraints"
)

// CleanZero snaps values within eps of zero to an exact zero, which also
// removes negative zeros from printed output.
func CleanZero[T constraints.Float](v, eps T) T {
	if v < eps && v > -eps {
		return 0
	}
	return v
}

// Sum adds real or complex values.
func Sum[T constraints.Float | constraints.Complex](values ...T) T {
	var total T
	for _, v := range values {
		total += v
	}
	return total
}

// Close reports whether a and b agree to within tol relative to the larger
// magnitude, falling back to an absolute tolerance near zero.
func Close(a, b complex128, tol float64) bool {
	scale := math.Max(1, math.Max(cmplx.Abs(a), cmplx.Abs(b)))
	return cmplx.Abs(a-b) <= tol*scale
}
