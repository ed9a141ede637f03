package utils

import (
	"strconv"
)

// F64ToS converts float to string using the maximum accuracy
func F64ToS(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CeilDiv returns the smallest integer n such that n*step >= length (step > 0)
// A tolerance absorbs floating point noise, so that an exact multiple is not rounded up.
func CeilDiv(length, step float64) int {
	q := length / step
	n := int(q)
	if q-float64(n) > 1e-9 {
		n++
	}
	return n
}
