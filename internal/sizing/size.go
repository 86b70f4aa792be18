// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import "math"

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// ToInt64 converts a uint64 to int64, returning overflowErr if it doesn't fit.
func ToInt64(size uint64, overflowErr error) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, overflowErr
	}
	return int64(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// Align rounds pos up to the next multiple of n. n must be a power of two.
// A position that is already aligned is returned unchanged.
func Align(pos, n int64) int64 {
	return pos + (n-pos%n)%n
}

// Align16 rounds pos up to the next multiple of 16.
func Align16(pos int64) int64 {
	return Align(pos, 16)
}

// Align4 rounds pos up to the next multiple of 4.
func Align4(pos int64) int64 {
	return Align(pos, 4)
}
