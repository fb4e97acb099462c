package utils

import (
	"fmt"
	"math"
)

// CheckMultiplyOverflow checks if multiplying two uint64 values would overflow.
// Returns an error if overflow would occur.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil // No overflow when either is zero
	}

	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}

	return nil
}

// SafeMultiply multiplies two uint64 values and returns the result if no overflow occurs.
// Returns 0 and an error if overflow would occur.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// MaxElements limits the number of elements held in memory for one variable.
const MaxElements = math.MaxInt32 * 4

// ElementCount returns the number of elements of an array with the given shape.
// An empty shape describes a scalar (one element).
func ElementCount(shape []int) (int, error) {
	total := uint64(1)
	for i, n := range shape {
		if n < 0 {
			return 0, fmt.Errorf("negative length %d at dimension %d", n, i)
		}
		var err error
		total, err = SafeMultiply(total, uint64(n))
		if err != nil {
			return 0, fmt.Errorf("element count overflow at dimension %d: %w", i, err)
		}
	}

	if total > MaxElements {
		return 0, fmt.Errorf("element count %d exceeds maximum %d", total, uint64(MaxElements))
	}

	return int(total), nil //nolint:gosec // G115: bounded by MaxElements above
}

// StackedShape returns shape with n prepended.
func StackedShape(n int, shape []int) []int {
	out := make([]int, 0, len(shape)+1)
	out = append(out, n)
	return append(out, shape...)
}
