// Package stats pools the aggregate statistics of two batches without access
// to their per-run data.
//
// The float64 conversions around products keep the compiler from fusing
// them into multiply-adds, so pooled values are identical on every platform.
package stats

import (
	"errors"
	"fmt"
	"math"
)

// ErrZeroCount is returned when the pooled population would be empty.
var ErrZeroCount = errors.New("total count is 0")

func total(n1, n2 int) (int, error) {
	if n1 < 0 || n2 < 0 {
		return 0, fmt.Errorf("negative count (%d, %d)", n1, n2)
	}
	n := n1 + n2
	if n == 0 {
		return 0, ErrZeroCount
	}
	return n, nil
}

// CombineMean returns the mean of the union of two samples.
func CombineMean(m1 float64, n1 int, m2 float64, n2 int) (float64, error) {
	n, err := total(n1, n2)
	if err != nil {
		return 0, fmt.Errorf("combining means: %w", err)
	}
	return (float64(float64(n1)*m1) + float64(float64(n2)*m2)) / float64(n), nil
}

// CombineStd returns the unbiased standard deviation of the union of two
// samples, from each sample's mean, unbiased standard deviation and size.
// A single observation has no spread: the result is 0 when n1+n2 == 1.
func CombineStd(m1, s1 float64, n1 int, m2, s2 float64, n2 int) (float64, error) {
	n, err := total(n1, n2)
	if err != nil {
		return 0, fmt.Errorf("combining standard deviations: %w", err)
	}
	if n == 1 {
		return 0, nil
	}

	m, err := CombineMean(m1, n1, m2, n2)
	if err != nil {
		return 0, err
	}
	// Within-batch sums of squares, then the between-batch term. An empty
	// batch contributes nothing.
	d1, d2 := m1-m, m2-m
	num := float64(float64(max(n1-1, 0))*(s1*s1)) +
		float64(float64(max(n2-1, 0))*(s2*s2)) +
		float64(float64(n1)*(d1*d1)) +
		float64(float64(n2)*(d2*d2))
	return math.Sqrt(num / float64(n-1)), nil
}

// CombineSuccessRate returns the success rate of the union of two batches.
func CombineSuccessRate(r1 float64, n1 int, r2 float64, n2 int) (float64, error) {
	n, err := total(n1, n2)
	if err != nil {
		return 0, fmt.Errorf("combining success rates: %w", err)
	}
	return (float64(r1*float64(n1)) + float64(r2*float64(n2))) / float64(n), nil
}
