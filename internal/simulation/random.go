package simulation

import (
	"fmt"
	"math/rand"
)

// RandomSeries generates the per-node random numbers for a graph of n
// nodes. With maxVal < 0 or maxVal == n-1 it returns the consecutive
// numbers 0..n-1. With maxVal >= n it returns a seeded sample of n
// distinct values from [0, maxVal). Any smaller maxVal cannot cover the
// graph and is rejected.
func RandomSeries(n, maxVal, seed int) ([]int, error) {
	if maxVal < 0 || maxVal == n-1 {
		return consecutive(n), nil
	}
	if maxVal >= n {
		r := rand.New(rand.NewSource(int64(seed)))
		return r.Perm(maxVal)[:n], nil
	}
	return nil, fmt.Errorf("max value %d is smaller than the graph size %d", maxVal, n)
}

func consecutive(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
