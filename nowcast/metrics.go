package nowcast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RSquared returns the explained-variance score of predictions against
// truth. Mismatched or empty inputs and zero-variance truth yield NaN
// rather than an error so a metric failure for one pair never aborts a
// sweep.
func RSquared(truth, pred []float64) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return math.NaN()
	}
	m := stat.Mean(truth, nil)
	ssTot, ssRes := 0.0, 0.0
	for i := range truth {
		dt := truth[i] - m
		dr := truth[i] - pred[i]
		ssTot += dt * dt
		ssRes += dr * dr
	}
	if ssTot == 0 {
		return math.NaN()
	}
	return 1 - ssRes/ssTot
}

// MSE returns the mean squared error of predictions against truth, or
// NaN for mismatched or empty inputs.
func MSE(truth, pred []float64) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return math.NaN()
	}
	s := 0.0
	for i := range truth {
		d := truth[i] - pred[i]
		s += d * d
	}
	return s / float64(len(truth))
}
