package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// pointLinear is a least-squares (optionally ridge-penalized) model of the
// conditional mean. Its quantile level selects an empirical residual
// quantile that is added to every prediction, so the upper and lower
// members of a triple become shifted copies of the mean fit.
type pointLinear struct {
	quantile float64
	lambda   float64

	beta  []float64
	shift float64
}

func newPointLinear(quantile, lambda float64) *pointLinear {
	return &pointLinear{quantile: quantile, lambda: lambda}
}

func (m *pointLinear) Fit(X *mat.Dense, y []float64) error {
	if X == nil || len(y) == 0 {
		return ErrEmptyTrainingSet
	}
	A := withIntercept(X)
	beta, err := lstsq(A, y, m.lambda)
	if err != nil {
		return fmt.Errorf("linear fit: %w", err)
	}
	m.beta = beta

	residuals := make([]float64, len(y))
	for i := range y {
		row := mat.Row(nil, i, X)
		residuals[i] = y[i] - dot(beta, row)
	}
	m.shift = empiricalQuantile(residuals, m.quantile)
	return nil
}

func (m *pointLinear) Predict(x []float64) float64 {
	return dot(m.beta, x) + m.shift
}
