package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// IRLS iteration controls for the pinball-loss solves.
const (
	irlsMaxIter = 60
	irlsTol     = 1e-7
	irlsEps     = 1e-6
)

// quantLinear is a linear quantile regressor fit by iteratively
// reweighted least squares on the pinball loss, optionally ridge
// penalized.
type quantLinear struct {
	tau    float64
	lambda float64

	beta []float64
}

func newQuantLinear(tau, lambda float64) *quantLinear {
	return &quantLinear{tau: tau, lambda: lambda}
}

func (m *quantLinear) Fit(X *mat.Dense, y []float64) error {
	if X == nil || len(y) == 0 {
		return ErrEmptyTrainingSet
	}
	A := withIntercept(X)
	seed, err := lstsq(A, y, m.lambda)
	if err != nil {
		return fmt.Errorf("quantile seed fit: %w", err)
	}
	return m.irls(A, y, seed)
}

// irls runs the reweighted solve from the given starting coefficients.
func (m *quantLinear) irls(A *mat.Dense, y []float64, seed []float64) error {
	n, cols := A.Dims()
	beta := make([]float64, cols)
	copy(beta, seed)
	w := make([]float64, n)

	for iter := 0; iter < irlsMaxIter; iter++ {
		for i := 0; i < n; i++ {
			r := y[i]
			for j := 0; j < cols; j++ {
				r -= beta[j] * A.At(i, j)
			}
			q := m.tau
			if r < 0 {
				q = 1 - m.tau
			}
			w[i] = q / math.Max(math.Abs(r), irlsEps)
		}
		next, err := weightedLstsq(A, y, w, m.lambda)
		if err != nil {
			return fmt.Errorf("quantile reweighted solve: %w", err)
		}
		delta := 0.0
		for j := range next {
			delta = math.Max(delta, math.Abs(next[j]-beta[j]))
		}
		beta = next
		if delta < irlsTol {
			break
		}
	}
	m.beta = beta
	return nil
}

func (m *quantLinear) Predict(x []float64) float64 {
	return dot(m.beta, x)
}

// cotrainFit fits a quantile-linear triple jointly: the central model is
// solved first and its coefficients seed the upper and lower IRLS solves,
// so the band estimators start from the central residual structure.
func cotrainFit(upper, mid, lower *quantLinear, X *mat.Dense, y []float64) error {
	if X == nil || len(y) == 0 {
		return ErrEmptyTrainingSet
	}
	if err := mid.Fit(X, y); err != nil {
		return err
	}
	A := withIntercept(X)
	if err := upper.irls(A, y, mid.beta); err != nil {
		return err
	}
	return lower.irls(A, y, mid.beta)
}
