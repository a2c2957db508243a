package models

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// withIntercept returns A = [1 | X], the design matrix with a leading
// intercept column.
func withIntercept(X *mat.Dense) *mat.Dense {
	n, m := X.Dims()
	A := mat.NewDense(n, m+1, nil)
	for i := 0; i < n; i++ {
		A.Set(i, 0, 1.0)
		for j := 0; j < m; j++ {
			A.Set(i, j+1, X.At(i, j))
		}
	}
	return A
}

// lstsq solves min ||A beta - y||^2 (+ lambda ||beta||^2 over non-intercept
// coefficients). It first tries the normal equations; when A'A is singular
// or badly conditioned it falls back to an SVD minimum-norm solution.
func lstsq(A *mat.Dense, y []float64, lambda float64) ([]float64, error) {
	n, m := A.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("lstsq: %d rows vs %d targets", n, len(y))
	}
	yMat := mat.NewDense(n, 1, nil)
	for i, v := range y {
		yMat.Set(i, 0, v)
	}

	var ata mat.Dense
	ata.Mul(A.T(), A)
	if lambda > 0 {
		// Do not penalize the intercept.
		for j := 1; j < m; j++ {
			ata.Set(j, j, ata.At(j, j)+lambda)
		}
	}

	var inv mat.Dense
	if errInv := inv.Inverse(&ata); errInv == nil {
		var aty, b mat.Dense
		aty.Mul(A.T(), yMat)
		b.Mul(&inv, &aty)
		beta := make([]float64, m)
		for j := 0; j < m; j++ {
			beta[j] = b.At(j, 0)
		}
		return beta, nil
	} else {
		// A'A is singular or badly conditioned: SVD-based minimum-norm
		// least squares, same fallback order as the normal path.
		var svd mat.SVD
		if !svd.Factorize(A, mat.SVDFullU|mat.SVDFullV) {
			return nil, fmt.Errorf("lstsq: A'A singular and SVD factorization failed: %v", errInv)
		}
		rank := svd.Rank(1e-12)
		beta := make([]float64, m)
		if rank == 0 {
			// Numerically all-zero design: minimum-norm solution is zero.
			return beta, nil
		}
		var b mat.Dense
		svd.SolveTo(&b, yMat, rank)
		for j := 0; j < m; j++ {
			beta[j] = b.At(j, 0)
		}
		return beta, nil
	}
}

// weightedLstsq solves the weighted problem by scaling rows of A and y by
// sqrt(w) and delegating to lstsq.
func weightedLstsq(A *mat.Dense, y, w []float64, lambda float64) ([]float64, error) {
	n, m := A.Dims()
	Aw := mat.NewDense(n, m, nil)
	yw := make([]float64, n)
	for i := 0; i < n; i++ {
		s := math.Sqrt(w[i])
		yw[i] = y[i] * s
		for j := 0; j < m; j++ {
			Aw.Set(i, j, A.At(i, j)*s)
		}
	}
	return lstsq(Aw, yw, lambda)
}

// dot evaluates beta[0] + beta[1:] . x.
func dot(beta, x []float64) float64 {
	v := beta[0]
	for j, xv := range x {
		v += beta[j+1] * xv
	}
	return v
}

// empiricalQuantile returns the q-quantile of samples using linear
// interpolation between order statistics.
func empiricalQuantile(samples []float64, q float64) float64 {
	n := len(samples)
	if n == 0 {
		return math.NaN()
	}
	tmp := make([]float64, n)
	copy(tmp, samples)
	sort.Float64s(tmp)

	if q <= 0 {
		return tmp[0]
	}
	if q >= 1 {
		return tmp[n-1]
	}
	pos := q * float64(n-1)
	below := int(math.Floor(pos))
	above := int(math.Ceil(pos))
	if below == above {
		return tmp[below]
	}
	weight := pos - float64(below)
	return tmp[below]*(1.0-weight) + tmp[above]*weight
}
