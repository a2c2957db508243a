package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Boosting controls shared by both GBT families. Small and deterministic:
// no subsampling, thresholds drawn from observed feature values.
const (
	gbtTrees        = 100
	gbtLearningRate = 0.1
)

// stump is a single-split regression tree.
type stump struct {
	feature   int
	threshold float64
	left      float64
	right     float64
}

func (s *stump) eval(x []float64) float64 {
	if x[s.feature] <= s.threshold {
		return s.left
	}
	return s.right
}

// gbt boosts regression stumps. With squaredLoss the ensemble fits the
// conditional mean and quantile behavior comes from a residual shift,
// mirroring pointLinear; otherwise each stage fits the pinball-loss
// gradient and leaf values are empirical tau-quantiles of the residuals.
type gbt struct {
	tau         float64
	squaredLoss bool

	base   float64
	stumps []stump
	shift  float64
}

func newPointGBT(quantile float64) *gbt {
	return &gbt{tau: quantile, squaredLoss: true}
}

func newQuantGBT(tau float64) *gbt {
	return &gbt{tau: tau}
}

func (m *gbt) Fit(X *mat.Dense, y []float64) error {
	if X == nil || len(y) == 0 {
		return ErrEmptyTrainingSet
	}
	n, cols := X.Dims()

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = mat.Row(nil, i, X)
	}

	if m.squaredLoss {
		m.base = mean(y)
	} else {
		m.base = empiricalQuantile(y, m.tau)
	}
	m.stumps = m.stumps[:0]
	m.shift = 0

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = m.base
	}
	residual := make([]float64, n)

	for t := 0; t < gbtTrees; t++ {
		for i := 0; i < n; i++ {
			residual[i] = y[i] - pred[i]
		}
		s, ok := m.bestStump(rows, residual, cols)
		if !ok {
			break
		}
		m.stumps = append(m.stumps, s)
		for i := 0; i < n; i++ {
			pred[i] += gbtLearningRate * s.eval(rows[i])
		}
	}

	if m.squaredLoss {
		for i := 0; i < n; i++ {
			residual[i] = y[i] - pred[i]
		}
		m.shift = empiricalQuantile(residual, m.tau)
	}
	return nil
}

// bestStump scans every feature and every observed threshold for the
// split minimizing loss against the current residuals. Leaf values are
// means under squared loss and tau-quantiles under pinball loss.
func (m *gbt) bestStump(rows [][]float64, residual []float64, cols int) (stump, bool) {
	n := len(rows)
	best := stump{}
	bestLoss := math.Inf(1)
	found := false

	for j := 0; j < cols; j++ {
		for i := 0; i < n; i++ {
			thr := rows[i][j]
			var left, right []float64
			for k := 0; k < n; k++ {
				if rows[k][j] <= thr {
					left = append(left, residual[k])
				} else {
					right = append(right, residual[k])
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			lv, rv := m.leafValue(left), m.leafValue(right)
			loss := m.splitLoss(left, lv) + m.splitLoss(right, rv)
			if loss < bestLoss {
				bestLoss = loss
				best = stump{feature: j, threshold: thr, left: lv, right: rv}
				found = true
			}
		}
	}
	return best, found
}

func (m *gbt) leafValue(residuals []float64) float64 {
	if m.squaredLoss {
		return mean(residuals)
	}
	return empiricalQuantile(residuals, m.tau)
}

func (m *gbt) splitLoss(residuals []float64, leaf float64) float64 {
	loss := 0.0
	for _, r := range residuals {
		d := r - leaf
		if m.squaredLoss {
			loss += d * d
		} else {
			if d >= 0 {
				loss += m.tau * d
			} else {
				loss += (m.tau - 1) * d
			}
		}
	}
	return loss
}

func (m *gbt) Predict(x []float64) float64 {
	v := m.base
	for i := range m.stumps {
		v += gbtLearningRate * m.stumps[i].eval(x)
	}
	return v + m.shift
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}
