package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// linearData builds n samples of y = 2x + intercept with a single
// feature.
func linearData(n int, intercept float64) (*mat.Dense, []float64) {
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i + 1)
		X.Set(i, 0, x)
		y[i] = 2*x + intercept
	}
	return X, y
}

func TestParseKind(t *testing.T) {
	for _, tag := range []string{"lin", "ridge", "gbdt", "quant_lin", "quant_ridge", "quant_gbdt"} {
		k, err := ParseKind(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, tag, k.String())
	}

	_, err := ParseKind("svm")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTrainReturnsThreeEstimators(t *testing.T) {
	X, y := linearData(30, 1.0)
	for _, tag := range []string{"lin", "ridge", "gbdt", "quant_lin", "quant_ridge", "quant_gbdt"} {
		kind, err := ParseKind(tag)
		require.NoError(t, err)

		upper, mid, lower, err := Train(X, y, kind)
		require.NoError(t, err, tag)
		require.NotNil(t, upper, tag)
		require.NotNil(t, mid, tag)
		require.NotNil(t, lower, tag)

		// Deterministic families predict identically on repeated calls.
		x := []float64{7.5}
		for _, m := range []Regressor{upper, mid, lower} {
			first := m.Predict(x)
			assert.Equal(t, first, m.Predict(x), tag)
			assert.False(t, math.IsNaN(first), tag)
		}
	}
}

func TestTrainEmptyInput(t *testing.T) {
	_, _, _, err := Train(nil, nil, KindLinear)
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)

	_, _, _, err = Train(mat.NewDense(1, 1, []float64{1}), nil, KindLinear)
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)
}

func TestTrainDimensionMismatch(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	_, _, _, err := Train(X, []float64{1, 2}, KindLinear)
	assert.Error(t, err)
}

func TestLinearRecoversExactRelationship(t *testing.T) {
	X, y := linearData(20, 3.0)
	_, mid, _, err := Train(X, y, KindLinear)
	require.NoError(t, err)

	// Residuals are zero, so the mid model is exact everywhere.
	assert.InDelta(t, 2*50.0+3.0, mid.Predict([]float64{50}), 1e-6)
}

func TestLinearBandsBracketNoisyData(t *testing.T) {
	// y = 2x plus a deterministic asymmetric wobble; the residual-shift
	// bands must straddle the mid prediction.
	n := 40
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i + 1)
		X.Set(i, 0, x)
		wobble := 0.5 * math.Sin(float64(i))
		y[i] = 2*x + wobble
	}

	upper, mid, lower, err := Train(X, y, KindLinear)
	require.NoError(t, err)

	x := []float64{10}
	assert.Greater(t, upper.Predict(x), mid.Predict(x))
	assert.Less(t, lower.Predict(x), mid.Predict(x))
}

func TestRidgeShrinksTowardZero(t *testing.T) {
	X, y := linearData(20, 0.0)
	_, lin, _, err := Train(X, y, KindLinear)
	require.NoError(t, err)
	_, ridge, _, err := Train(X, y, KindRidge)
	require.NoError(t, err)

	linSlope := lin.Predict([]float64{2}) - lin.Predict([]float64{1})
	ridgeSlope := ridge.Predict([]float64{2}) - ridge.Predict([]float64{1})
	assert.Less(t, math.Abs(ridgeSlope), math.Abs(linSlope)+1e-12)
	assert.InDelta(t, linSlope, ridgeSlope, 0.1)
}

func TestQuantLinearRecoversConditionalMedian(t *testing.T) {
	X, y := linearData(30, 0.0)
	_, mid, _, err := Train(X, y, KindQuantLinear)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, mid.Predict([]float64{10}), 0.05)
}

func TestCotrainedBandsOrdered(t *testing.T) {
	// Symmetric deterministic noise around y = x: the 0.9 and 0.1
	// pinball fits should order around the median fit at interior
	// points.
	n := 60
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i%20) + 1
		X.Set(i, 0, x)
		y[i] = x + []float64{-1, 0, 1}[i%3]
	}

	upper, mid, lower, err := Train(X, y, KindQuantRidge)
	require.NoError(t, err)

	x := []float64{10}
	assert.GreaterOrEqual(t, upper.Predict(x), mid.Predict(x)-0.05)
	assert.GreaterOrEqual(t, mid.Predict(x), lower.Predict(x)-0.05)
}

func TestGBTFitsStepStructure(t *testing.T) {
	// A step function is exactly representable by stumps.
	n := 40
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		if i < n/2 {
			y[i] = 1.0
		} else {
			y[i] = 5.0
		}
	}

	_, mid, _, err := Train(X, y, KindGBT)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mid.Predict([]float64{5}), 0.1)
	assert.InDelta(t, 5.0, mid.Predict([]float64{35}), 0.1)
}

func TestEmpiricalQuantile(t *testing.T) {
	samples := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, empiricalQuantile(samples, 0))
	assert.Equal(t, 4.0, empiricalQuantile(samples, 1))
	assert.InDelta(t, 2.5, empiricalQuantile(samples, 0.5), 1e-12)
	assert.InDelta(t, 1.75, empiricalQuantile(samples, 0.25), 1e-12)
	assert.True(t, math.IsNaN(empiricalQuantile(nil, 0.5)))
}

func TestLstsqSingularFallsBackToSVD(t *testing.T) {
	// Duplicate columns make A'A singular; the minimum-norm solution
	// still reproduces the targets.
	A := mat.NewDense(4, 3, []float64{
		1, 1, 1,
		1, 2, 2,
		1, 3, 3,
		1, 4, 4,
	})
	y := []float64{2, 4, 6, 8}
	beta, err := lstsq(A, y, 0)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		got := beta[0]*A.At(i, 0) + beta[1]*A.At(i, 1) + beta[2]*A.At(i, 2)
		assert.InDelta(t, y[i], got, 1e-8)
	}
}
