package nowcast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epimodels/nowcast/epiweek"
	"github.com/epimodels/nowcast/models"
)

func TestChooseWindow(t *testing.T) {
	// 0.1 beats the initial 0.0, 0.05 does not beat 0.1, 0.3 beats 0.1,
	// 0.25 does not beat 0.3.
	assert.Equal(t, 2, chooseWindow([]float64{0.1, 0.05, 0.3, 0.25}))

	// Ties never move the selection.
	assert.Equal(t, 0, chooseWindow([]float64{0.2, 0.2, 0.2}))

	// Nothing beats zero: window 0 is the default-safe choice.
	assert.Equal(t, 0, chooseWindow([]float64{-0.5, 0.0, -0.1}))

	// NaN scores never win.
	assert.Equal(t, 1, chooseWindow([]float64{math.NaN(), 0.4, math.NaN()}))

	assert.Equal(t, 0, chooseWindow(nil))
}

func TestPredictEndToEnd(t *testing.T) {
	// Two locations, one group, linear ground truth final = 2*reported.
	// Training seasons feed the window sweep; the target week's point
	// prediction must recover 2*x for the target week.
	store := linearStore([]int{2013, 2014, 2015, 2016}, []string{"TX", "CA"}, []int{1})
	fillSeason(store, 2017, "TX", 1)
	fillSeason(store, 2017, "CA", 1)

	target := epiweek.New(2017, 45)
	pred, err := Predict(store, target, [][]string{{"TX", "CA"}}, [][]int{{1}}, 2, ModePrev, models.KindLinear)
	require.NoError(t, err)

	// Week 45 is the sixth week of the season.
	want := 2 * seasonValue(5)
	for _, location := range []string{"TX", "CA"} {
		key := PairKey{Location: location, Group: 1}
		point, ok := pred.Point[key]
		require.True(t, ok, location)
		assert.InDelta(t, want, point, 1e-3)

		_, ok = pred.Upper[key]
		assert.True(t, ok)
		_, ok = pred.Lower[key]
		assert.True(t, ok)
	}
}

func TestPredictWindowCappedBySeasonStart(t *testing.T) {
	store := linearStore([]int{2013, 2014, 2015, 2016}, []string{"TX"}, []int{1})
	fillSeason(store, 2017, "TX", 1)

	// Week 41 is one week into the season, so only windows 0 and 1 are
	// reachable no matter how large maxWindow is.
	target := epiweek.New(2017, 41)
	pred, err := Predict(store, target, [][]string{{"TX"}}, [][]int{{1}}, 10, ModePrev, models.KindLinear)
	require.NoError(t, err)

	key := PairKey{Location: "TX", Group: 1}
	point, ok := pred.Point[key]
	require.True(t, ok)
	assert.InDelta(t, 2*seasonValue(1), point, 1e-3)
}

func TestPredictSkipsPairsWithoutTargetData(t *testing.T) {
	store := linearStore([]int{2013, 2014, 2015, 2016}, []string{"TX", "CA"}, []int{1})
	fillSeason(store, 2017, "TX", 1)
	// CA has training history but no data in the target season.

	target := epiweek.New(2017, 45)
	pred, err := Predict(store, target, [][]string{{"TX", "CA"}}, [][]int{{1}}, 1, ModePrev, models.KindLinear)
	require.NoError(t, err)

	_, ok := pred.Point[PairKey{Location: "TX", Group: 1}]
	assert.True(t, ok)
	_, ok = pred.Point[PairKey{Location: "CA", Group: 1}]
	assert.False(t, ok)
}

func TestFlattenGrid(t *testing.T) {
	g := makeGrid(2, 2)
	g[0][0] = []float64{1, 2}
	g[0][1] = []float64{3}
	g[1][1] = []float64{4, 5}

	assert.Equal(t, []float64{1, 2, 3, 4, 5}, flattenGrid(g))
}
