package nowcast

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/epimodels/nowcast/epiweek"
	"github.com/epimodels/nowcast/models"
)

// captureSink records everything the orchestrator emits.
type captureSink struct {
	plots    []string
	heatmaps map[string]*mat.Dense
	summary  []SummaryEntry
}

func newCaptureSink() *captureSink {
	return &captureSink{heatmaps: make(map[string]*mat.Dense)}
}

// chdirTemp switches to a fresh temp dir and restores the original working
// directory on cleanup; stand-in for t.Chdir, which needs Go 1.24.
func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func (s *captureSink) SeriesPlot(path string, _ PairSeries) error {
	s.plots = append(s.plots, path)
	return nil
}

func (s *captureSink) Heatmap(path, _ string, cells *mat.Dense) error {
	s.heatmaps[path] = mat.DenseCopyOf(cells)
	return nil
}

func (s *captureSink) Summary(_ string, entries []SummaryEntry) error {
	s.summary = append([]SummaryEntry(nil), entries...)
	return nil
}

func TestRunExperimentTriangularGrid(t *testing.T) {
	chdirTemp(t)

	store := linearStore([]int{2014, 2015, 2016, 2017}, []string{"TX"}, []int{1})
	sink := newCaptureSink()
	period := epiweek.NewPeriod(2017, 42, 46)
	maxWindow := 2

	err := RunExperiment(sink, store, [][]string{{"TX"}}, [][]int{{1}},
		[]epiweek.Period{period}, maxWindow, ModePrev, models.KindLinear)
	require.NoError(t, err)

	rsqPath := filepath.Join("nowcast", period.String(), "TX", "rsq_results_1.png")
	cells, ok := sink.heatmaps[rsqPath]
	require.True(t, ok, "rsq heatmap not emitted")

	for window := 0; window <= maxWindow; window++ {
		for backfill := 0; backfill <= maxWindow; backfill++ {
			v := cells.At(window, backfill)
			if backfill > window {
				// Outside the triangle the sentinel must survive.
				assert.True(t, math.IsInf(v, -1), "cell (%d,%d) = %v", window, backfill, v)
			} else {
				assert.False(t, math.IsInf(v, -1), "cell (%d,%d) not written", window, backfill)
				assert.InDelta(t, 1.0, v, 1e-6)
			}
		}
	}

	// One MSE heatmap alongside, and one summary entry with the best
	// explained variance.
	_, ok = sink.heatmaps[filepath.Join("nowcast", period.String(), "TX", "mse_results_1.png")]
	assert.True(t, ok)

	require.Len(t, sink.summary, 1)
	assert.Equal(t, period, sink.summary[0].Period)
	assert.Equal(t, 1, sink.summary[0].Group)
	assert.Equal(t, "TX", sink.summary[0].Location)
	assert.InDelta(t, 1.0, sink.summary[0].BestRSq, 1e-6)
}

func TestRunExperimentDirectoryIdempotence(t *testing.T) {
	chdirTemp(t)

	store := linearStore([]int{2014, 2015, 2016, 2017}, []string{"TX"}, []int{1})
	period := epiweek.NewPeriod(2017, 42, 44)
	groups := [][]string{{"TX"}}

	for run := 0; run < 2; run++ {
		err := RunExperiment(newCaptureSink(), store, groups, [][]int{{1}},
			[]epiweek.Period{period}, 1, ModePrev, models.KindLinear)
		require.NoError(t, err, "run %d", run)
	}

	info, err := os.Stat(filepath.Join("nowcast", period.String(), "TX"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSentinelMatricesAreIndependent(t *testing.T) {
	grid := makeMatrixGrid(2, 2, 3)
	grid[0][0].Set(1, 1, 0.5)

	assert.Equal(t, 0.5, grid[0][0].At(1, 1))
	assert.True(t, math.IsInf(grid[0][1].At(1, 1), -1))
	assert.True(t, math.IsInf(grid[1][0].At(1, 1), -1))
	assert.True(t, math.IsInf(grid[1][1].At(1, 1), -1))
}

func TestMatrixMax(t *testing.T) {
	m := newSentinelMatrix(2)
	_, ok := matrixMax(m)
	assert.False(t, ok)

	m.Set(0, 0, 0.4)
	m.Set(1, 0, math.NaN())
	m.Set(2, 1, 0.9)
	top, ok := matrixMax(m)
	require.True(t, ok)
	assert.Equal(t, 0.9, top)
}
