package nowcast

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/epimodels/nowcast/dataset"
	"github.com/epimodels/nowcast/epiweek"
	"github.com/epimodels/nowcast/models"
)

// PairSeries is the time-aligned diagnostic series for one
// (location, group) pair over a validation run.
type PairSeries struct {
	Weeks     []epiweek.Epiweek
	Predicted []float64
	Upper     []float64
	Lower     []float64
	Current   []float64
	Final     []float64
}

// SummaryEntry records the best explained variance found for a
// (period, group) during an experiment sweep and where it occurred.
type SummaryEntry struct {
	Period   epiweek.Period
	Group    int
	Location string
	BestRSq  float64
}

// Sink receives the rendered artifacts of reports and experiments. The
// core never renders anything itself.
type Sink interface {
	// SeriesPlot writes a diagnostic time-series plot for one pair.
	SeriesPlot(path string, s PairSeries) error
	// Heatmap writes a window-by-backfill metric grid. Cells left at
	// negative infinity are outside the triangular sweep and must
	// render blank.
	Heatmap(path, title string, cells *mat.Dense) error
	// Summary writes the experiment results summary.
	Summary(path string, entries []SummaryEntry) error
}

// GroupDescriptions labels the surveillance age groups on rendered
// artifacts.
var GroupDescriptions = map[int]string{
	0: "0-4 yr",
	1: "5-17 yr",
	2: "18-49 yr",
	3: "50-64 yr",
	4: "65+ yr",
}

func groupDescription(group int) string {
	if d, ok := GroupDescriptions[group]; ok {
		return d
	}
	return fmt.Sprintf("group %d", group)
}

// Report runs a current-state validation (lag 0, no right window) over
// the period and computes per-pair explained variance and mean squared
// error against the backfilled truth. One diagnostic plot per pair is
// emitted to the sink under dir/<location>/<group>-<window>-<backfill>.png.
// Degenerate truth for a pair yields NaN metrics, not an error.
func Report(sink Sink, dir string, store *dataset.Store, locations []string, groups []int, period epiweek.Period, left, backfill int, mode Mode, kind models.Kind) (rsq, mse [][]float64, err error) {
	res, err := Validate(store, locations, groups, period, 0, left, 0, backfill, mode, kind)
	if err != nil {
		return nil, nil, err
	}

	rsq = make([][]float64, len(locations))
	mse = make([][]float64, len(locations))
	for lIdx, location := range locations {
		rsq[lIdx] = make([]float64, len(groups))
		mse[lIdx] = make([]float64, len(groups))

		for gIdx, group := range groups {
			truth := res.GroundTruth[lIdx][gIdx]
			pred := res.Predictions[lIdx][gIdx]
			rsq[lIdx][gIdx] = RSquared(truth, pred)
			mse[lIdx][gIdx] = MSE(truth, pred)

			plotPath := filepath.Join(dir, location, fmt.Sprintf("%d-%d-%d.png", group, left, backfill))
			series := PairSeries{
				Weeks:     res.ValidWeeks,
				Predicted: pred,
				Upper:     res.Upper[lIdx][gIdx],
				Lower:     res.Lower[lIdx][gIdx],
				Current:   res.CurTruth[lIdx][gIdx],
				Final:     truth,
			}
			if err := sink.SeriesPlot(plotPath, series); err != nil {
				return nil, nil, fmt.Errorf("plot %s: %w", plotPath, err)
			}
		}
	}
	return rsq, mse, nil
}
