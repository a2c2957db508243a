package nowcast

import (
	"errors"
	"fmt"

	"github.com/epimodels/nowcast/dataset"
	"github.com/epimodels/nowcast/epiweek"
	"github.com/epimodels/nowcast/models"
)

const (
	// FirstYear is the earliest season anchor with usable training data.
	FirstYear = 2010
	// YearWindow is the trailing season count used by ModePrev.
	YearWindow = 3
	// Penalty is the explained-variance cost per unit of window width
	// during hyperparameter selection.
	Penalty = 0.04
)

// Mode selects how training seasons are assembled for a validation run.
type Mode int

const (
	// ModeAll trains on every season from FirstYear up to the season
	// before the target period.
	ModeAll Mode = iota
	// ModePrev trains only on the trailing YearWindow seasons.
	ModePrev
)

// ErrUnknownMode reports an unrecognized training-scheme tag.
var ErrUnknownMode = errors.New("nowcast: unknown training mode")

// ParseMode resolves a training-scheme tag ("all" or "prev").
func ParseMode(tag string) (Mode, error) {
	switch tag {
	case "all":
		return ModeAll, nil
	case "prev":
		return ModePrev, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, tag)
}

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModePrev:
		return "prev"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Result carries the parallel outputs of one validation run. ValidWeeks
// records every epiweek visited, whether or not any pair had data for it;
// the per-pair sequences grow only when data exists for that exact pair,
// so their lengths match each other per pair but not ValidWeeks.
type Result struct {
	ValidWeeks  []epiweek.Epiweek
	Predictions [][][]float64
	Upper       [][][]float64
	Lower       [][][]float64
	CurTruth    [][][]float64
	GroundTruth [][][]float64
}

// makeGrid returns a fresh [locations][groups] grid of empty sequences.
func makeGrid(nLoc, nGroup int) [][][]float64 {
	g := make([][][]float64, nLoc)
	for i := range g {
		g[i] = make([][]float64, nGroup)
	}
	return g
}

// trainingSeasons assembles the season periods used to train for a
// target anchored at startYear.
func trainingSeasons(startYear int, mode Mode) []epiweek.Period {
	first := FirstYear
	if mode == ModePrev && startYear-YearWindow > first {
		first = startYear - YearWindow
	}
	var periods []epiweek.Period
	for year := first; year < startYear; year++ {
		periods = append(periods, epiweek.Season(year))
	}
	return periods
}

// Validate trains a model triple on historical seasons and replays it
// over every epiweek of the target period, producing time-aligned
// prediction and truth sequences per (location, group) pair. Pairs with
// no observation for a week are skipped silently; an empty training
// season set or an empty feature matrix is an error.
func Validate(store *dataset.Store, locations []string, groups []int, period epiweek.Period, lag, left, right, backfill int, mode Mode, kind models.Kind) (*Result, error) {
	startYear := epiweek.StartYear(period.Start)
	seasons := trainingSeasons(startYear, mode)
	if len(seasons) == 0 {
		return nil, fmt.Errorf("%w: no training seasons before %d (mode %s)", models.ErrEmptyTrainingSet, startYear, mode)
	}

	X, y, err := dataset.Prepare(store, locations, groups, seasons, lag, left, right, backfill)
	if err != nil {
		return nil, fmt.Errorf("prepare training data: %w", err)
	}
	if X == nil {
		return nil, fmt.Errorf("%w: no observations in %d training seasons", models.ErrEmptyTrainingSet, len(seasons))
	}

	upper, mid, lower, err := models.Train(X, y, kind)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Predictions: makeGrid(len(locations), len(groups)),
		Upper:       makeGrid(len(locations), len(groups)),
		Lower:       makeGrid(len(locations), len(groups)),
		CurTruth:    makeGrid(len(locations), len(groups)),
		GroundTruth: makeGrid(len(locations), len(groups)),
	}

	for _, ew := range period.Weeks() {
		// The week is recorded even when no pair has data for it.
		res.ValidWeeks = append(res.ValidWeeks, ew)

		for lIdx, location := range locations {
			for gIdx, group := range groups {
				if !store.Has(ew, group, location) {
					continue
				}
				x, cur, final, err := dataset.Fetch(store, location, group, ew, lag, left, right, backfill)
				if err != nil {
					// Incomplete window for this pair: same soft skip
					// as a missing observation.
					continue
				}
				res.Predictions[lIdx][gIdx] = append(res.Predictions[lIdx][gIdx], mid.Predict(x))
				res.Upper[lIdx][gIdx] = append(res.Upper[lIdx][gIdx], upper.Predict(x))
				res.Lower[lIdx][gIdx] = append(res.Lower[lIdx][gIdx], lower.Predict(x))
				res.CurTruth[lIdx][gIdx] = append(res.CurTruth[lIdx][gIdx], cur)
				res.GroundTruth[lIdx][gIdx] = append(res.GroundTruth[lIdx][gIdx], final)
			}
		}
	}
	return res, nil
}
