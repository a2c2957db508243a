package nowcast

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/epimodels/nowcast/dataset"
	"github.com/epimodels/nowcast/epiweek"
	"github.com/epimodels/nowcast/models"
)

// PairKey addresses one (location, group) pair in prediction output.
type PairKey struct {
	Location string
	Group    int
}

// Prediction is the final nowcast artifact: a point value with its
// interval bounds per pair for one target epiweek.
type Prediction struct {
	Point map[PairKey]float64
	Upper map[PairKey]float64
	Lower map[PairKey]float64
}

// flattenGrid concatenates every per-pair sequence of a [loc][group]
// grid into one vector, in location-major order.
func flattenGrid(g [][][]float64) []float64 {
	var out []float64
	for _, row := range g {
		for _, seq := range row {
			out = append(out, seq...)
		}
	}
	return out
}

// selectWindow sweeps candidate window sizes, scoring each by explained
// variance on the validation period minus Penalty per unit of width.
// Window 0 is the default-safe choice when nothing beats zero.
func selectWindow(store *dataset.Store, locations []string, groups []int, valPeriod epiweek.Period, maxWindow int, mode Mode, kind models.Kind) (int, error) {
	scores := make([]float64, maxWindow+1)
	for window := 0; window <= maxWindow; window++ {
		res, err := Validate(store, locations, groups, valPeriod, 0, window, 0, window, mode, kind)
		if err != nil {
			return 0, fmt.Errorf("validate window %d: %w", window, err)
		}
		scores[window] = RSquared(flattenGrid(res.GroundTruth), flattenGrid(res.Predictions)) - Penalty*float64(window)
	}
	return chooseWindow(scores), nil
}

// chooseWindow applies the selection rule to the penalized scores,
// indexed by window size: the running best starts at zero and only a
// strictly greater score moves the selection. NaN scores never win.
func chooseWindow(scores []float64) int {
	optWindow := 0
	bestRSq := 0.0
	for window, s := range scores {
		if s > bestRSq {
			optWindow = window
			bestRSq = s
		}
	}
	return optWindow
}

// Predict produces the final-value nowcast for a single target epiweek.
// Per (location grouping, age grouping) pair it selects the regression
// and backfill window by penalized explained variance on the previous
// season, retrains on that season with the selected window, and predicts
// from the target week's feature vector. Pairs with no usable data for
// the target week are skipped.
func Predict(store *dataset.Store, target epiweek.Epiweek, locationGroups [][]string, groupings [][]int, maxWindow int, mode Mode, kind models.Kind) (*Prediction, error) {
	startYear := epiweek.StartYear(target)
	if m := epiweek.MaxWindow(target); m < maxWindow {
		maxWindow = m
	}
	valPeriod := epiweek.Season(startYear - 1)

	out := &Prediction{
		Point: make(map[PairKey]float64),
		Upper: make(map[PairKey]float64),
		Lower: make(map[PairKey]float64),
	}

	for _, locations := range locationGroups {
		for _, groups := range groupings {
			optWindow, err := selectWindow(store, locations, groups, valPeriod, maxWindow, mode, kind)
			if err != nil {
				return nil, err
			}
			logrus.WithFields(logrus.Fields{
				"epiweek": target.String(),
				"window":  optWindow,
			}).Info("selected window")

			// Retrain on the validation period alone with the selected
			// window for both the regression and backfill horizons.
			X, y, err := dataset.Prepare(store, locations, groups, []epiweek.Period{valPeriod}, 0, optWindow, 0, optWindow)
			if err != nil {
				return nil, fmt.Errorf("prepare final training data: %w", err)
			}
			if X == nil {
				return nil, fmt.Errorf("%w: validation season %s", models.ErrEmptyTrainingSet, valPeriod)
			}
			upper, mid, lower, err := models.Train(X, y, kind)
			if err != nil {
				return nil, err
			}

			for _, location := range locations {
				for _, group := range groups {
					x, _, _, err := dataset.Fetch(store, location, group, target, 0, optWindow, 0, optWindow)
					if err != nil {
						continue
					}
					key := PairKey{Location: location, Group: group}
					out.Point[key] = mid.Predict(x)
					out.Upper[key] = upper.Predict(x)
					out.Lower[key] = lower.Predict(x)
				}
			}
		}
	}
	return out, nil
}
