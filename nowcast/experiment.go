package nowcast

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/epimodels/nowcast/dataset"
	"github.com/epimodels/nowcast/epiweek"
	"github.com/epimodels/nowcast/models"
)

// resultsRoot is where experiment artifacts land, one subdirectory per
// period and location.
const resultsRoot = "nowcast"

// newSentinelMatrix returns a fresh (maxWindow+1)^2 grid filled with
// negative infinity. Every (location, group) pair gets its own matrix so
// results for one pair can never observe writes for another.
func newSentinelMatrix(maxWindow int) *mat.Dense {
	n := maxWindow + 1
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, math.Inf(-1))
		}
	}
	return m
}

// makeMatrixGrid builds a fresh [locations][groups] grid of sentinel
// matrices.
func makeMatrixGrid(nLoc, nGroup, maxWindow int) [][]*mat.Dense {
	g := make([][]*mat.Dense, nLoc)
	for i := range g {
		g[i] = make([]*mat.Dense, nGroup)
		for j := range g[i] {
			g[i][j] = newSentinelMatrix(maxWindow)
		}
	}
	return g
}

// RunExperiment sweeps every (window, backfill) pair with
// backfill <= window <= maxWindow for each period, location grouping and
// age grouping, collecting MSE and explained variance into triangular
// window-by-backfill matrices. Cells outside the triangle stay at the
// negative-infinity sentinel. Heatmaps for both metrics are emitted per
// pair, and the best explained variance per (period, group) is written
// to the results summary.
func RunExperiment(sink Sink, store *dataset.Store, locationGroups [][]string, groupings [][]int, periods []epiweek.Period, maxWindow int, mode Mode, kind models.Kind) error {
	type summaryKey struct {
		period epiweek.Period
		group  int
	}
	bestBy := make(map[summaryKey]*SummaryEntry)

	for _, period := range periods {
		reportDir := filepath.Join(resultsRoot, period.String())
		if err := makeReportDirs(reportDir, locationGroups); err != nil {
			return err
		}

		for _, locations := range locationGroups {
			for _, groups := range groupings {
				mseResults := makeMatrixGrid(len(locations), len(groups), maxWindow)
				rsqResults := makeMatrixGrid(len(locations), len(groups), maxWindow)

				for window := 0; window <= maxWindow; window++ {
					for backfill := 0; backfill <= window; backfill++ {
						logrus.WithFields(logrus.Fields{
							"period":   period.String(),
							"window":   window,
							"backfill": backfill,
						}).Info("running nowcast report")

						rsq, mse, err := Report(sink, reportDir, store, locations, groups, period, window, backfill, mode, kind)
						if err != nil {
							return fmt.Errorf("report %s w=%d b=%d: %w", period, window, backfill, err)
						}
						for lIdx := range locations {
							for gIdx := range groups {
								mseResults[lIdx][gIdx].Set(window, backfill, mse[lIdx][gIdx])
								rsqResults[lIdx][gIdx].Set(window, backfill, rsq[lIdx][gIdx])
							}
						}
					}
				}

				for lIdx, location := range locations {
					for gIdx, group := range groups {
						if err := sink.Heatmap(
							filepath.Join(reportDir, location, fmt.Sprintf("mse_results_%d.png", group)),
							groupDescription(group), mseResults[lIdx][gIdx]); err != nil {
							return fmt.Errorf("mse heatmap: %w", err)
						}
						if err := sink.Heatmap(
							filepath.Join(reportDir, location, fmt.Sprintf("rsq_results_%d.png", group)),
							groupDescription(group), rsqResults[lIdx][gIdx]); err != nil {
							return fmt.Errorf("rsq heatmap: %w", err)
						}

						if top, ok := matrixMax(rsqResults[lIdx][gIdx]); ok {
							key := summaryKey{period: period, group: group}
							if cur := bestBy[key]; cur == nil || top > cur.BestRSq {
								bestBy[key] = &SummaryEntry{Period: period, Group: group, Location: location, BestRSq: top}
							}
						}
					}
				}
			}
		}
	}

	entries := make([]SummaryEntry, 0, len(bestBy))
	for _, e := range bestBy {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Period != entries[j].Period {
			return entries[i].Period.Start < entries[j].Period.Start
		}
		return entries[i].Group < entries[j].Group
	})
	return sink.Summary(filepath.Join(resultsRoot, "results.txt"), entries)
}

// makeReportDirs creates the per-period and per-location report
// directories. Creation is idempotent.
func makeReportDirs(reportDir string, locationGroups [][]string) error {
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", reportDir, err)
	}
	for _, locations := range locationGroups {
		for _, location := range locations {
			dir := filepath.Join(reportDir, location)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
	}
	return nil
}

// matrixMax returns the largest finite cell of m, ignoring sentinel and
// NaN cells.
func matrixMax(m *mat.Dense) (float64, bool) {
	r, c := m.Dims()
	top, found := 0.0, false
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if !found || v > top {
				top, found = v, true
			}
		}
	}
	return top, found
}
