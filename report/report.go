// Package report renders the pipeline's diagnostic artifacts: PNG
// time-series plots, PNG metric heatmaps and the text results summary.
// It implements nowcast.Sink; the core never touches plotting itself.
package report

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/epimodels/nowcast/nowcast"
)

// PNG implements nowcast.Sink with gonum/plot renderings.
type PNG struct{}

// NewPNG returns a PNG sink.
func NewPNG() *PNG { return &PNG{} }

// SeriesPlot writes the diagnostic time series for one pair: predicted
// value with its bounds, the pre-backfill current value and the settled
// true value, with week numbers on the time axis.
func (*PNG) SeriesPlot(path string, s nowcast.PairSeries) error {
	p := plot.New()
	p.X.Label.Text = "weeks"
	p.Y.Label.Text = "hospitalized rate"

	lines := []struct {
		name   string
		values []float64
	}{
		{"predicted rate", s.Predicted},
		{"predicted rate upper bound", s.Upper},
		{"predicted rate lower bound", s.Lower},
		{"current rate", s.Current},
		{"true rate", s.Final},
	}
	for _, l := range lines {
		xys := make(plotter.XYs, len(l.values))
		for i, v := range l.values {
			xys[i].X = float64(i)
			xys[i].Y = v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("line %q: %w", l.name, err)
		}
		p.Add(line)
		p.Legend.Add(l.name, line)
	}

	ticks := make([]plot.Tick, len(s.Weeks))
	for i, w := range s.Weeks {
		ticks[i] = plot.Tick{Value: float64(i), Label: fmt.Sprintf("%d", w.Week())}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// metricGrid adapts a window-by-backfill matrix to plotter.GridXYZ.
// Sentinel (infinite) cells become NaN so the heatmap leaves them blank.
type metricGrid struct {
	m *mat.Dense
}

func (g metricGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g metricGrid) Z(c, r int) float64 {
	v := g.m.At(r, c)
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

func (g metricGrid) X(c int) float64 { return float64(c) }
func (g metricGrid) Y(r int) float64 { return float64(r) }

// Heatmap writes a metric grid with window on the y axis and backfill on
// the x axis. Cells outside the triangular sweep stay unrendered.
func (*PNG) Heatmap(path, title string, cells *mat.Dense) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "window"
	p.X.Label.Text = "backfill"

	h := plotter.NewHeatMap(metricGrid{m: cells}, palette.Heat(12, 1))
	p.Add(h)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Summary writes the experiment summary as one line per (period, group).
func (*PNG) Summary(path string, entries []nowcast.SummaryEntry) error {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s group=%d location=%s rsq=%.4f\n", e.Period, e.Group, e.Location, e.BestRSq)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Discard is a sink that drops everything. Useful for headless runs and
// tests that only need the metric surfaces.
type Discard struct{}

func (Discard) SeriesPlot(string, nowcast.PairSeries) error  { return nil }
func (Discard) Heatmap(string, string, *mat.Dense) error     { return nil }
func (Discard) Summary(string, []nowcast.SummaryEntry) error { return nil }
