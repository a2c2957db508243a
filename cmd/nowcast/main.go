// Command nowcast drives the hospitalization-rate nowcasting pipeline:
// diagnostic reports, window/backfill grid experiments, and single-week
// prediction.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/epimodels/nowcast/config"
	"github.com/epimodels/nowcast/dataset"
	"github.com/epimodels/nowcast/epiweek"
	"github.com/epimodels/nowcast/models"
	"github.com/epimodels/nowcast/nowcast"
	"github.com/epimodels/nowcast/report"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:           "nowcast",
		Short:         "backfill-aware nowcasting of surveillance signals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "nowcast.yaml", "experiment configuration file")
	root.AddCommand(reportCmd(), experimentCmd(), predictCmd())

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("nowcast failed")
		os.Exit(1)
	}
}

// setup loads the configuration and the observation store.
func setup() (*config.Config, *dataset.Store, nowcast.Mode, models.Kind, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	mode, err := nowcast.ParseMode(cfg.Mode)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	kind, err := models.ParseKind(cfg.Model)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	store, err := dataset.LoadCSV(cfg.Data)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	logrus.WithFields(logrus.Fields{
		"observations": store.Len(),
		"model":        kind.String(),
		"mode":         mode.String(),
	}).Info("loaded data")
	return cfg, store, mode, kind, nil
}

func reportCmd() *cobra.Command {
	var window, backfill int
	var outDir string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "validate one window/backfill setting and emit diagnostic plots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, mode, kind, err := setup()
			if err != nil {
				return err
			}
			sink := report.NewPNG()
			for _, period := range cfg.PeriodList() {
				for _, locations := range cfg.LocationGroups {
					for _, location := range locations {
						if err := os.MkdirAll(filepath.Join(outDir, location), 0o755); err != nil {
							return err
						}
					}
					for _, groups := range cfg.Groupings {
						rsq, mse, err := nowcast.Report(sink, outDir, store,
							locations, groups, period, window, backfill, mode, kind)
						if err != nil {
							return err
						}
						for lIdx, location := range locations {
							for gIdx, group := range groups {
								fmt.Printf("%s %s/%d: rsq=%.4f mse=%.4f\n",
									period, location, group, rsq[lIdx][gIdx], mse[lIdx][gIdx])
							}
						}
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&window, "window", 0, "regression window size")
	cmd.Flags().IntVar(&backfill, "backfill", 0, "backfill window size")
	cmd.Flags().StringVar(&outDir, "out", "nowcast-report", "plot output directory")
	return cmd
}

func experimentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "experiment",
		Short: "sweep the window/backfill grid and emit metric heatmaps",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, mode, kind, err := setup()
			if err != nil {
				return err
			}
			return nowcast.RunExperiment(report.NewPNG(), store,
				cfg.LocationGroups, cfg.Groupings, cfg.PeriodList(),
				cfg.MaxWindow, mode, kind)
		},
	}
}

func predictCmd() *cobra.Command {
	var week int
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "nowcast the final value for a single epiweek",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, mode, kind, err := setup()
			if err != nil {
				return err
			}
			target := epiweek.Epiweek(week)
			if !target.Valid() {
				return fmt.Errorf("invalid epiweek %d", week)
			}
			pred, err := nowcast.Predict(store, target,
				cfg.LocationGroups, cfg.Groupings, cfg.MaxWindow, mode, kind)
			if err != nil {
				return err
			}
			for key, point := range pred.Point {
				fmt.Printf("%s/%d: %.4f [%.4f, %.4f]\n",
					key.Location, key.Group, point, pred.Lower[key], pred.Upper[key])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&week, "epiweek", 0, "target epiweek as YYYYWW")
	_ = cmd.MarkFlagRequired("epiweek")
	return cmd
}
