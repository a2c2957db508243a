// Package config loads the experiment configuration consumed by the
// nowcast CLI.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/epimodels/nowcast/epiweek"
)

// PeriodSpec is a (year, start week, end week) triple; end weeks smaller
// than start weeks wrap into the following year.
type PeriodSpec struct {
	Year      int `yaml:"year"`
	StartWeek int `yaml:"start_week"`
	EndWeek   int `yaml:"end_week"`
}

// Period resolves the spec into an epiweek period.
func (p PeriodSpec) Period() epiweek.Period {
	return epiweek.NewPeriod(p.Year, p.StartWeek, p.EndWeek)
}

// Config drives a batch run: the data dump, the location and age
// groupings to sweep, the target periods and the model settings.
type Config struct {
	Data           string       `yaml:"data"`
	LocationGroups [][]string   `yaml:"location_groups"`
	Groupings      [][]int      `yaml:"groupings"`
	Periods        []PeriodSpec `yaml:"periods"`
	MaxWindow      int          `yaml:"max_window"`
	Mode           string       `yaml:"mode"`
	Model          string       `yaml:"model"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the structural invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.Data == "" {
		return errors.New("data path is required")
	}
	if len(c.LocationGroups) == 0 {
		return errors.New("at least one location group is required")
	}
	if len(c.Groupings) == 0 {
		return errors.New("at least one age grouping is required")
	}
	if c.MaxWindow < 0 {
		return fmt.Errorf("max_window must be non-negative, got %d", c.MaxWindow)
	}
	for _, p := range c.Periods {
		if p.StartWeek < 1 || p.StartWeek > 53 || p.EndWeek < 1 || p.EndWeek > 53 {
			return fmt.Errorf("period weeks out of range: %+v", p)
		}
	}
	return nil
}

// PeriodList resolves all configured periods.
func (c *Config) PeriodList() []epiweek.Period {
	periods := make([]epiweek.Period, len(c.Periods))
	for i, p := range c.Periods {
		periods[i] = p.Period()
	}
	return periods
}
