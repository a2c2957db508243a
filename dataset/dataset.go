// Package dataset holds the surveillance observation store and the
// feature extraction used to build regression inputs. Observations carry
// a lag-indexed report trajectory: the value of a week as it was known
// zero, one, two... weeks after first report, plus the final value after
// backfill has settled.
package dataset

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/epimodels/nowcast/epiweek"
)

// Key identifies one observation in the store.
type Key struct {
	Epiweek  epiweek.Epiweek
	Group    int
	Location string
}

// Observation is one surveillance record. Reports[l] is the rate as known
// l weeks after first report; Final is the settled post-backfill value.
type Observation struct {
	Reports []float64
	Final   float64
}

// At returns the reported value at the given lag. Lags beyond the
// recorded trajectory return the final value (the series has settled).
func (o *Observation) At(lag int) float64 {
	if lag < 0 {
		lag = 0
	}
	if lag >= len(o.Reports) {
		return o.Final
	}
	return o.Reports[lag]
}

// Store is an in-memory observation store keyed by (epiweek, group, location).
type Store struct {
	obs map[Key]*Observation
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{obs: make(map[Key]*Observation)}
}

// Put inserts or replaces an observation.
func (s *Store) Put(ew epiweek.Epiweek, group int, location string, o *Observation) {
	s.obs[Key{Epiweek: ew, Group: group, Location: location}] = o
}

// Has reports whether an observation exists for the key.
func (s *Store) Has(ew epiweek.Epiweek, group int, location string) bool {
	_, ok := s.obs[Key{Epiweek: ew, Group: group, Location: location}]
	return ok
}

// Get returns the observation for the key, or nil.
func (s *Store) Get(ew epiweek.Epiweek, group int, location string) *Observation {
	return s.obs[Key{Epiweek: ew, Group: group, Location: location}]
}

// Len returns the number of observations in the store.
func (s *Store) Len() int { return len(s.obs) }

// ErrNoObservation is returned by Fetch when the requested key is absent.
var ErrNoObservation = errors.New("dataset: no observation for key")

// featureLen is the feature-vector length for a window configuration:
// one reported value per week of [t-left, t+right] plus the backfill
// revisions of week t.
func featureLen(left, right, backfill int) int {
	return left + right + 1 + backfill
}

// features fills x with the feature vector for (location, group, ew):
// the reported values of weeks t-left..t+right as known at the given lag,
// followed by the successive report revisions of week t. Returns false if
// any week of the window is missing from the store.
func (s *Store) features(x []float64, location string, group int, ew epiweek.Epiweek, lag, left, right, backfill int) bool {
	i := 0
	for off := -left; off <= right; off++ {
		o := s.Get(ew.Add(off), group, location)
		if o == nil {
			return false
		}
		x[i] = o.At(lag)
		i++
	}
	o := s.Get(ew, group, location)
	for b := 1; b <= backfill; b++ {
		x[i] = o.At(lag+b) - o.At(lag+b-1)
		i++
	}
	return true
}

// Prepare builds the feature matrix X and target vector y over every
// epiweek of every period that has a complete window of data for each
// (location, group) pair. Targets are the final backfilled values.
func Prepare(s *Store, locations []string, groups []int, periods []epiweek.Period, lag, left, right, backfill int) (*mat.Dense, []float64, error) {
	n := featureLen(left, right, backfill)
	var rows []float64
	var y []float64

	for _, period := range periods {
		for _, ew := range period.Weeks() {
			for _, location := range locations {
				for _, group := range groups {
					o := s.Get(ew, group, location)
					if o == nil {
						continue
					}
					x := make([]float64, n)
					if !s.features(x, location, group, ew, lag, left, right, backfill) {
						continue
					}
					rows = append(rows, x...)
					y = append(y, o.Final)
				}
			}
		}
	}
	if len(y) == 0 {
		return nil, nil, nil
	}
	return mat.NewDense(len(y), n, rows), y, nil
}

// Fetch extracts the single-sample feature vector for one key along with
// the pre-backfill current value and the post-backfill final value.
func Fetch(s *Store, location string, group int, ew epiweek.Epiweek, lag, left, right, backfill int) ([]float64, float64, float64, error) {
	o := s.Get(ew, group, location)
	if o == nil {
		return nil, 0, 0, fmt.Errorf("%w: %s/%d/%s", ErrNoObservation, ew, group, location)
	}
	x := make([]float64, featureLen(left, right, backfill))
	if !s.features(x, location, group, ew, lag, left, right, backfill) {
		return nil, 0, 0, fmt.Errorf("%w: incomplete window at %s/%d/%s", ErrNoObservation, ew, group, location)
	}
	return x, o.At(lag), o.Final, nil
}
