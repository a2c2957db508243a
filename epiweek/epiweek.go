// Package epiweek provides CDC-style epidemiological week arithmetic and
// the season periods used throughout the nowcasting pipeline.
//
// An Epiweek is encoded as YYYYWW (e.g. 201740 is week 40 of 2017). Flu
// seasons run from week 40 of one year through week 17 of the next.
package epiweek

import (
	"fmt"
)

// Epiweek identifies an epidemiological week as YYYYWW.
type Epiweek int

// SeasonStartWeek and SeasonEndWeek delimit a flu season: week 40 of the
// anchor year through week 17 of the following year.
const (
	SeasonStartWeek = 40
	SeasonEndWeek   = 17
)

// fiftyThreeWeekYears lists MMWR years with 53 weeks in the range this
// system operates on.
var fiftyThreeWeekYears = map[int]bool{
	2008: true,
	2014: true,
	2020: true,
	2025: true,
}

// WeeksIn returns the number of MMWR weeks in year (52 or 53).
func WeeksIn(year int) int {
	if fiftyThreeWeekYears[year] {
		return 53
	}
	return 52
}

// New builds an Epiweek from a year and week number.
func New(year, week int) Epiweek {
	return Epiweek(year*100 + week)
}

// Year returns the epidemiological year.
func (e Epiweek) Year() int { return int(e) / 100 }

// Week returns the week number within the year.
func (e Epiweek) Week() int { return int(e) % 100 }

// Valid reports whether e encodes a real MMWR week.
func (e Epiweek) Valid() bool {
	w := e.Week()
	return e.Year() >= 1 && w >= 1 && w <= WeeksIn(e.Year())
}

// Add returns the epiweek n weeks after e (n may be negative), rolling
// across year boundaries including 53-week years.
func (e Epiweek) Add(n int) Epiweek {
	year, week := e.Year(), e.Week()
	week += n
	for week > WeeksIn(year) {
		week -= WeeksIn(year)
		year++
	}
	for week < 1 {
		year--
		week += WeeksIn(year)
	}
	return New(year, week)
}

// Next returns the epiweek immediately after e.
func (e Epiweek) Next() Epiweek { return e.Add(1) }

// Sub returns the number of weeks from o to e (positive when e is later).
func (e Epiweek) Sub(o Epiweek) int {
	if e < o {
		return -o.Sub(e)
	}
	n := 0
	for w := o; w < e; w = w.Next() {
		n++
	}
	return n
}

func (e Epiweek) String() string {
	return fmt.Sprintf("%06d", int(e))
}

// StartYear returns the anchor year of the season containing e: the
// epiweek's own year from week 40 onward, the previous year before it.
func StartYear(e Epiweek) int {
	if e.Week() >= SeasonStartWeek {
		return e.Year()
	}
	return e.Year() - 1
}

// MaxWindow returns the number of weeks elapsed since the start of the
// season containing e. It bounds the usable regression and backfill
// windows at that point of the season.
func MaxWindow(e Epiweek) int {
	return e.Sub(New(StartYear(e), SeasonStartWeek))
}
