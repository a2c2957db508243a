package epiweek

import "fmt"

// Period is an ordered, contiguous range of epiweeks. Both endpoints are
// inclusive. Immutable once constructed.
type Period struct {
	Start Epiweek
	End   Epiweek
}

// NewPeriod builds the period starting at week startWeek of year. When
// endWeek is smaller than startWeek the period wraps into the following
// year, which is how season periods (weeks 40 through 17) are formed.
func NewPeriod(year, startWeek, endWeek int) Period {
	endYear := year
	if endWeek < startWeek {
		endYear = year + 1
	}
	return Period{Start: New(year, startWeek), End: New(endYear, endWeek)}
}

// Season returns the week 40 through week 17 period anchored at year.
func Season(year int) Period {
	return NewPeriod(year, SeasonStartWeek, SeasonEndWeek)
}

// Weeks expands the period into its ordered list of epiweeks.
func (p Period) Weeks() []Epiweek {
	var weeks []Epiweek
	for w := p.Start; w <= p.End; w = w.Next() {
		weeks = append(weeks, w)
	}
	return weeks
}

// Len returns the number of epiweeks in the period.
func (p Period) Len() int { return p.End.Sub(p.Start) + 1 }

func (p Period) String() string {
	return fmt.Sprintf("%s-%s", p.Start, p.End)
}
