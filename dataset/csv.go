package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/epimodels/nowcast/epiweek"
)

// LoadCSV loads a store from a CSV dump with the header
//
//	epiweek,location,group,final,lag0,lag1,...
//
// where the lag columns carry the report trajectory of each week. Rows
// may have trailing empty lag cells, which are dropped.
func LoadCSV(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 5 {
		return nil, fmt.Errorf("header in %s: need at least 5 columns, got %d", path, len(header))
	}

	store := NewStore()
	row := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if len(record) < 5 {
			return nil, fmt.Errorf("row %d: expected at least 5 columns, got %d", row, len(record))
		}

		ewRaw, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse epiweek %q: %w", row, record[0], err)
		}
		ew := epiweek.Epiweek(ewRaw)
		if !ew.Valid() {
			return nil, fmt.Errorf("row %d: invalid epiweek %s", row, ew)
		}

		location := record[1]
		group, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse group %q: %w", row, record[2], err)
		}
		final, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse final %q: %w", row, record[3], err)
		}

		var reports []float64
		for j, cell := range record[4:] {
			if cell == "" {
				break
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: parse lag %d (%q): %w", row, j, cell, err)
			}
			reports = append(reports, v)
		}

		store.Put(ew, group, location, &Observation{Reports: reports, Final: final})
	}
	if store.Len() == 0 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}
	return store, nil
}
