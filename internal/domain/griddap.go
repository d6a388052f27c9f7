package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrNoData reports a response that carries no data rows.
	ErrNoData = errors.New("no data rows")
	// ErrArtifactExists reports an artifact that is already persisted.
	ErrArtifactExists = errors.New("artifact already exists")
)

// minGriddapLines is the smallest body that can hold a header, a units row
// and at least one data row.
const minGriddapLines = 3

// GriddapColumns names the columns read from a griddap CSV response.
type GriddapColumns struct {
	Latitude  string
	Longitude string
	Value     string
}

// DefaultGriddapColumns returns the standard coordinate columns plus the
// given concentration variable.
func DefaultGriddapColumns(variable string) GriddapColumns {
	return GriddapColumns{Latitude: "latitude", Longitude: "longitude", Value: variable}
}

// GriddapResult is the outcome of parsing one griddap response.
type GriddapResult struct {
	Samples []Sample
	Rows    int // data rows read, units row excluded
	Dropped int // rows discarded for a missing or invalid cell
}

// ParseGriddapCSV turns a griddap CSV body into samples. Rows with an empty,
// null, NaN or otherwise unparseable concentration are dropped, as are rows
// with unparseable coordinates. A leading units row is detected and skipped.
// A body with fewer than three lines returns ErrNoData.
func ParseGriddapCSV(body []byte, cols GriddapColumns) (GriddapResult, error) {
	text := strings.TrimSpace(string(body))
	if text == "" || strings.Count(text, "\n")+1 < minGriddapLines {
		return GriddapResult{}, ErrNoData
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return GriddapResult{}, fmt.Errorf("read header: %w", err)
	}
	idx, err := resolveColumns(header, cols)
	if err != nil {
		return GriddapResult{}, err
	}

	var res GriddapResult
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return GriddapResult{}, fmt.Errorf("read row %d: %w", res.Rows+1, err)
		}

		if first {
			first = false
			if isUnitsRow(rec, idx.lat) {
				continue
			}
		}
		res.Rows++

		s, ok := sampleFromRecord(rec, idx)
		if !ok {
			res.Dropped++
			continue
		}
		res.Samples = append(res.Samples, s)
	}

	return res, nil
}

type columnIndex struct {
	lat, lon, value int
}

// resolveColumns maps header names to positions case-insensitively; upstream
// column order is not guaranteed.
func resolveColumns(header []string, cols GriddapColumns) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := byName[name]; !dup {
			byName[name] = i
		}
	}

	lookup := func(name string) (int, error) {
		i, ok := byName[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("missing column %q in header %v", name, header)
		}
		return i, nil
	}

	var idx columnIndex
	var err error
	if idx.lat, err = lookup(cols.Latitude); err != nil {
		return idx, err
	}
	if idx.lon, err = lookup(cols.Longitude); err != nil {
		return idx, err
	}
	if idx.value, err = lookup(cols.Value); err != nil {
		return idx, err
	}
	return idx, nil
}

// isUnitsRow detects the ERDDAP units annotation by its latitude cell
// ("degrees_north"). Any other non-numeric first row is ordinary data.
func isUnitsRow(rec []string, latIdx int) bool {
	if latIdx >= len(rec) {
		return false
	}
	return strings.Contains(strings.ToLower(rec[latIdx]), "degree")
}

func sampleFromRecord(rec []string, idx columnIndex) (Sample, bool) {
	value, ok := parseCell(rec, idx.value)
	if !ok {
		return Sample{}, false
	}
	lat, ok := parseCell(rec, idx.lat)
	if !ok {
		return Sample{}, false
	}
	lng, ok := parseCell(rec, idx.lon)
	if !ok {
		return Sample{}, false
	}
	return Sample{Lat: lat, Lng: lng, Value: value}, true
}

// parseCell parses a numeric cell, rejecting blanks, "null", and anything
// that is not a finite number ("NaN" is the upstream mask sentinel).
func parseCell(rec []string, i int) (float64, bool) {
	if i >= len(rec) {
		return 0, false
	}
	raw := strings.TrimSpace(rec[i])
	if raw == "" || strings.EqualFold(raw, "null") || strings.EqualFold(raw, "nan") {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return v, true
}
