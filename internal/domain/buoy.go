package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ndbcMissing is the NDBC sentinel for an unreported value.
const ndbcMissing = "MM"

// Station is a buoy from the configured station list.
type Station struct {
	ID   string  `json:"id"`
	Lake string  `json:"lake"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Reading is the latest observation parsed from an NDBC realtime2 feed.
// Nil fields were reported missing or the column is absent.
type Reading struct {
	Station    string    `json:"station"`
	Time       time.Time `json:"time"`
	WaterTemp  *float64  `json:"waterTemp"`  // °F
	WindSpeed  *float64  `json:"windSpeed"`  // m/s
	WaveHeight *float64  `json:"waveHeight"` // m
	AirTemp    *float64  `json:"airTemp,omitempty"`
	WindGust   *float64  `json:"windGust,omitempty"`
	WindDir    *float64  `json:"windDir,omitempty"` // degrees true
	Pressure   *float64  `json:"pressure,omitempty"` // hPa
}

// ParseNDBCRealtime extracts the newest observation from a realtime2 text
// feed. Columns are located by header name, so feeds with extra or
// reordered columns still parse.
func ParseNDBCRealtime(station, text string) (Reading, error) {
	var header []string
	var row []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			// The first comment line names the columns; the second holds units.
			if header == nil {
				header = strings.Fields(strings.TrimLeft(line, "#"))
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		row = fields
		break
	}

	if header == nil {
		return Reading{}, fmt.Errorf("station %s: missing header line", station)
	}
	if row == nil {
		return Reading{}, fmt.Errorf("station %s: %w", station, ErrNoData)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToUpper(h)] = i
	}

	ts, err := observationTime(row)
	if err != nil {
		return Reading{}, fmt.Errorf("station %s: %w", station, err)
	}

	field := func(name string) *float64 {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return nil
		}
		return parseNDBCValue(row[i])
	}

	return Reading{
		Station:    station,
		Time:       ts,
		WaterTemp:  celsiusToFahrenheit(field("WTMP")),
		WindSpeed:  field("WSPD"),
		WaveHeight: field("WVHT"),
		AirTemp:    celsiusToFahrenheit(field("ATMP")),
		WindGust:   field("GST"),
		WindDir:    field("WDIR"),
		Pressure:   field("PRES"),
	}, nil
}

// observationTime reads the leading YY MM DD hh mm columns as UTC.
func observationTime(row []string) (time.Time, error) {
	var parts [5]int
	for i := range parts {
		v, err := strconv.Atoi(row[i])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time column %d %q", i, row[i])
		}
		parts[i] = v
	}
	year := parts[0]
	if year < 100 {
		year += 2000
	}
	return time.Date(year, time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC), nil
}

func parseNDBCValue(s string) *float64 {
	if s == ndbcMissing {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) {
		return nil
	}
	return &v
}

func celsiusToFahrenheit(c *float64) *float64 {
	if c == nil {
		return nil
	}
	f := *c*9/5 + 32
	return &f
}
