package domain

import (
	"fmt"
	"strings"
)

// BoundingBox is a lat/lon rectangle in decimal degrees (WGS-84).
type BoundingBox struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// Region is one Great Lake with its query box and ERDDAP product code.
type Region struct {
	Name   string      `json:"name"`
	Code   string      `json:"code"`
	Bounds BoundingBox `json:"bounds"`
}

// regions is in declaration order; job iteration and resume ordering rely on it.
var regions = []Region{
	{Name: "superior", Code: "LS", Bounds: BoundingBox{LatMin: 46.290877595506, LatMax: 49.0622787250686, LonMin: -92.2393462144662, LonMax: -84.1590606615635}},
	{Name: "michigan", Code: "LM", Bounds: BoundingBox{LatMin: 41.3389808729367, LatMax: 46.2093367308081, LonMin: -88.2680418693139, LonMax: -84.533234020258}},
	{Name: "huron", Code: "LH", Bounds: BoundingBox{LatMin: 42.9276153373726, LatMax: 46.5127142483862, LonMin: -85.1764000001763, LonMax: -79.8238439100497}},
	{Name: "erie", Code: "LE", Bounds: BoundingBox{LatMin: 41.2690208353805, LatMax: 43.0179972728271, LonMin: -83.6574899492178, LonMax: -78.4429490894234}},
	{Name: "ontario", Code: "LO", Bounds: BoundingBox{LatMin: 43.1018959037845, LatMax: 44.5872516676337, LonMin: -79.9943010509483, LonMax: -76.0072934743003}},
}

// Regions returns a copy of the region table in declaration order.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// LookupRegion finds a region by name, ignoring case and surrounding space.
func LookupRegion(name string) (Region, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// SelectRegions resolves a list of names to regions, keeping declaration
// order regardless of input order. An empty list selects every region.
func SelectRegions(names []string) ([]Region, error) {
	if len(names) == 0 {
		return Regions(), nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		r, ok := LookupRegion(n)
		if !ok {
			return nil, fmt.Errorf("unknown region %q", n)
		}
		want[r.Name] = true
	}

	out := make([]Region, 0, len(want))
	for _, r := range regions {
		if want[r.Name] {
			out = append(out, r)
		}
	}
	return out, nil
}
