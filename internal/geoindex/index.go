// Package geoindex answers nearest-sample queries over a chlorophyll grid
// with an R-tree.
package geoindex

import (
	"cmp"
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
)

const (
	tolerance   = 1e-6
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
	earthRadius = 6371.0 // km

	// extraCandidates widens the tree query so the haversine re-sort can
	// recover neighbors the planar projection ranks slightly out of order.
	extraCandidates = 16
)

// Neighbor is a sample and its great-circle distance from the query point.
type Neighbor struct {
	domain.Sample
	DistanceKm float64 `json:"distanceKm"`
}

type spatialSample struct {
	sample domain.Sample
	rect   *rtreego.Rect
}

func (s *spatialSample) Bounds() *rtreego.Rect {
	return s.rect
}

// Index is an immutable R-tree over one artifact's samples. It is safe for
// concurrent queries once built.
//
// Points are stored as (lat, lng*cos(lat0)) with lat0 the mean sample
// latitude, so planar distance in the tree tracks ground distance.
type Index struct {
	tree   *rtreego.Rtree
	size   int
	lngCos float64
}

// New indexes the valid samples.
func New(samples []domain.Sample) *Index {
	valid := make([]domain.Sample, 0, len(samples))
	var latSum float64
	for _, s := range samples {
		if !s.Valid() {
			continue
		}
		valid = append(valid, s)
		latSum += s.Lat
	}

	ix := &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren), lngCos: 1}
	if len(valid) > 0 {
		ix.lngCos = math.Cos(latSum / float64(len(valid)) * math.Pi / 180)
	}
	for _, s := range valid {
		ix.tree.Insert(&spatialSample{
			sample: s,
			rect:   ix.project(s.Lat, s.Lng).ToRect(tolerance),
		})
	}
	ix.size = len(valid)
	return ix
}

func (ix *Index) project(lat, lng float64) rtreego.Point {
	return rtreego.Point{lat, lng * ix.lngCos}
}

// Len is the number of indexed samples.
func (ix *Index) Len() int {
	return ix.size
}

// Nearest returns up to k samples closest to (lat, lng) by great-circle
// distance, nearest first.
func (ix *Index) Nearest(lat, lng float64, k int) []Neighbor {
	if k <= 0 || ix.size == 0 {
		return nil
	}
	k = min(k, ix.size)
	results := ix.tree.NearestNeighbors(min(k+extraCandidates, ix.size), ix.project(lat, lng))

	out := make([]Neighbor, 0, len(results))
	for _, r := range results {
		item, ok := r.(*spatialSample)
		if !ok {
			continue
		}
		out = append(out, Neighbor{
			Sample:     item.sample,
			DistanceKm: haversine(lat, lng, item.sample.Lat, item.sample.Lng),
		})
	}
	slices.SortStableFunc(out, func(a, b Neighbor) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
