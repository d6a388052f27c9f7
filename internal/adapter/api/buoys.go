package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/geoindex"
)

const noLiveData = "No live data"

// buoyView is a station merged with its latest reading, or with an error
// when the feed could not be read.
type buoyView struct {
	domain.Station
	*domain.Reading
	Error       string             `json:"error,omitempty"`
	Chlorophyll *geoindex.Neighbor `json:"chlorophyll,omitempty"`
}

// handleBuoys returns every configured station with its live reading. With
// ?month=YYYY-MM each buoy also carries the nearest chlorophyll sample from
// its lake's artifact for that month.
// GET /api/buoys
func (s *Server) handleBuoys(c *gin.Context) {
	var month *domain.MonthKey
	if m := c.Query("month"); m != "" {
		parsed, err := domain.ParseMonthKey(m)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month format (YYYY-MM)"})
			return
		}
		month = &parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	views := make([]buoyView, len(s.stations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.BuoyConcurrency)
	for i, station := range s.stations {
		g.Go(func() error {
			views[i] = s.buoy(gctx, station, month)
			return nil
		})
	}
	_ = g.Wait()

	c.JSON(http.StatusOK, views)
}

func (s *Server) buoy(ctx context.Context, station domain.Station, month *domain.MonthKey) buoyView {
	view := buoyView{Station: station}

	reading, err := s.buoys.Fetch(ctx, station.ID)
	if err != nil {
		s.logger.Warn("buoy fetch failed", "station", station.ID, "error", err)
		view.Error = noLiveData
	} else {
		view.Reading = &reading
	}

	if month == nil {
		return view
	}
	region, ok := domain.LookupRegion(station.Lake)
	if !ok {
		return view
	}
	a, err := s.artifacts.get(region, *month)
	if err != nil {
		return view
	}
	if nearest := a.index.Nearest(station.Lat, station.Lng, 1); len(nearest) > 0 {
		view.Chlorophyll = &nearest[0]
	}
	return view
}
