package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/filestore"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
)

const maxNearest = 50

// handleRegions lists the lakes with their query boxes.
// GET /api/regions
func (s *Server) handleRegions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"regions": domain.Regions()})
}

// handleMonths lists the months with an artifact for a region.
// GET /api/chlorophyll/:region
func (s *Server) handleMonths(c *gin.Context) {
	region, ok := s.region(c)
	if !ok {
		return
	}

	months, err := s.artifacts.store.Months(region.Name)
	if err != nil {
		s.logger.Error("list months failed", "region", region.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list months"})
		return
	}

	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.String()
	}
	c.JSON(http.StatusOK, gin.H{"region": region.Name, "months": out})
}

// handleChlorophyll returns one month's samples as a bare array.
// GET /api/chlorophyll/:region/:yearMonth
func (s *Server) handleChlorophyll(c *gin.Context) {
	a, ok := s.artifact(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.samples)
}

// handleNearest returns the k samples closest to a point.
// GET /api/chlorophyll/:region/:yearMonth/nearest?lat=&lng=&k=
func (s *Server) handleNearest(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng"})
		return
	}
	k := 1
	if kStr := c.Query("k"); kStr != "" {
		k, err = strconv.Atoi(kStr)
		if err != nil || k <= 0 || k > maxNearest {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid k"})
			return
		}
	}

	a, ok := s.artifact(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"region":    c.Param("region"),
		"month":     c.Param("yearMonth"),
		"neighbors": a.index.Nearest(lat, lng, k),
	})
}

// region resolves the :region parameter, writing a 400 when unknown.
func (s *Server) region(c *gin.Context) (domain.Region, bool) {
	region, ok := domain.LookupRegion(c.Param("region"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown region"})
		return domain.Region{}, false
	}
	return region, true
}

// artifact resolves :region and :yearMonth and loads the artifact, writing
// the error response itself when it cannot.
func (s *Server) artifact(c *gin.Context) (*artifact, bool) {
	month, err := domain.ParseMonthKey(c.Param("yearMonth"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid yearMonth format (YYYY-MM)"})
		return nil, false
	}
	region, ok := s.region(c)
	if !ok {
		return nil, false
	}

	a, err := s.artifacts.get(region, month)
	if errors.Is(err, filestore.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No data for that month"})
		return nil, false
	}
	if err != nil {
		s.logger.Error("read artifact failed", "region", region.Name, "month", month.String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read artifact"})
		return nil, false
	}
	return a, true
}
