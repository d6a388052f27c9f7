// Command mockerddap serves synthetic GLERL griddap CSV for local dry runs of
// chlfetch. Grids cover the requested lat/lon window at a fixed spacing,
// with a share of NaN cells standing in for land, and winter months answer
// with headers only, as the real product does under ice cover.
//
// Usage:
//
//	go run ./cmd/mockerddap -addr :8090 -forbid-rate 0.1
//	ERDDAP_BASE_URL=http://localhost:8090 go run ./cmd/chlfetch --delay 0
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/erddap"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/observability"
)

// constraintPattern matches one griddap dimension constraint [(from):stride:(to)].
var constraintPattern = regexp.MustCompile(`\[\(([^)]*)\):\d+:\(([^)]*)\)\]`)

type options struct {
	step       float64
	nanRate    float64
	forbidRate float64
	gapMonths  []time.Month
	variable   string
	suffix     string
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	step := flag.Float64("step", 0.1, "grid spacing in degrees")
	nanRate := flag.Float64("nan-rate", 0.3, "fraction of cells reported as NaN")
	forbidRate := flag.Float64("forbid-rate", 0, "fraction of requests answered 403")
	gaps := flag.String("gap-months", "12,1,2", "comma-separated months (1-12) with no data")
	variable := flag.String("variable", "Chlorophyll", "concentration variable name")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := observability.NewLogger(*logLevel, "text")

	gapMonths, err := parseMonths(*gaps)
	if err != nil {
		logger.Error("invalid -gap-months", "error", err)
		os.Exit(1)
	}

	h := newHandler(options{
		step:       *step,
		nanRate:    *nanRate,
		forbidRate: *forbidRate,
		gapMonths:  gapMonths,
		variable:   *variable,
		suffix:     erddap.DefaultDatasetSuffix,
	}, logger)

	srv := &http.Server{Addr: *addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("mock erddap listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func parseMonths(s string) ([]time.Month, error) {
	var out []time.Month
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 12 {
			return nil, fmt.Errorf("bad month %q", part)
		}
		out = append(out, time.Month(n))
	}
	return out, nil
}

type handler struct {
	opts   options
	logger *slog.Logger
}

func newHandler(opts options, logger *slog.Logger) *handler {
	return &handler{opts: opts, logger: logger}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dataset, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".csv")
	code, ok2 := strings.CutSuffix(dataset, h.opts.suffix)
	if !ok || !ok2 || !knownCode(code) {
		http.Error(w, "Resource not found: dataset "+dataset, http.StatusNotFound)
		return
	}

	query, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		http.Error(w, "bad query", http.StatusBadRequest)
		return
	}
	variable, _, _ := strings.Cut(query, "[")
	constraints := constraintPattern.FindAllStringSubmatch(query, -1)
	if variable != h.opts.variable || len(constraints) != 3 {
		http.Error(w, "Query error: expected "+h.opts.variable+"[time][lat][lon]", http.StatusBadRequest)
		return
	}

	ts, err := time.Parse(time.RFC3339, constraints[0][1])
	if err != nil {
		http.Error(w, "Query error: bad time", http.StatusBadRequest)
		return
	}
	latMin, latMax, err1 := parseRange(constraints[1])
	lonMin, lonMax, err2 := parseRange(constraints[2])
	if err1 != nil || err2 != nil {
		http.Error(w, "Query error: bad lat/lon range", http.StatusBadRequest)
		return
	}

	rng := rand.New(rand.NewPCG(seed(code, ts), 0))
	log := h.logger.With("dataset", dataset, "time", ts.Format("2006-01"))

	if rng.Float64() < h.opts.forbidRate {
		log.Info("answering 403")
		http.Error(w, "Too many requests", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	fmt.Fprintf(w, "time,latitude,longitude,%s\n", h.opts.variable)
	fmt.Fprintf(w, "UTC,degrees_north,degrees_east,mg m-3\n")
	if slices.Contains(h.opts.gapMonths, ts.Month()) {
		log.Info("served empty month")
		return
	}

	stamp := ts.UTC().Format(time.RFC3339)
	cells := 0
	// Cells are reported at their centers, so every point lies strictly
	// inside the requested window.
	half := h.opts.step / 2
	for lat := latMin + half; lat <= latMax-half; lat += h.opts.step {
		for lon := lonMin + half; lon <= lonMax-half; lon += h.opts.step {
			value := "NaN"
			if rng.Float64() >= h.opts.nanRate {
				value = strconv.FormatFloat(0.2+rng.ExpFloat64()*4, 'f', 4, 64)
			}
			fmt.Fprintf(w, "%s,%.4f,%.4f,%s\n", stamp, lat, lon, value)
			cells++
		}
	}
	log.Info("served grid", "cells", cells)
}

func parseRange(m []string) (float64, float64, error) {
	lo, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func knownCode(code string) bool {
	for _, r := range domain.Regions() {
		if r.Code == code {
			return true
		}
	}
	return false
}

// seed makes each (dataset, month) grid reproducible across requests.
func seed(code string, ts time.Time) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(code + ts.Format("2006-01")))
	return h.Sum64()
}
