package ndbc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/observability"
)

// DefaultBaseURL serves the NDBC realtime2 station feeds.
const DefaultBaseURL = "https://www.ndbc.noaa.gov/data/realtime2"

// Fetcher returns the latest reading for a station.
type Fetcher interface {
	Fetch(ctx context.Context, station string) (domain.Reading, error)
}

// Client fetches and parses NDBC realtime2 text feeds.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NDBC feed client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch downloads {baseURL}/{station}.txt and returns its newest observation.
func (c *Client) Fetch(ctx context.Context, station string) (domain.Reading, error) {
	reading, err := c.fetch(ctx, station)
	if err != nil {
		c.metrics.BuoyFetches.WithLabelValues("error").Inc()
		return domain.Reading{}, err
	}
	c.metrics.BuoyFetches.WithLabelValues("success").Inc()
	return reading, nil
}

func (c *Client) fetch(ctx context.Context, station string) (domain.Reading, error) {
	u := fmt.Sprintf("%s/%s.txt", c.baseURL, station)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("station %s request: %w", station, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Reading{}, fmt.Errorf("station %s: ndbc status %d", station, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return domain.Reading{}, fmt.Errorf("station %s: read body: %w", station, err)
	}
	return domain.ParseNDBCRealtime(station, string(body))
}
