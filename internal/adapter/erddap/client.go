package erddap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
)

// DefaultDatasetSuffix follows the lake code in GLERL's monthly VIIRS dataset IDs.
const DefaultDatasetSuffix = "_CHL_VIIRS_Monthly_Avg"

// maxBodyBytes caps a griddap response; a full Lake Superior grid is well below it.
const maxBodyBytes = 64 << 20

// ErrBodyTooLarge is returned when a griddap response exceeds the body cap.
// A truncated grid must never reach the artifact store.
var ErrBodyTooLarge = errors.New("erddap: response body too large")

// StatusError is returned for a non-2xx griddap response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("erddap: status %s", e.Status)
	}
	return fmt.Sprintf("erddap: status %s: %s", e.Status, e.Body)
}

// Retryable reports whether the status is worth another attempt: rate
// limiting (GLERL answers sustained load with 403) and server errors.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusForbidden || e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client downloads monthly chlorophyll grids from an ERDDAP griddap server.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	datasetSuffix string
	variable      string
	maxBody       int64
	logger        *slog.Logger
}

// NewClient creates a griddap client. An empty suffix selects DefaultDatasetSuffix.
func NewClient(baseURL, datasetSuffix, variable string, timeout time.Duration, logger *slog.Logger) *Client {
	if datasetSuffix == "" {
		datasetSuffix = DefaultDatasetSuffix
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:       strings.TrimRight(baseURL, "/"),
		datasetSuffix: datasetSuffix,
		variable:      variable,
		maxBody:       maxBodyBytes,
		logger:        logger,
	}
}

// Variable is the concentration variable requested from the dataset.
func (c *Client) Variable() string {
	return c.variable
}

// URL builds the griddap CSV query for one region and month.
func (c *Client) URL(region domain.Region, month domain.MonthKey) string {
	return BuildURL(c.baseURL, region.Code+c.datasetSuffix, c.variable, region.Bounds, month)
}

// BuildURL renders
//
//	{base}/{dataset}.csv?{var}[(ts):1:(ts)][(latMin):1:(latMax)][(lonMin):1:(lonMax)]
//
// with the brackets percent-encoded, as ERDDAP expects.
func BuildURL(baseURL, dataset, variable string, box domain.BoundingBox, month domain.MonthKey) string {
	ts := month.Timestamp().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteString("/")
	b.WriteString(dataset)
	b.WriteString(".csv?")
	b.WriteString(variable)
	writeAxis(&b, ts, ts)
	writeAxis(&b, formatCoord(box.LatMin), formatCoord(box.LatMax))
	writeAxis(&b, formatCoord(box.LonMin), formatCoord(box.LonMax))
	return b.String()
}

func writeAxis(b *strings.Builder, lo, hi string) {
	fmt.Fprintf(b, "%%5B(%s):1:(%s)%%5D", lo, hi)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Fetch issues a single GET for the pair and returns the raw CSV body.
// Non-2xx responses return a *StatusError.
func (c *Client) Fetch(ctx context.Context, region domain.Region, month domain.MonthKey) ([]byte, error) {
	u := c.URL(region, month)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.logger.Debug("griddap request", "region", region.Name, "month", month.String(), "url", u)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("griddap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBody)
	}
	return body, nil
}
