package erddap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://apps.glerl.noaa.gov/erddap/griddap"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, "", "Chlorophyll", 5*time.Second, discardLogger())
}

func TestBuildURL_MatchesGLERLQuery(t *testing.T) {
	huron, ok := domain.LookupRegion("huron")
	require.True(t, ok)

	got := BuildURL(testBaseURL, "LH_CHL_VIIRS_Monthly_Avg", "Chlorophyll", huron.Bounds, domain.MonthKey{Year: 2020, Month: time.May})

	want := "https://apps.glerl.noaa.gov/erddap/griddap/LH_CHL_VIIRS_Monthly_Avg.csv?Chlorophyll" +
		"%5B(2020-05-15T12:00:00Z):1:(2020-05-15T12:00:00Z)%5D" +
		"%5B(42.9276153373726):1:(46.5127142483862)%5D" +
		"%5B(-85.1764000001763):1:(-79.8238439100497)%5D"
	assert.Equal(t, want, got)
}

func TestClient_URLUsesRegionCode(t *testing.T) {
	c := testClient(testBaseURL + "/")
	erie, _ := domain.LookupRegion("erie")

	u := c.URL(erie, domain.MonthKey{Year: 2023, Month: time.November})
	assert.Contains(t, u, "/griddap/LE_CHL_VIIRS_Monthly_Avg.csv?Chlorophyll%5B(2023-11-15T12:00:00Z)")
	assert.NotContains(t, u, "griddap//")
}

func TestClient_Fetch_Success(t *testing.T) {
	body := "latitude,longitude,Chlorophyll\ndegrees_north,degrees_east,mg m-3\n41.7,-83.3,2.5\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/LE_CHL_VIIRS_Monthly_Avg.csv", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "Chlorophyll")
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	erie, _ := domain.LookupRegion("erie")
	got, err := testClient(srv.URL).Fetch(context.Background(), erie, domain.MonthKey{Year: 2020, Month: time.May})
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestClient_Fetch_BodyTooLarge(t *testing.T) {
	body := "latitude,longitude,Chlorophyll\n41.7,-83.3,2.5\n41.8,-83.2,3\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	erie, _ := domain.LookupRegion("erie")
	month := domain.MonthKey{Year: 2020, Month: time.May}

	c := testClient(srv.URL)
	c.maxBody = int64(len(body)) - 1
	got, err := c.Fetch(context.Background(), erie, month)
	require.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Nil(t, got)

	c.maxBody = int64(len(body))
	got, err = c.Fetch(context.Background(), erie, month)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestClient_Fetch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Too many requests"))
	}))
	defer srv.Close()

	erie, _ := domain.LookupRegion("erie")
	_, err := testClient(srv.URL).Fetch(context.Background(), erie, domain.MonthKey{Year: 2020, Month: time.May})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.True(t, statusErr.Retryable())
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "Too many requests")
}

func TestStatusError_Retryable(t *testing.T) {
	assert.True(t, (&StatusError{Code: 429}).Retryable())
	assert.True(t, (&StatusError{Code: 503}).Retryable())
	assert.False(t, (&StatusError{Code: 404}).Retryable())
	assert.False(t, (&StatusError{Code: 400}).Retryable())
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "Chlorophyll", 50*time.Millisecond, discardLogger())
	erie, _ := domain.LookupRegion("erie")
	_, err := c.Fetch(context.Background(), erie, domain.MonthKey{Year: 2020, Month: time.May})
	require.Error(t, err)
}
