package ndbc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls int
	err   error
}

func (m *countingFetcher) Fetch(_ context.Context, station string) (domain.Reading, error) {
	m.calls++
	if m.err != nil {
		return domain.Reading{}, m.err
	}
	return domain.Reading{Station: station}, nil
}

func TestCachedClient_Hit(t *testing.T) {
	inner := &countingFetcher{}
	cached := NewCachedClient(inner, 10, time.Minute, observability.NewMetricsForTesting())

	r1, err := cached.Fetch(context.Background(), "45005")
	require.NoError(t, err)
	r2, err := cached.Fetch(context.Background(), "45005")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedClient_DifferentStationsMiss(t *testing.T) {
	inner := &countingFetcher{}
	cached := NewCachedClient(inner, 10, time.Minute, observability.NewMetricsForTesting())

	_, _ = cached.Fetch(context.Background(), "45005")
	_, _ = cached.Fetch(context.Background(), "45132")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedClient_ErrorsNotCached(t *testing.T) {
	inner := &countingFetcher{err: errors.New("upstream down")}
	cached := NewCachedClient(inner, 10, time.Minute, observability.NewMetricsForTesting())

	_, err := cached.Fetch(context.Background(), "45005")
	require.Error(t, err)
	_, err = cached.Fetch(context.Background(), "45005")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedClient_Expires(t *testing.T) {
	inner := &countingFetcher{}
	cached := NewCachedClient(inner, 10, 20*time.Millisecond, observability.NewMetricsForTesting())

	_, _ = cached.Fetch(context.Background(), "45005")
	time.Sleep(60 * time.Millisecond)
	_, _ = cached.Fetch(context.Background(), "45005")

	assert.Equal(t, 2, inner.calls)
}
