package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.OutputDir)
	assert.Equal(t, "https://apps.glerl.noaa.gov/erddap/griddap", cfg.ERDDAPBaseURL)
	assert.Equal(t, "_CHL_VIIRS_Monthly_Avg", cfg.ERDDAPDatasetSuffix)
	assert.Equal(t, "Chlorophyll", cfg.ERDDAPVariable)
	assert.Equal(t, 60*time.Second, cfg.ERDDAPTimeout)
	assert.Equal(t, "2018-05", cfg.Start.String())
	assert.Equal(t, "2024-05", cfg.End.String())
	assert.Len(t, cfg.Months(), 73)
	assert.Len(t, cfg.Regions, 5)
	assert.Nil(t, cfg.Resume)
	assert.Equal(t, time.Second, cfg.FetchDelay)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.BackoffInitial)
	assert.Equal(t, 30*time.Second, cfg.BackoffMax)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "chlorophyll-artifacts", cfg.KafkaTopic)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, 5*time.Minute, cfg.BuoyCacheTTL)
	assert.Equal(t, 64, cfg.BuoyCacheSize)
	assert.Equal(t, 128, cfg.ArtifactCacheSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/srv/hab")
	t.Setenv("FETCH_START", "2023-01")
	t.Setenv("FETCH_END", "2023-12")
	t.Setenv("FETCH_REGIONS", "ontario, erie")
	t.Setenv("RESUME_REGION", "ontario")
	t.Setenv("RESUME_MONTH", "2023-11")
	t.Setenv("FETCH_DELAY", "0s")
	t.Setenv("FETCH_MAX_RETRIES", "0")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/hab", cfg.OutputDir)
	assert.Len(t, cfg.Months(), 12)
	require.Len(t, cfg.Regions, 2)
	assert.Equal(t, "erie", cfg.Regions[0].Name)
	assert.Equal(t, "ontario", cfg.Regions[1].Name)
	require.NotNil(t, cfg.Resume)
	assert.Equal(t, "ontario/2023-11", cfg.Resume.String())
	assert.Zero(t, cfg.FetchDelay)
	assert.Zero(t, cfg.MaxRetries)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidEnv(t *testing.T) {
	cases := map[string][2]string{
		"SHUTDOWN_TIMEOUT":      {"SHUTDOWN_TIMEOUT", "not-a-duration"},
		"ERDDAP_TIMEOUT":        {"ERDDAP_TIMEOUT", "0s"},
		"FETCH_DELAY":           {"FETCH_DELAY", "-1s"},
		"FETCH_MAX_RETRIES":     {"FETCH_MAX_RETRIES", "-1"},
		"FETCH_START":           {"FETCH_START", "2018-5"},
		"FETCH_END":             {"FETCH_END", "2024-13"},
		"FETCH_REGIONS":         {"FETCH_REGIONS", "erie,baikal"},
		"RESUME_REGION":         {"RESUME_REGION", "victoria"},
		"BUOY_CACHE_SIZE":       {"BUOY_CACHE_SIZE", "0"},
		"FETCH_BACKOFF_INITIAL": {"FETCH_BACKOFF_INITIAL", "soon"},
	}
	for want, kv := range cases {
		t.Run(kv[0], func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestLoad_EndBeforeStart(t *testing.T) {
	t.Setenv("FETCH_START", "2024-05")
	t.Setenv("FETCH_END", "2024-04")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_END")
}

func TestLoad_ResumeMonthWithoutRegion(t *testing.T) {
	t.Setenv("RESUME_MONTH", "2023-11")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESUME_REGION")
}

func TestLoad_BackoffMaxBelowInitial(t *testing.T) {
	t.Setenv("FETCH_BACKOFF_INITIAL", "10s")
	t.Setenv("FETCH_BACKOFF_MAX", "5s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_BACKOFF_MAX")
}

func TestValidate_AfterOverride(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.FetchStart = "2022-01"
	cfg.FetchEnd = "2022-03"
	cfg.ResumeRegion = "erie"
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Months(), 3)
	require.NotNil(t, cfg.Resume)
	assert.Equal(t, "erie", cfg.Resume.Region)
}
