package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	OutputDir string

	ERDDAPBaseURL       string
	ERDDAPDatasetSuffix string
	ERDDAPVariable      string
	ERDDAPTimeout       time.Duration

	// Job range and resume point, in their configured string form.
	FetchStart   string
	FetchEnd     string
	FetchRegions []string
	ResumeRegion string
	ResumeMonth  string

	FetchDelay     time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// Artifact notifications (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr string // ops server for the job; empty disables it
	APIAddr  string

	NDBCBaseURL       string
	NDBCTimeout       time.Duration
	BuoyListPath      string
	BuoyCacheTTL      time.Duration
	BuoyCacheSize     int
	ArtifactCacheSize int

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Derived by Validate.
	Start   domain.MonthKey
	End     domain.MonthKey
	Regions []domain.Region
	Resume  *domain.ResumeCursor
}

// Load reads configuration from environment variables (and an optional .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	erddapTimeout, err := parseDuration("ERDDAP_TIMEOUT", "60s", false)
	if err != nil {
		return nil, err
	}
	fetchDelay, err := parseDuration("FETCH_DELAY", "1s", true)
	if err != nil {
		return nil, err
	}
	backoffInitial, err := parseDuration("FETCH_BACKOFF_INITIAL", "2s", false)
	if err != nil {
		return nil, err
	}
	backoffMax, err := parseDuration("FETCH_BACKOFF_MAX", "30s", false)
	if err != nil {
		return nil, err
	}
	maxRetries, err := parseInt("FETCH_MAX_RETRIES", 2, 0)
	if err != nil {
		return nil, err
	}
	ndbcTimeout, err := parseDuration("NDBC_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	buoyCacheTTL, err := parseDuration("BUOY_CACHE_TTL", "5m", false)
	if err != nil {
		return nil, err
	}
	buoyCacheSize, err := parseInt("BUOY_CACHE_SIZE", 64, 1)
	if err != nil {
		return nil, err
	}
	artifactCacheSize, err := parseInt("API_ARTIFACT_CACHE_SIZE", 128, 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OutputDir:           sharedcfg.EnvOrDefault("OUTPUT_DIR", "data"),
		ERDDAPBaseURL:       sharedcfg.EnvOrDefault("ERDDAP_BASE_URL", "https://apps.glerl.noaa.gov/erddap/griddap"),
		ERDDAPDatasetSuffix: sharedcfg.EnvOrDefault("ERDDAP_DATASET_SUFFIX", "_CHL_VIIRS_Monthly_Avg"),
		ERDDAPVariable:      sharedcfg.EnvOrDefault("ERDDAP_VARIABLE", "Chlorophyll"),
		ERDDAPTimeout:       erddapTimeout,

		FetchStart:   sharedcfg.EnvOrDefault("FETCH_START", "2018-05"),
		FetchEnd:     sharedcfg.EnvOrDefault("FETCH_END", "2024-05"),
		FetchRegions: splitList(os.Getenv("FETCH_REGIONS")),
		ResumeRegion: strings.TrimSpace(os.Getenv("RESUME_REGION")),
		ResumeMonth:  strings.TrimSpace(os.Getenv("RESUME_MONTH")),

		FetchDelay:     fetchDelay,
		MaxRetries:     maxRetries,
		BackoffInitial: backoffInitial,
		BackoffMax:     backoffMax,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "chlorophyll-artifacts"),

		HTTPAddr: os.Getenv("HTTP_ADDR"),
		APIAddr:  sharedcfg.EnvOrDefault("API_ADDR", ":8080"),

		NDBCBaseURL:       sharedcfg.EnvOrDefault("NDBC_BASE_URL", "https://www.ndbc.noaa.gov/data/realtime2"),
		NDBCTimeout:       ndbcTimeout,
		BuoyListPath:      os.Getenv("BUOY_LIST_PATH"),
		BuoyCacheTTL:      buoyCacheTTL,
		BuoyCacheSize:     buoyCacheSize,
		ArtifactCacheSize: artifactCacheSize,

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints and fills the derived fields. It is
// safe to call again after command-line overrides.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	if c.ERDDAPBaseURL == "" {
		return errors.New("ERDDAP_BASE_URL is required")
	}
	if c.ERDDAPVariable == "" {
		return errors.New("ERDDAP_VARIABLE is required")
	}

	start, err := domain.ParseMonthKey(c.FetchStart)
	if err != nil {
		return fmt.Errorf("invalid FETCH_START: %w", err)
	}
	end, err := domain.ParseMonthKey(c.FetchEnd)
	if err != nil {
		return fmt.Errorf("invalid FETCH_END: %w", err)
	}
	if end.Before(start) {
		return errors.New("FETCH_END is before FETCH_START")
	}

	regions, err := domain.SelectRegions(c.FetchRegions)
	if err != nil {
		return fmt.Errorf("invalid FETCH_REGIONS: %w", err)
	}

	resume, err := domain.ParseResumeCursor(c.ResumeRegion, c.ResumeMonth)
	if err != nil {
		return fmt.Errorf("invalid RESUME_REGION/RESUME_MONTH: %w", err)
	}

	if c.MaxRetries < 0 {
		return errors.New("invalid FETCH_MAX_RETRIES")
	}
	if c.FetchDelay < 0 {
		return errors.New("invalid FETCH_DELAY")
	}
	if c.BackoffMax < c.BackoffInitial {
		return errors.New("FETCH_BACKOFF_MAX is below FETCH_BACKOFF_INITIAL")
	}

	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	c.Start = start
	c.End = end
	c.Regions = regions
	c.Resume = resume
	return nil
}

// Months returns the configured month range, oldest first.
func (c *Config) Months() []domain.MonthKey {
	return domain.MonthRange(c.Start, c.End)
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, minValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < minValue {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
