// Command chlfetch downloads the monthly Great Lakes chlorophyll grids from
// ERDDAP and writes one JSON artifact per (lake, month). Existing artifacts
// are never refetched, so the command can be rerun at any time to fill gaps.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/erddap"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/filestore"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/great-lakes-hab-etl/internal/adapter/kafka"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/config"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/observability"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/pipeline"
)

var (
	outputDir    string
	startMonth   string
	endMonth     string
	resumeRegion string
	resumeMonth  string
	delay        time.Duration
	retries      int
	regions      string
)

var rootCmd = &cobra.Command{
	Use:   "chlfetch",
	Short: "Fetch and normalize Great Lakes chlorophyll grids",
	Long: `Downloads the GLERL VIIRS monthly chlorophyll average for every lake and
month in range and writes {output}/{lake}/{YYYY-MM}.json. Flags override the
corresponding environment variables.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&outputDir, "output", "o", "", "artifact root directory (OUTPUT_DIR)")
	f.StringVar(&startMonth, "start", "", "first month, YYYY-MM (FETCH_START)")
	f.StringVar(&endMonth, "end", "", "last month, YYYY-MM (FETCH_END)")
	f.StringVar(&resumeRegion, "resume-region", "", "skip every pair before this lake (RESUME_REGION)")
	f.StringVar(&resumeMonth, "resume-month", "", "with --resume-region, skip that lake's months before this one (RESUME_MONTH)")
	f.DurationVar(&delay, "delay", 0, "minimum spacing between requests (FETCH_DELAY)")
	f.IntVar(&retries, "retries", 0, "retries for rate-limited or failed requests (FETCH_MAX_RETRIES)")
	f.StringVar(&regions, "regions", "", "comma-separated lakes to fetch (FETCH_REGIONS)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store := filestore.New(cfg.OutputDir)
	client := erddap.NewClient(cfg.ERDDAPBaseURL, cfg.ERDDAPDatasetSuffix, cfg.ERDDAPVariable, cfg.ERDDAPTimeout, logger)

	// Artifact notifications are feature-flagged via KAFKA_ENABLED.
	var notifier pipeline.Notifier
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		notifier = writer
		logger.Info("artifact notifications enabled", "topic", cfg.KafkaTopic)
	}

	job := pipeline.New(client, store, notifier, pipeline.Options{
		Regions:        cfg.Regions,
		Months:         cfg.Months(),
		Resume:         cfg.Resume,
		Columns:        domain.DefaultGriddapColumns(cfg.ERDDAPVariable),
		Delay:          cfg.FetchDelay,
		MaxRetries:     cfg.MaxRetries,
		BackoffInitial: cfg.BackoffInitial,
		BackoffMax:     cfg.BackoffMax,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, job, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops server error", "error", err)
			}
		}()
		defer shutdown(srv, cfg.ShutdownTimeout, logger)
	}

	logger.Info("fetching chlorophyll",
		"output", cfg.OutputDir,
		"start", cfg.Start.String(),
		"end", cfg.End.String(),
		"regions", regionNames(cfg.Regions),
	)
	job.Run(ctx)

	// Per-pair failures are logged and left for the next run; only an
	// interrupted run is reported to the caller.
	if ctx.Err() != nil {
		logger.Info("interrupted, rerun to continue")
	}
	return nil
}

// applyFlags copies explicitly set flags over the environment configuration
// and revalidates.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if f.Changed("start") {
		cfg.FetchStart = startMonth
	}
	if f.Changed("end") {
		cfg.FetchEnd = endMonth
	}
	if f.Changed("resume-region") {
		cfg.ResumeRegion = resumeRegion
	}
	if f.Changed("resume-month") {
		cfg.ResumeMonth = resumeMonth
	}
	if f.Changed("delay") {
		cfg.FetchDelay = delay
	}
	if f.Changed("retries") {
		cfg.MaxRetries = retries
	}
	if f.Changed("regions") {
		cfg.FetchRegions = cfg.FetchRegions[:0]
		for _, r := range strings.Split(regions, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.FetchRegions = append(cfg.FetchRegions, r)
			}
		}
	}
	return cfg.Validate()
}

func shutdown(srv *httpadapter.Server, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
}

func regionNames(rs []domain.Region) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}
