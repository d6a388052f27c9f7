package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/observability"
)

// Fetcher downloads the raw griddap CSV for one pair.
type Fetcher interface {
	Fetch(ctx context.Context, region domain.Region, month domain.MonthKey) ([]byte, error)
}

// ArtifactStore persists artifacts. Write must refuse to replace an
// existing artifact with domain.ErrArtifactExists.
type ArtifactStore interface {
	Exists(region string, month domain.MonthKey) (bool, error)
	Write(region string, month domain.MonthKey, samples []domain.Sample) (string, error)
}

// Notifier announces newly written artifacts.
type Notifier interface {
	Publish(ctx context.Context, event domain.ArtifactEvent) error
}

// Options configures one run of the job.
type Options struct {
	Regions []domain.Region
	Months  []domain.MonthKey
	Resume  *domain.ResumeCursor
	Columns domain.GriddapColumns

	// Delay is the minimum spacing between griddap requests; zero disables it.
	Delay time.Duration

	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration

	// Clock drives backoff sleeps and timings; nil uses the real clock.
	Clock clockwork.Clock
}

// Outcome classifies how a pair finished.
type Outcome string

const (
	OutcomeWritten       Outcome = "written"
	OutcomeExisting      Outcome = "existing"
	OutcomeSkippedCursor Outcome = "skipped_cursor"
	OutcomeNoData        Outcome = "no_data"
	OutcomeFailed        Outcome = "failed"
)

// Summary counts pair outcomes for one run.
type Summary struct {
	Attempted       int `json:"attempted"`
	Written         int `json:"written"`
	Existing        int `json:"existing"`
	SkippedByCursor int `json:"skipped_by_cursor"`
	NoData          int `json:"no_data"`
	Failed          int `json:"failed"`
	Samples         int `json:"samples"`
}

func (s *Summary) record(o Outcome, samples int) {
	switch o {
	case OutcomeSkippedCursor:
		s.SkippedByCursor++
		return
	case OutcomeExisting:
		s.Existing++
		return
	case OutcomeWritten:
		s.Written++
		s.Samples += samples
	case OutcomeNoData:
		s.NoData++
	case OutcomeFailed:
		s.Failed++
	}
	s.Attempted++
}

// Job fetches, normalizes, and persists the chlorophyll grid for every
// configured (region, month) pair, strictly one pair at a time.
type Job struct {
	fetcher  Fetcher
	store    ArtifactStore
	notifier Notifier
	opts     Options
	limiter  *rate.Limiter
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	started  atomic.Bool

	mu     sync.Mutex
	status Status
}

// Status is a point-in-time view of a run, served on the ops endpoint.
type Status struct {
	Running   bool      `json:"running"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Current   string    `json:"current,omitempty"`
	Summary   Summary   `json:"summary"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// New creates a Job. Pass a nil notifier to disable artifact events.
func New(f Fetcher, s ArtifactStore, n Notifier, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Job {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var limiter *rate.Limiter
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}
	return &Job{
		fetcher:  f,
		store:    s,
		notifier: n,
		opts:     opts,
		limiter:  limiter,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the job has started iterating.
func (j *Job) CheckReadiness(_ context.Context) error {
	if !j.started.Load() {
		return errors.New("job has not started")
	}
	return nil
}

// Status reports the progress of the current or last run.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) setStatus(update func(*Status)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	update(&j.status)
}

// Run processes every pair and returns the outcome counts. Per-pair failures
// are logged and never stop the run; only context cancellation ends it early.
func (j *Job) Run(ctx context.Context) Summary {
	pairs := domain.Plan(j.opts.Regions, j.opts.Months, j.opts.Resume)

	attrs := []any{"pairs", len(pairs), "delay", j.opts.Delay, "max_retries", j.opts.MaxRetries}
	if j.opts.Resume != nil {
		attrs = append(attrs, "resume_from", j.opts.Resume.String())
	}
	j.logger.Info("job started", attrs...)

	j.metrics.JobRunning.Set(1)
	defer j.metrics.JobRunning.Set(0)
	start := j.clock.Now()
	j.setStatus(func(s *Status) {
		*s = Status{Running: true, Total: len(pairs), StartedAt: start}
	})
	j.started.Store(true)

	var summary Summary
	for i, pair := range pairs {
		if ctx.Err() != nil {
			j.logger.Info("job stopping", "reason", ctx.Err(), "next_region", pair.Region.Name, "next_month", pair.Month.String())
			break
		}
		j.setStatus(func(s *Status) { s.Current = pair.Region.Name + "/" + pair.Month.String() })

		outcome, samples := j.processPair(ctx, pair)
		j.metrics.Pairs.WithLabelValues(string(outcome)).Inc()
		summary.record(outcome, samples)

		j.setStatus(func(s *Status) {
			s.Processed = i + 1
			s.Summary = summary
		})
	}
	j.setStatus(func(s *Status) {
		s.Running = false
		s.Current = ""
	})

	j.logger.Info("job finished",
		"duration", j.clock.Since(start),
		"attempted", summary.Attempted,
		"written", summary.Written,
		"existing", summary.Existing,
		"skipped_by_cursor", summary.SkippedByCursor,
		"no_data", summary.NoData,
		"failed", summary.Failed,
		"samples", summary.Samples,
	)
	return summary
}

// processPair runs the existence check, fetch, parse, filter, and persist
// steps for one pair, returning its outcome and the samples written.
func (j *Job) processPair(ctx context.Context, pair domain.Pair) (Outcome, int) {
	region, month := pair.Region.Name, pair.Month.String()
	log := j.logger.With("region", region, "month", month)

	if pair.Skipped {
		log.Debug("skipping pair before resume point")
		return OutcomeSkippedCursor, 0
	}

	exists, err := j.store.Exists(region, pair.Month)
	if err != nil {
		log.Error("artifact check failed", "error", err)
		return OutcomeFailed, 0
	}
	if exists {
		log.Info("artifact exists, skipping fetch")
		return OutcomeExisting, 0
	}

	body, err := j.fetchWithRetry(ctx, pair, log)
	if err != nil {
		log.Error("fetch failed", "error", err)
		return OutcomeFailed, 0
	}

	res, err := domain.ParseGriddapCSV(body, j.opts.Columns)
	if errors.Is(err, domain.ErrNoData) {
		log.Info("no data rows in response")
		return OutcomeNoData, 0
	}
	if err != nil {
		log.Error("parse failed", "error", err)
		return OutcomeFailed, 0
	}
	if len(res.Samples) == 0 {
		log.Info("no valid samples, skipping artifact", "rows", res.Rows, "dropped", res.Dropped)
		return OutcomeNoData, 0
	}

	path, err := j.store.Write(region, pair.Month, res.Samples)
	if errors.Is(err, domain.ErrArtifactExists) {
		log.Info("artifact written by another run, keeping it", "path", path)
		return OutcomeExisting, 0
	}
	if err != nil {
		log.Error("write failed", "error", err)
		return OutcomeFailed, 0
	}

	log.Info("artifact written", "samples", len(res.Samples), "dropped", res.Dropped, "path", path)
	j.metrics.SamplesWritten.Add(float64(len(res.Samples)))
	j.publish(ctx, domain.NewArtifactEvent(pair.Region, pair.Month, len(res.Samples), path), log)

	return OutcomeWritten, len(res.Samples)
}

// fetchWithRetry issues the griddap request, retrying retryable failures with
// capped exponential backoff. Every attempt waits on the request limiter.
func (j *Job) fetchWithRetry(ctx context.Context, pair domain.Pair, log *slog.Logger) ([]byte, error) {
	backoff := j.opts.BackoffInitial

	for attempt := 0; ; attempt++ {
		if j.limiter != nil {
			if err := j.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		start := j.clock.Now()
		body, err := j.fetcher.Fetch(ctx, pair.Region, pair.Month)
		j.metrics.FetchDuration.Observe(j.clock.Since(start).Seconds())
		if err == nil {
			return body, nil
		}

		if attempt >= j.opts.MaxRetries || !isRetryable(ctx, err) {
			return nil, err
		}

		log.Warn("fetch failed, retrying", "error", err, "attempt", attempt+1, "backoff", backoff)
		j.metrics.FetchRetries.Inc()
		if !sleepWithContext(ctx, j.clock, backoff) {
			return nil, ctx.Err()
		}
		backoff = nextBackoff(backoff, j.opts.BackoffMax)
	}
}

func (j *Job) publish(ctx context.Context, event domain.ArtifactEvent, log *slog.Logger) {
	if j.notifier == nil {
		return
	}
	if err := j.notifier.Publish(ctx, event); err != nil {
		log.Warn("artifact event publish failed", "error", err)
		j.metrics.EventsPublished.WithLabelValues("error").Inc()
		return
	}
	j.metrics.EventsPublished.WithLabelValues("success").Inc()
}

// isRetryable treats errors that classify themselves (HTTP status errors) by
// their own verdict and anything else, such as transport failures, as
// transient. Cancellation is never retried.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var classified interface{ Retryable() bool }
	if errors.As(err, &classified) {
		return classified.Retryable()
	}
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
