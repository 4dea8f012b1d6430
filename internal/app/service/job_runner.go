package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/pkg/metrics"
	"portfolio_aggregator/internal/pkg/tracing"
)

var (
	// ErrDuplicateID is returned when a job or fetcher id is registered twice.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrJobAlreadyRunning is returned when a run of the same job is in flight.
	ErrJobAlreadyRunning = errors.New("job already running")
	// ErrUnknownJob is returned for ids that were never registered.
	ErrUnknownJob = errors.New("unknown job")
)

// Default scheduling intervals per job label.
var DefaultJobIntervals = map[entity.JobLabel]time.Duration{ //nolint:gochecknoglobals
	entity.JobLabelNormal:   5 * time.Minute,
	entity.JobLabelCronjob:  time.Hour,
	entity.JobLabelRealtime: 30 * time.Second,
}

// JobRunnerConfig tunes scheduling, timeouts and retries.
type JobRunnerConfig struct {
	Intervals      map[entity.JobLabel]time.Duration
	Timeout        time.Duration
	MaxConcurrent  int
	MaxRetries     int
	InitialBackoff time.Duration
}

func (c JobRunnerConfig) withDefaults() JobRunnerConfig {
	intervals := make(map[entity.JobLabel]time.Duration, len(DefaultJobIntervals))
	for label, d := range DefaultJobIntervals {
		intervals[label] = d
	}
	for label, d := range c.Intervals {
		if d > 0 {
			intervals[label] = d
		}
	}
	c.Intervals = intervals
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = backoff.DefaultInitialInterval
	}
	return c
}

// JobRunner executes jobs against the shared cache, one at a time per job id,
// and schedules them by label.
type JobRunner struct {
	cache   port.Cache
	logger  port.Logger
	cfg     JobRunnerConfig
	metrics *metrics.Metrics
	tracer  trace.Tracer
	sem     chan struct{}
	now     func() time.Time

	mu       sync.Mutex
	jobs     map[string]port.Job
	order    []string
	statuses map[string]*entity.JobStatus
	running  map[string]bool

	loops sync.WaitGroup
}

var _ port.JobStatusProvider = (*JobRunner)(nil)

// NewJobRunner creates a JobRunner. m and tracer may be nil.
func NewJobRunner(cache port.Cache, logger port.Logger, cfg JobRunnerConfig, m *metrics.Metrics, tracer trace.Tracer) *JobRunner {
	cfg = cfg.withDefaults()
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &JobRunner{
		cache:    cache,
		logger:   logger,
		cfg:      cfg,
		metrics:  m,
		tracer:   tracer,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
		now:      time.Now,
		jobs:     make(map[string]port.Job),
		statuses: make(map[string]*entity.JobStatus),
		running:  make(map[string]bool),
	}
}

// Register adds jobs to the runner. Ids must be unique across all registrations.
func (r *JobRunner) Register(jobs ...port.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job.ID == "" || job.Executor == nil {
			return fmt.Errorf("job %q: id and executor are required", job.ID)
		}
		if _, dup := r.jobs[job.ID]; dup {
			return fmt.Errorf("job %q: %w", job.ID, ErrDuplicateID)
		}
		if _, dup := seen[job.ID]; dup {
			return fmt.Errorf("job %q: %w", job.ID, ErrDuplicateID)
		}
		if _, ok := r.cfg.Intervals[job.Label]; !ok {
			return fmt.Errorf("job %q: unknown label %q", job.ID, job.Label)
		}
		seen[job.ID] = struct{}{}
	}
	for _, job := range jobs {
		r.jobs[job.ID] = job
		r.order = append(r.order, job.ID)
		r.statuses[job.ID] = &entity.JobStatus{ID: job.ID, Label: job.Label, State: entity.JobStateIdle}
	}
	return nil
}

// Jobs returns the registered jobs in registration order.
func (r *JobRunner) Jobs() []port.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]port.Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.jobs[id])
	}
	return out
}

// RunByID runs a registered job once.
func (r *JobRunner) RunByID(ctx context.Context, id string) error {
	r.mu.Lock()
	job, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return r.RunOnce(ctx, job)
}

// RunOnce executes job once with the configured timeout per attempt.
// Transport failures are retried with exponential backoff; any other
// failure ends the run. A second concurrent run of the same id is refused.
func (r *JobRunner) RunOnce(ctx context.Context, job port.Job) error {
	if !r.begin(job) {
		if r.metrics != nil {
			r.metrics.JobRuns.WithLabelValues(job.ID, metrics.OutcomeSkipped).Inc()
		}
		return fmt.Errorf("job %s: %w", job.ID, ErrJobAlreadyRunning)
	}

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		r.finish(job.ID, 0, ctx.Err())
		return ctx.Err()
	}
	defer func() { <-r.sem }()

	ctx, span := r.tracer.Start(ctx, "job.run", trace.WithAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("job.label", string(job.Label)),
	))
	defer span.End()

	if r.metrics != nil {
		r.metrics.JobsRunning.Inc()
		defer r.metrics.JobsRunning.Dec()
	}

	started := r.now()
	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		if attempts > 1 && r.metrics != nil {
			r.metrics.JobRetries.WithLabelValues(job.ID).Inc()
		}
		err := r.attempt(ctx, job)
		if err != nil && !entity.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(uint(r.cfg.MaxRetries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.logger.Warn("Job attempt failed, retrying", "job", job.ID, "retry_in", next.String(), "error", err)
		}),
	)
	took := r.now().Sub(started)

	span.SetAttributes(attribute.Int("job.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.ObserveJob(job.ID, metrics.OutcomeFailure, took)
		r.logger.Error("Job failed", "job", job.ID, "attempts", attempts, "retryable", entity.IsRetryable(err), "error", err)
	} else {
		r.metrics.ObserveJob(job.ID, metrics.OutcomeSuccess, took)
		r.logger.Debug("Job succeeded", "job", job.ID, "took_ms", took.Milliseconds())
	}
	r.finish(job.ID, took, err)
	return err
}

func (r *JobRunner) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialBackoff
	return b
}

func (r *JobRunner) attempt(ctx context.Context, job port.Job) error {
	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	err := job.Executor(attemptCtx, r.cache)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, entity.ErrTransport) {
		// the attempt timed out, the caller did not
		err = fmt.Errorf("%w: job %s timed out after %s: %w", entity.ErrTransport, job.ID, r.cfg.Timeout, err)
	}
	return err
}

func (r *JobRunner) begin(job port.Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[job.ID] {
		return false
	}
	r.running[job.ID] = true
	st, ok := r.statuses[job.ID]
	if !ok {
		st = &entity.JobStatus{ID: job.ID, Label: job.Label}
		r.statuses[job.ID] = st
	}
	st.State = entity.JobStateRunning
	st.LastRunAt = r.now().UnixMilli()
	return true
}

func (r *JobRunner) finish(id string, took time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, id)
	st := r.statuses[id]
	st.Runs++
	st.DurationMs = took.Milliseconds()
	if err != nil {
		st.State = entity.JobStateFailed
		st.LastError = err.Error()
		return
	}
	st.State = entity.JobStateSucceeded
	st.LastError = ""
}

// RunAll runs every registered job once, concurrently, and waits for all of them.
func (r *JobRunner) RunAll(ctx context.Context) error {
	jobs := r.Jobs()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		merr *multierror.Error
	)
	for _, job := range jobs {
		wg.Add(1)
		go func(j port.Job) {
			defer wg.Done()
			if err := r.RunOnce(ctx, j); err != nil {
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
			}
		}(job)
	}
	wg.Wait()
	return merr.ErrorOrNil()
}

// Start schedules every registered job on the interval of its label. Each
// job runs immediately and then on every tick until ctx is done. A tick that
// finds the previous run still in flight is skipped.
func (r *JobRunner) Start(ctx context.Context) {
	for _, job := range r.Jobs() {
		interval := r.cfg.Intervals[job.Label]
		r.loops.Add(1)
		go r.loop(ctx, job, interval)
	}
	r.logger.Info("Job scheduler started", "jobs", len(r.order))
}

// Wait blocks until every loop started by Start and its runs have returned.
func (r *JobRunner) Wait() {
	r.loops.Wait()
}

func (r *JobRunner) loop(ctx context.Context, job port.Job, interval time.Duration) {
	defer r.loops.Done()

	run := func() {
		if err := r.RunOnce(ctx, job); errors.Is(err, ErrJobAlreadyRunning) {
			r.logger.Debug("Previous run still in flight, skipping tick", "job", job.ID)
		}
	}

	spawn := func() {
		r.loops.Add(1)
		go func() {
			defer r.loops.Done()
			run()
		}()
	}

	spawn()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			spawn()
		}
	}
}

// Status returns the last known status of a job.
func (r *JobRunner) Status(id string) (entity.JobStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.statuses[id]
	if !ok {
		return entity.JobStatus{}, false
	}
	return *st, true
}

// Statuses returns a snapshot of all job statuses sorted by id.
func (r *JobRunner) Statuses() []entity.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.JobStatus, 0, len(r.statuses))
	for _, st := range r.statuses {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
