package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var ErrUnknownJob = errors.New("unknown job")

// Job is one periodic task. Run returns a JSON-friendly summary.
type Job struct {
	Name     string
	Schedule Schedule
	Run      func(ctx context.Context, now time.Time) (any, error)
}

// Runner executes jobs on a fixed tick. Due jobs of one tick run
// concurrently; a tick waits for all of them before the next one starts.
type Runner struct {
	interval time.Duration
	jobs     map[string]Job
	now      func() time.Time

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func New(interval time.Duration, jobs ...Job) *Runner {
	if interval <= 0 {
		interval = time.Hour
	}
	r := &Runner{
		interval: interval,
		jobs:     make(map[string]Job, len(jobs)),
		now:      func() time.Time { return time.Now().UTC() },
		lastRun:  make(map[string]time.Time),
	}
	for _, j := range jobs {
		r.jobs[j.Name] = j
	}
	return r
}

// Names lists the registered jobs in name order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunJob runs one job immediately, ignoring its schedule.
func (r *Runner) RunJob(ctx context.Context, name string, now time.Time) (any, error) {
	job, ok := r.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownJob, name)
	}
	return r.run(ctx, job, now)
}

// RunOnce runs every job immediately and returns the first error.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) (map[string]any, error) {
	return r.runAll(ctx, now, r.Names())
}

// Tick runs the jobs whose schedule is due at now.
func (r *Runner) Tick(ctx context.Context, now time.Time) (map[string]any, error) {
	var due []string
	r.mu.Lock()
	for _, name := range r.Names() {
		if r.jobs[name].Schedule.Due(r.lastRun[name], now) {
			due = append(due, name)
		}
	}
	r.mu.Unlock()
	return r.runAll(ctx, now, due)
}

func (r *Runner) runAll(ctx context.Context, now time.Time, names []string) (map[string]any, error) {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make(map[string]any, len(names))
	)
	for _, name := range names {
		job := r.jobs[name]
		g.Go(func() error {
			res, err := r.run(ctx, job, now)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			mu.Lock()
			results[job.Name] = res
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

func (r *Runner) run(ctx context.Context, job Job, now time.Time) (any, error) {
	start := time.Now()
	res, err := job.Run(ctx, now)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		slog.Error("scheduled job failed", "job", job.Name, "error", err, "action", "job_"+job.Name, "latency_ms", latency)
		return nil, err
	}
	r.mu.Lock()
	r.lastRun[job.Name] = now
	r.mu.Unlock()
	slog.Info("scheduled job completed", "job", job.Name, "latency_ms", latency)
	return res, nil
}

// Run ticks until ctx is cancelled. The first tick happens immediately.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	slog.Info("scheduler started", "interval", r.interval.String(), "jobs", len(r.jobs))
	for {
		if _, err := r.Tick(ctx, r.now()); err != nil && ctx.Err() == nil {
			slog.Warn("scheduler tick finished with errors", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
