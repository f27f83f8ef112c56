// Package schedule drives the background refresh work: periodic market data
// refreshes and the once-daily exchange-rate update. Jobs expose their next
// run time explicitly so schedules are testable without waiting in real time.
package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a repeating task. NextRun computes the next occurrence from the
// current time; the scheduler re-arms after every run, so a daily job stays
// pinned to its wall-clock hour regardless of process restarts mid-day.
type Job interface {
	Name() string
	NextRun(now time.Time) time.Time
	Run(ctx context.Context)
}

// IntervalJob runs at a fixed interval.
type IntervalJob struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
}

// Every creates a job that runs every interval.
func Every(name string, interval time.Duration, fn func(ctx context.Context)) *IntervalJob {
	return &IntervalJob{name: name, interval: interval, fn: fn}
}

func (j *IntervalJob) Name() string { return j.name }

func (j *IntervalJob) NextRun(now time.Time) time.Time {
	return now.Add(j.interval)
}

func (j *IntervalJob) Run(ctx context.Context) { j.fn(ctx) }

// DailyJob runs once a day at a fixed local wall-clock hour.
type DailyJob struct {
	name string
	hour int
	fn   func(ctx context.Context)
}

// DailyAt creates a job pinned to the given hour (0-23) of local time.
func DailyAt(name string, hour int, fn func(ctx context.Context)) *DailyJob {
	return &DailyJob{name: name, hour: hour, fn: fn}
}

func (j *DailyJob) Name() string { return j.name }

func (j *DailyJob) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), j.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, j.hour, 0, 0, 0, now.Location())
	}
	return next
}

func (j *DailyJob) Run(ctx context.Context) { j.fn(ctx) }

// Scheduler runs a set of jobs until its context is cancelled. A job's run
// overlapping a request-driven call is fine: readers keep serving the still
// valid cached value while the refresh is in flight.
type Scheduler struct {
	jobs []Job
	now  func() time.Time
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (s *Scheduler) WithNow(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Add registers a job.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Run blocks until ctx is cancelled, running every registered job on its
// own schedule.
func (s *Scheduler) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "schedule"))

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runJob(ctx, job, log)
		}(job)
	}
	wg.Wait()
	log.Info("scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, job Job, log *zap.Logger) {
	for {
		next := job.NextRun(s.now())
		delay := next.Sub(s.now())
		if delay < 0 {
			delay = 0
		}
		log.Debug("job armed",
			zap.String("job", job.Name()),
			zap.Time("next_run", next),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		started := s.now()
		job.Run(ctx)
		log.Info("job complete",
			zap.String("job", job.Name()),
			zap.Duration("took", s.now().Sub(started)),
		)
	}
}
