// Package scheduler submits recurring scrape tasks on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/addy0032/hate-speech-detection/internal/config"
)

// Submitter starts a scrape task and returns its id
type Submitter interface {
	Submit(sources []string, windowDays int) (string, error)
}

// Job is the body of a scheduled entry
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks
type Scheduler struct {
	cron     *cron.Cron
	mu       sync.Mutex
	jobs     map[string]cron.EntryID
	timezone *time.Location
	logger   *slog.Logger
}

// New creates a new scheduler with the given timezone
func New(timezone string, logger *slog.Logger) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		jobs:     make(map[string]cron.EntryID),
		timezone: loc,
		logger:   logger.With("component", "scheduler"),
	}, nil
}

// FromConfig creates a scheduler with one entry per configured job
func FromConfig(cfg config.ScheduleConfig, sub Submitter, logger *slog.Logger) (*Scheduler, error) {
	s, err := New(cfg.Timezone, logger)
	if err != nil {
		return nil, err
	}
	for _, j := range cfg.Jobs {
		if err := s.AddScrapeJob(j, sub); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddJob adds a job with a cron schedule
// schedule format: "0 7 * * *" (at 7:00 AM daily)
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("added job", "job", name, "schedule", schedule)
	return nil
}

// AddScrapeJob schedules a job that submits the configured sources
func (s *Scheduler) AddScrapeJob(j config.JobConfig, sub Submitter) error {
	if len(j.Sources) == 0 {
		return fmt.Errorf("job %s has no sources", j.Name)
	}
	return s.AddJob(j.Name, j.Cron, ScrapeJob(j, sub, s.logger))
}

// ScrapeJob returns a Job submitting j's sources. The task runs in the
// background; the job only records its id.
func ScrapeJob(j config.JobConfig, sub Submitter, logger *slog.Logger) Job {
	sources := append([]string(nil), j.Sources...)
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		id, err := sub.Submit(sources, j.WindowDays)
		if err != nil {
			return fmt.Errorf("failed to submit scrape: %w", err)
		}
		logger.Info("submitted scheduled scrape", "job", j.Name, "task", id, "sources", len(sources))
		return nil
	}
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s.logger.Info("starting job", "job", name)
	start := time.Now()

	if err := job(ctx); err != nil {
		s.logger.Error("job failed", "job", name, "error", err)
	} else {
		s.logger.Info("job completed", "job", name, "elapsed", time.Since(start))
	}
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		s.logger.Info("removed job", "job", name)
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", "timezone", s.timezone.String())
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running
// jobs have returned.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	return s.cron.Stop()
}

// RunNow immediately executes a scheduled job by name
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	entryID, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no job named %s", name)
	}

	s.logger.Info("running job now", "job", name)
	s.cron.Entry(entryID).Job.Run()
	return nil
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, entryID := range s.jobs {
		entry := s.cron.Entry(entryID)
		infos = append(infos, JobInfo{
			Name:    name,
			NextRun: entry.Next,
			LastRun: entry.Prev,
		})
	}
	return infos
}
