// Package scheduler provides cron-based scheduling for the loan expiry scan.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nftpawnshop/backend/internal/service"
	"github.com/robfig/cron/v3"
)

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a cron expression for when to run the scan (e.g., "0 * * * *" for hourly)
	Schedule string
	// Timeout is the maximum duration for a complete scan
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
	// Interval, when set, is the spacing every run must keep. Start rejects
	// schedules that fire at any other spacing.
	Interval time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "0 0 * * *", // Daily at midnight UTC
		Timeout:  5 * time.Minute,
		Enabled:  true,
		Interval: 24 * time.Hour,
	}
}

// Scanner runs one expiry scan for the given unix timestamp.
type Scanner interface {
	RunScan(ctx context.Context, current int64) (*service.ScanResult, error)
}

// Scheduler manages the scheduled expiry scan
type Scheduler struct {
	cron    *cron.Cron
	scanner Scanner
	config  Config
	logger  *slog.Logger
	entryID cron.EntryID
	job     cron.Job
	now     func() time.Time
}

// New creates a new Scheduler instance
func New(cfg Config, scanner Scanner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		scanner: scanner,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}

	// Scheduled and manual runs share one wrapped job, so they never overlap.
	cronLog := cronLogger{logger: logger}
	s.job = cron.NewChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	).Then(cron.FuncJob(s.runScanJob))
	s.cron = cron.New(cron.WithParser(scheduleParser), cron.WithLocation(time.UTC), cron.WithLogger(cronLog))
	return s
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	sched, err := parseSchedule(s.config.Schedule)
	if err != nil {
		return err
	}
	if s.config.Interval > 0 {
		if err := checkSpacing(sched, s.config.Interval, s.now().UTC()); err != nil {
			return err
		}
	}

	s.entryID = s.cron.Schedule(sched, s.job)
	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate scan. It is skipped if a scan is in progress.
func (s *Scheduler) RunNow() {
	go s.job.Run()
}

// runScanJob executes one expiry scan
func (s *Scheduler) runScanJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	startTime := s.now()
	s.logger.Info("Starting scheduled expiry scan",
		slog.Time("start_time", startTime),
	)

	result, err := s.scanner.RunScan(ctx, startTime.Unix())
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Expiry scan failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return
	}

	if result.Skipped {
		s.logger.Info("Expiry scan skipped by kill switch")
		return
	}

	s.logger.Info("Expiry scan completed successfully",
		slog.Int("approaching", result.Approaching),
		slog.Int("past_due", result.PastDue),
		slog.Int("rejected", result.Rejected),
		slog.Int64("cursor", result.Cursor),
		slog.Duration("duration", duration),
	)
}

// GetNextRunTime returns the next scheduled run time
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRunTime returns the last run time
func (s *Scheduler) GetLastRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Prev
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}

var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// parseSchedule accepts a standard 5-field expression or a descriptor such
// as "@every 24h".
func parseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "@") {
		// Convert standard cron (5 fields) to cron with seconds (6 fields)
		expr = "0 " + expr
	}
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	return sched, nil
}

// checkSpacing walks a week of runs from start and fails on the first gap
// that differs from interval.
func checkSpacing(sched cron.Schedule, interval time.Duration, start time.Time) error {
	horizon := start.Add(7*24*time.Hour + interval)
	prev := sched.Next(start)
	for i := 0; i < 2 || prev.Before(horizon); i++ {
		next := sched.Next(prev)
		if gap := next.Sub(prev); gap != interval {
			return fmt.Errorf("schedule fires %s apart at %s, expected one run every %s",
				gap, prev.Format(time.RFC3339), interval)
		}
		prev = next
	}
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
