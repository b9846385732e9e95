package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a scheduled unit of work. The context is cancelled after the job
// timeout.
type Job func(ctx context.Context) error

// JobObserver is told about every finished job run.
type JobObserver interface {
	RecordJob(name string, err error)
}

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron     *cron.Cron
	log      *logrus.Logger
	timeout  time.Duration
	observer JobObserver
}

func NewSchedulerService(loc *time.Location, log *logrus.Logger, jobTimeout time.Duration) *SchedulerService {
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}
	return &SchedulerService{
		cron:    cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		log:     log,
		timeout: jobTimeout,
	}
}

func (s *SchedulerService) WithObserver(o JobObserver) *SchedulerService {
	s.observer = o
	return s
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, job Job) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, s.wrap(name, job))
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job Job) (cron.EntryID, error) {
	spec, err := buildIntervalSpec(interval)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, s.wrap(name, job))
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *SchedulerService) wrap(name string, job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		entry := s.log.WithField("job", name)
		err := job(ctx)
		if s.observer != nil {
			s.observer.RecordJob(name, err)
		}
		if err != nil {
			entry.WithError(err).Error("scheduled job failed")
			return
		}
		entry.WithField("duration", time.Since(start)).Debug("scheduled job done")
	}
}

func buildIntervalSpec(interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("@every %ds", seconds), nil
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
