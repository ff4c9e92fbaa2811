package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron   *cron.Cron
	logger *log.Logger
}

func NewSchedulerService(loc *time.Location, logger *log.Logger) *SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger))),
		),
		logger: logger,
	}
}

// ScheduleDaily registers job to run every day at the given HH:MM. Each run
// gets its own context bounded by timeout.
func (s *SchedulerService) ScheduleDaily(timeStr string, timeout time.Duration, name string, job func(ctx context.Context) error) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, s.wrap(name, timeout, job))
}

func (s *SchedulerService) wrap(name string, timeout time.Duration, job func(ctx context.Context) error) func() {
	return func() {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.WithField("job", name).WithError(err).Error("scheduled job failed")
		}
	}
}

// Next reports when the entry fires next; zero if it is unknown.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
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
