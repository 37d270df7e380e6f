package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-production-service/internal/logger"
)

const runTimeout = 2 * time.Minute

// Scheduler runs the daily summary on a cron schedule. archive and notifier
// are optional.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	svc      *Service
	archive  Archive
	notifier Notifier
	logger   logger.ZapLogger
}

func NewScheduler(schedule string, loc *time.Location, svc *Service, archive Archive, notifier Notifier, log logger.ZapLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		svc:      svc,
		archive:  archive,
		notifier: notifier,
		logger:   log,
	}
}

func (s *Scheduler) Start() error {
	s.logger.Info("starting report scheduler", zap.String("schedule", s.schedule))

	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if err := s.RunOnce(ctx, time.Now()); err != nil {
			s.logger.Error("daily production report failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running report to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping report scheduler")
	<-s.cron.Stop().Done()
}

// RunOnce builds the summary for the day of now, then archives and sends it.
// Delivery failures are joined so one sink does not block the other.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) error {
	summary, err := s.svc.DailySummary(ctx, now)
	if err != nil {
		return err
	}

	var errs []error
	if s.archive != nil {
		if err := s.archive.SaveSummary(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.logger.Info("daily production report sent",
		zap.Time("date", summary.Date),
		zap.Int("batches", summary.BatchCount),
		zap.String("total_cost", summary.TotalCost),
	)
	return nil
}
