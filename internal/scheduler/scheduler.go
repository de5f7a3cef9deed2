package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/config"
	"github.com/lavilla/almacen/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// Publisher produces and distributes the alert report.
type Publisher interface {
	PublishAlertReport(ctx context.Context, now time.Time) (models.AlertReport, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	publisher Publisher
	schedule  string
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a scheduler running in the configured time zone.
func NewScheduler(cfg config.ReportingConfig, publisher Publisher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location()

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		publisher: publisher,
		schedule:  cfg.CronSchedule,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// Start registers the alert job and starts the cron loop. An empty schedule
// leaves the scheduler idle.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("alert schedule empty, scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.RunAlertJob); err != nil {
		return fmt.Errorf("schedule alert report %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler",
		zap.String("schedule", s.schedule),
		zap.String("timezone", s.loc.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunAlertJob publishes the alert report once.
func (s *Scheduler) RunAlertJob() {
	s.logger.Info("generating alert report")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := s.publisher.PublishAlertReport(ctx, s.now().In(s.loc))
	if err != nil {
		s.logger.Error("failed to publish alert report", zap.Error(err))
		return
	}

	s.logger.Info("alert report published",
		zap.Int("out_of_stock", len(report.OutOfStock)),
		zap.Int("expired", len(report.Expired)))
}
