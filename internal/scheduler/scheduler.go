package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedplanner/internal/config"
	"github.com/mamadbah2/feedplanner/internal/domain/models"
	"github.com/mamadbah2/feedplanner/internal/service/commands"
	"github.com/mamadbah2/feedplanner/internal/service/planner"
	"github.com/mamadbah2/feedplanner/internal/service/publishing"
	"github.com/mamadbah2/feedplanner/internal/service/whatsapp"
)

const reminderTimeout = 2 * time.Minute

// Scheduler pushes the daily ration of a standing flock on a cron schedule.
type Scheduler struct {
	cron         *cron.Cron
	cfg          config.ReminderConfig
	planner      *planner.Service
	reports      commands.Summarizer
	integrations commands.Integrations
	messagingSvc whatsapp.MessagingService
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
// Prices and Archiver of integrations are used when set.
func NewScheduler(cfg config.ReminderConfig, plannerSvc *planner.Service, reports commands.Summarizer, messagingSvc whatsapp.MessagingService, integrations commands.Integrations, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	// Standard five field cron expressions, evaluated in the farm's timezone.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:         c,
		cfg:          cfg,
		planner:      plannerSvc,
		reports:      reports,
		integrations: integrations,
		messagingSvc: messagingSvc,
		logger:       logger,
	}, nil
}

// Start registers the reminder job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendReminder); err != nil {
		return fmt.Errorf("schedule ration reminder: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendReminder() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderTimeout)
	defer cancel()

	if err := s.RunReminder(ctx); err != nil {
		s.logger.Error("failed to send ration reminder", zap.Error(err))
		return
	}
	s.logger.Info("ration reminder sent successfully")
}

// RunReminder derives today's plan for the standing flock and sends its summary to
// the configured recipient.
func (s *Scheduler) RunReminder(ctx context.Context) error {
	cat := s.planner.Catalog()
	category, ok := cat.Category(s.cfg.Category)
	if !ok {
		return fmt.Errorf("%w: %q", planner.ErrUnknownCategory, s.cfg.Category)
	}
	bracket, ok := category.ResolveBracket(s.cfg.Bracket)
	if !ok {
		return fmt.Errorf("%w: %q", planner.ErrUnknownBracket, s.cfg.Bracket)
	}

	req := models.PlanRequest{
		Category:  category.Name(),
		Bracket:   bracket.Label(),
		FlockSize: s.cfg.FlockSize,
		Available: cat.Ingredients(),
	}

	if s.integrations.Prices != nil {
		prices, err := s.integrations.Prices.Prices(ctx)
		if err != nil {
			s.logger.Warn("price lookup failed, reminder without costs", zap.Error(err))
		} else {
			req.Prices = prices
		}
	}

	plan, err := s.planner.DerivePlan(req)
	if err != nil && !errors.Is(err, planner.ErrEmptyRecipeAfterFiltering) {
		return err
	}
	if err == nil && s.integrations.Archiver != nil {
		s.integrations.Archiver.Archive(ctx, publishing.SourceReminder, plan)
	}

	return s.messagingSvc.SendOutbound(ctx, models.OutboundMessageRequest{
		To:      s.cfg.Recipient,
		Message: "Daily ration reminder\n" + s.reports.Summary(plan),
	})
}
