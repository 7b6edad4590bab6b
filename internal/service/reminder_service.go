package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

type audienceNotifier interface {
	NotifyAudience(audience, subject, body string)
}

// ReminderService periodically mails cohorts about forms whose deadline is near.
type ReminderService struct {
	forms     itemLister[models.FormLink]
	notifier  audienceNotifier
	interval  time.Duration
	window    time.Duration
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
	scheduler gocron.Scheduler
}

// NewReminderService constructs the service. Reminders cover deadlines within window of each run.
func NewReminderService(forms itemLister[models.FormLink], notifier audienceNotifier, interval, window time.Duration, loc *time.Location, logger *zap.Logger) *ReminderService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if window <= 0 {
		window = interval
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		forms:    forms,
		notifier: notifier,
		interval: interval,
		window:   window,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules RunOnce every interval.
func (s *ReminderService) Start() error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(s.loc))
	if err != nil {
		return fmt.Errorf("create reminder scheduler: %w", err)
	}
	_, err = scheduler.NewJob(gocron.DurationJob(s.interval), gocron.NewTask(func(ctx context.Context) {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("form reminder run failed", zap.Error(err))
		}
	}), gocron.WithSingletonMode(gocron.LimitModeReschedule))
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("schedule form reminders: %w", err)
	}
	s.scheduler = scheduler
	scheduler.Start()
	s.logger.Info("form reminders scheduled", zap.Duration("interval", s.interval), zap.Duration("window", s.window))
	return nil
}

// Stop shuts the scheduler down.
func (s *ReminderService) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// RunOnce queues a reminder for every form closing within the window and returns how many were queued.
func (s *ReminderService) RunOnce(ctx context.Context) (int, error) {
	forms, err := s.forms.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list forms: %w", err)
	}
	now := s.now()
	until := now.Add(s.window)
	queued := 0
	for _, form := range forms {
		if form == nil || form.CreatedAt.After(now) {
			continue
		}
		if form.Deadline.Before(now) || form.Deadline.After(until) {
			continue
		}
		s.notifier.NotifyAudience(form.Audience, "Reminder: "+form.Title+" closes soon", s.reminderBody(form))
		queued++
	}
	s.logger.Info("form reminders queued", zap.Int("count", queued))
	return queued, nil
}

func (s *ReminderService) reminderBody(form *models.FormLink) string {
	return fmt.Sprintf(
		"<p>Dear Student, the form <strong>%s</strong> closes on %s.</p><p><a href=\"%s\">Open the form</a></p>",
		html.EscapeString(form.Title),
		form.Deadline.In(s.loc).Format("Mon, 02 Jan 2006 15:04"),
		html.EscapeString(form.FormLink),
	)
}
