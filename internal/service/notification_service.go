package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/pkg/jobs"
	"github.com/noah-isme/campus-portal-api/pkg/mailer"
)

const (
	notificationJobType  = "audience_mail"
	notificationBatchMax = 50

	notificationSent    = "sent"
	notificationFailed  = "failed"
	notificationDropped = "dropped"
)

type recipientFinder interface {
	RecipientsForAudience(ctx context.Context, audience string) ([]models.Recipient, error)
}

type jobQueue interface {
	Start(ctx context.Context)
	Stop()
	TryEnqueue(job jobs.Job) error
}

// AudienceMail is the queued payload for a cohort mailing.
type AudienceMail struct {
	Audience string
	Subject  string
	Body     string
}

// NotificationService mails cohorts in the background. Sends are attempted once and
// failures are only logged.
type NotificationService struct {
	recipients recipientFinder
	sender     mailer.Sender
	queue      jobQueue
	metrics    *MetricsService
	logger     *zap.Logger
	loc        *time.Location
}

// NewNotificationService builds the service and its worker queue.
func NewNotificationService(recipients recipientFinder, sender mailer.Sender, cfg jobs.QueueConfig, loc *time.Location, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &NotificationService{recipients: recipients, sender: sender, metrics: metrics, logger: logger, loc: loc}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyAudience queues a mail to every student in audience and returns immediately.
func (s *NotificationService) NotifyAudience(audience, subject, body string) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    notificationJobType,
		Payload: AudienceMail{Audience: audience, Subject: subject, Body: body},
	}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.metrics.RecordNotification(notificationDropped)
		s.logger.Warn("notification dropped",
			zap.String("audience", audience),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// ExamNoticeCreated notifies the notice's cohort. It is registered as a create hook.
func (s *NotificationService) ExamNoticeCreated(_ context.Context, notice *models.ExamNotice) {
	if notice == nil {
		return
	}
	subject := "New exam notice: " + notice.SubjectName
	body := fmt.Sprintf(
		"<p>Dear Student, a new exam notice has been published.</p>"+
			"<p><strong>%s</strong><br>%s at %s, %s</p>"+
			"<p>Please check the portal for the syllabus.</p>",
		html.EscapeString(notice.SubjectName),
		notice.ScheduledAt.In(s.loc).Format("Mon, 02 Jan 2006"),
		html.EscapeString(notice.Time),
		html.EscapeString(notice.Venue),
	)
	s.NotifyAudience(notice.Audience, subject, body)
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	mail, ok := job.Payload.(AudienceMail)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	recipients, err := s.recipients.RecipientsForAudience(ctx, mail.Audience)
	if err != nil {
		s.metrics.RecordNotification(notificationFailed)
		return fmt.Errorf("load recipients for %s: %w", mail.Audience, err)
	}
	if len(recipients) == 0 {
		s.logger.Debug("notification has no recipients", zap.String("audience", mail.Audience))
		return nil
	}

	addresses := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r.Email != "" {
			addresses = append(addresses, r.Email)
		}
	}
	failed := 0
	for start := 0; start < len(addresses); start += notificationBatchMax {
		batch := addresses[start:min(start+notificationBatchMax, len(addresses))]
		msg := mailer.Message{To: batch, Subject: mail.Subject, Body: mail.Body}
		if err := s.sender.Send(ctx, msg); err != nil {
			failed++
			s.metrics.RecordNotification(notificationFailed)
			s.logger.Warn("notification batch failed",
				zap.String("job_id", job.ID),
				zap.String("audience", mail.Audience),
				zap.Int("recipients", len(batch)),
				zap.Error(err),
			)
			continue
		}
		s.metrics.RecordNotification(notificationSent)
	}
	s.logger.Info("notification dispatched",
		zap.String("job_id", job.ID),
		zap.String("audience", mail.Audience),
		zap.Int("recipients", len(addresses)),
		zap.Int("failed_batches", failed),
	)
	return nil
}
