// Package mailer delivers outbound portal mail. Delivery is best effort: a
// Sender reports failures to its caller but nothing retries them.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/pkg/config"
)

// Message is a single outbound mail.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Sender performs a one-way send of a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the sender selected by cfg.Driver.
func New(cfg config.NotifierConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Driver {
	case config.NotifierDriverSMTP:
		return NewSMTPSender(cfg.SMTP), nil
	case config.NotifierDriverAMQP:
		return NewAMQPSender(cfg.AMQP)
	case config.NotifierDriverLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.Driver)
	}
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("message has no subject")
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs msg.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("mail sent",
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(msg.To)),
	)
	return nil
}
