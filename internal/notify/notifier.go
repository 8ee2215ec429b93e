package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/emi-ledger/internal/config"
)

var ErrNoRecipient = errors.New("customer has no address for this channel")

// Notifier delivers a message to a customer. Delivery is best effort; callers log failures.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the transport named by the notification driver
func New(cfg config.NotificationConfig, logger *logrus.Logger) Notifier {
	if cfg.Driver == "email" {
		return NewEmailNotifier(cfg, logger)
	}
	return NewLogNotifier(logger)
}

// EmailNotifier sends messages over SMTP
type EmailNotifier struct {
	cfg    config.NotificationConfig
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewEmailNotifier(cfg config.NotificationConfig, logger *logrus.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (n *EmailNotifier) Send(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return fmt.Errorf("%s for customer %s: %w", msg.Kind, msg.CustomerID, ErrNoRecipient)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = n.cfg.SenderEmail
	e.To = []string{msg.Email}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)

	addr := fmt.Sprintf("%s:%s", n.cfg.SMTPHost, n.cfg.SMTPPort)
	var auth smtp.Auth
	if n.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", n.cfg.SMTPUsername, n.cfg.SMTPPassword, n.cfg.SMTPHost)
	}

	if err := n.send(e, addr, auth); err != nil {
		n.logger.WithFields(logrus.Fields{
			"kind":        msg.Kind,
			"customer_id": msg.CustomerID,
		}).Errorf("Failed to send email to %s: %v", msg.Email, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Infof("Email sent to %s: %s", msg.Email, msg.Subject)
	return nil
}

// LogNotifier writes messages to the log instead of delivering them
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.WithFields(logrus.Fields{
		"kind":        msg.Kind,
		"customer_id": msg.CustomerID,
		"mobile":      msg.Mobile,
	}).Info(msg.Body)
	return nil
}
