// Package notifier emails a report when a scrape task finishes.
package notifier

import (
	"fmt"
	"log/slog"

	"github.com/addy0032/hate-speech-detection/internal/config"
	"github.com/addy0032/hate-speech-detection/internal/report"
	"github.com/addy0032/hate-speech-detection/internal/task"
)

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// Notifier handles sending task notifications
type Notifier struct {
	sender  Sender
	to      string
	builder *report.Builder
	logger  *slog.Logger
}

// New creates a new notifier with the given sender
func New(sender Sender, to string, builder *report.Builder, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sender:  sender,
		to:      to,
		builder: builder,
		logger:  logger.With("component", "notifier"),
	}
}

// NewFromConfig creates a notifier based on configuration. It returns nil
// when email is disabled.
func NewFromConfig(cfg config.EmailConfig, builder *report.Builder, logger *slog.Logger) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.SMTPHost == "" || cfg.FromAddr == "" || cfg.ToAddr == "" {
		return nil, fmt.Errorf("email enabled but smtp_host, from_address or to_address is empty")
	}

	sender := NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromAddr)
	return New(sender, cfg.ToAddr, builder, logger), nil
}

// SendReport renders snap and emails it
func (n *Notifier) SendReport(snap task.Snapshot) error {
	r, err := n.builder.Build(snap)
	if err != nil {
		return err
	}
	return n.sender.Send(n.to, r.Subject, r.HTMLBody, r.PlainBody)
}

// OnFinish is a task.Options.OnFinish hook. Send failures are logged.
func (n *Notifier) OnFinish(snap task.Snapshot) {
	if err := n.SendReport(snap); err != nil {
		n.logger.Error("failed to send task report", "task", snap.ID, "error", err)
		return
	}
	n.logger.Info("sent task report", "task", snap.ID, "to", n.to)
}
