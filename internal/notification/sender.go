package notification

import (
	"context"

	"commonspace/pkg/logger"
)

// Sender delivers one email. Delivery is one-way; nothing is tracked after
// Send returns.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes emails to the log instead of delivering them.
// It is the default transport for local development.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info("Email", "to", to, "subject", subject, "body_bytes", len(body))
	return nil
}
