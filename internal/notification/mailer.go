package notification

import (
	"context"

	"commonspace/pkg/kafka"
	"commonspace/pkg/logger"
)

// NewMailHandler delivers queued EmailRequested events through sender.
// Undecodable events and rejected recipients are permanent failures so the
// consumer dead-letters them; everything IsTransient accepts is retried.
func NewMailHandler(sender Sender, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if t := msg.GetEventType(); t != "" && t != EventEmailRequested {
			log.Warn("Skipping unexpected event", "event_type", t, "event_id", msg.GetEventID())
			return nil
		}

		var email EmailRequested
		if err := msg.DecodeValue(&email); err != nil {
			return err
		}
		if email.To == "" {
			return kafka.NewPermanentError("invalid message: missing recipient", nil)
		}

		if err := sender.Send(ctx, email.To, email.Subject, email.Body); err != nil {
			if IsTransient(err) {
				return kafka.NewTransientError("email delivery failed", err)
			}
			return kafka.NewPermanentError("email rejected", err)
		}

		log.Info("Email delivered",
			"event_id", msg.GetEventID(),
			"correlation_id", msg.GetCorrelationID(),
			"subject", email.Subject,
		)
		return nil
	}
}
