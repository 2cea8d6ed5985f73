package notification

import (
	"context"
	"fmt"
	"time"

	"commonspace/pkg/kafka"
	"commonspace/pkg/middleware"
)

const (
	EventEmailRequested = "email.requested"
	emailSchemaVersion  = "1"
)

// EmailRequested is the payload queued for the mailer.
type EmailRequested struct {
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	RequestedAt time.Time `json:"requestedAt"`
}

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaSender queues emails for cmd/mailer instead of talking SMTP in the
// request path. Messages are keyed by recipient so one inbox keeps its order,
// and carry the HTTP request id, when there is one, as the correlation id.
type KafkaSender struct {
	publisher Publisher
	source    string
	now       func() time.Time
}

func NewKafkaSender(publisher Publisher, source string) *KafkaSender {
	return &KafkaSender{publisher: publisher, source: source, now: time.Now}
}

func (s *KafkaSender) Send(ctx context.Context, to, subject, body string) error {
	msg, err := kafka.NewMessage().
		WithKey(to).
		WithValue(EmailRequested{To: to, Subject: subject, Body: body, RequestedAt: s.now().UTC()}).
		WithEventType(EventEmailRequested).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(emailSchemaVersion).
		WithSource(s.source).
		Build()
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to queue email to %s: %w", to, err)
	}
	return nil
}
