package notification

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"commonspace/pkg/kafka"
	"commonspace/pkg/logger"
	"commonspace/pkg/middleware"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender("mail.example.com", 587, "", "", "noreply@commonspace.local")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err := s.Send(context.Background(), "dana@example.com", "Hello", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Nil(t, gotAuth, "no auth without username")
	assert.Equal(t, "noreply@commonspace.local", gotFrom)
	assert.Equal(t, []string{"dana@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "To: dana@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, `Content-Type: text/html; charset="utf-8"`)
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>hi</p>"))
}

func TestSMTPSender_UsesAuthWhenConfigured(t *testing.T) {
	s := NewSMTPSender("mail.example.com", 465, "user", "secret", "noreply@commonspace.local")
	assert.NotNil(t, s.auth)
}

func TestSMTPSender_RejectsHeaderInjection(t *testing.T) {
	s := NewSMTPSender("mail.example.com", 587, "", "", "noreply@commonspace.local")
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("must not send")
		return nil
	}

	err := s.Send(context.Background(), "a@example.com\r\nBcc: b@example.com", "Hi", "body")
	assert.Error(t, err)
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	s := NewSMTPSender("mail.example.com", 587, "", "", "noreply@commonspace.local")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Send(ctx, "dana@example.com", "Hi", "body"), context.Canceled)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mailbox busy", &textproto.Error{Code: 451, Msg: "try again later"}, true},
		{"mailbox unknown", &textproto.Error{Code: 550, Msg: "no such user"}, false},
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"wrapped", errors.Join(errors.New("send"), &textproto.Error{Code: 421}), true},
		{"plain", errors.New("bad address"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

type publishFunc func(ctx context.Context, msg kafka.Message) error

func (f publishFunc) Publish(ctx context.Context, msg kafka.Message) error { return f(ctx, msg) }

func TestKafkaSender(t *testing.T) {
	var published kafka.Message
	s := NewKafkaSender(publishFunc(func(ctx context.Context, msg kafka.Message) error {
		published = msg
		return nil
	}), "commonspace")
	s.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, s.Send(context.Background(), "dana@example.com", "Hello", "<p>hi</p>"))

	assert.Equal(t, "dana@example.com", published.Key)
	assert.Equal(t, EventEmailRequested, published.GetEventType())
	assert.Equal(t, "commonspace", published.Headers[kafka.HeaderSource])

	var event EmailRequested
	require.NoError(t, published.DecodeValue(&event))
	assert.Equal(t, EmailRequested{
		To:          "dana@example.com",
		Subject:     "Hello",
		Body:        "<p>hi</p>",
		RequestedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, event)
}

func TestKafkaSender_CorrelatesWithRequest(t *testing.T) {
	var published []kafka.Message
	s := NewKafkaSender(publishFunc(func(ctx context.Context, msg kafka.Message) error {
		published = append(published, msg)
		return nil
	}), "commonspace")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	require.NoError(t, s.Send(ctx, "dana@example.com", "Hello", "body"))
	require.NoError(t, s.Send(context.Background(), "dana@example.com", "Reminder", "body"))

	require.Len(t, published, 2)
	assert.Equal(t, "req-42", published[0].GetCorrelationID())
	_, ok := published[1].Headers[kafka.HeaderCorrelationID]
	assert.False(t, ok, "scheduler emails carry no correlation id")
	assert.NotEqual(t, published[0].GetEventID(), published[1].GetEventID())
}

func TestKafkaSender_PublishError(t *testing.T) {
	s := NewKafkaSender(publishFunc(func(ctx context.Context, msg kafka.Message) error {
		return errors.New("broker down")
	}), "commonspace")

	assert.Error(t, s.Send(context.Background(), "dana@example.com", "Hello", "body"))
}

func mailMessage(t *testing.T, event EmailRequested) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().WithKey(event.To).WithValue(event).WithEventType(EventEmailRequested).Build()
	require.NoError(t, err)
	return msg
}

func TestMailHandler(t *testing.T) {
	sender := &recordingSender{}
	handler := NewMailHandler(sender, logger.Discard())

	err := handler(context.Background(), mailMessage(t, EmailRequested{To: "dana@example.com", Subject: "Hi", Body: "body"}))
	require.NoError(t, err)
	assert.Equal(t, []sentEmail{{To: "dana@example.com", Subject: "Hi", Body: "body"}}, sender.emails())
}

func TestMailHandler_Failures(t *testing.T) {
	tests := []struct {
		name      string
		msg       func(t *testing.T) kafka.Message
		sendErr   error
		wantRetry bool
	}{
		{
			name: "undecodable payload",
			msg: func(t *testing.T) kafka.Message {
				return kafka.Message{Value: []byte("{"), Headers: map[string]string{}}
			},
		},
		{
			name: "missing recipient",
			msg: func(t *testing.T) kafka.Message {
				return mailMessage(t, EmailRequested{Subject: "Hi"})
			},
		},
		{
			name:      "server busy",
			msg:       func(t *testing.T) kafka.Message { return mailMessage(t, EmailRequested{To: "a@example.com"}) },
			sendErr:   &textproto.Error{Code: 451, Msg: "busy"},
			wantRetry: true,
		},
		{
			name:    "mailbox rejected",
			msg:     func(t *testing.T) kafka.Message { return mailMessage(t, EmailRequested{To: "a@example.com"}) },
			sendErr: &textproto.Error{Code: 550, Msg: "no such user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewMailHandler(&recordingSender{err: tt.sendErr}, logger.Discard())

			err := handler(context.Background(), tt.msg(t))
			require.Error(t, err)
			assert.Equal(t, tt.wantRetry, kafka.ShouldRetry(err, 0, 3))
		})
	}
}

func TestMailHandler_IgnoresOtherEvents(t *testing.T) {
	sender := &recordingSender{}
	handler := NewMailHandler(sender, logger.Discard())

	msg := kafka.Message{Headers: map[string]string{kafka.HeaderEventType: "booking.created"}}
	assert.NoError(t, handler(context.Background(), msg))
	assert.Empty(t, sender.emails())
}

type fakeSetNX struct {
	keys map[string]time.Duration
	err  error
}

func (f *fakeSetNX) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, exists := f.keys[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestRedisDedup(t *testing.T) {
	store := &fakeSetNX{keys: map[string]time.Duration{}}
	d := &RedisDedup{client: store, prefix: "test:", ttl: time.Hour}

	first, err := d.Claim(context.Background(), ReminderKey("b1", "2026-03-02"))
	require.NoError(t, err)
	second, err := d.Claim(context.Background(), ReminderKey("b1", "2026-03-02"))
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, time.Hour, store.keys["test:reminder:b1:2026-03-02"])
}

func TestRedisDedup_Error(t *testing.T) {
	d := &RedisDedup{client: &fakeSetNX{err: errors.New("redis down")}, ttl: time.Hour}

	ok, err := d.Claim(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestMemoryDedup_Expires(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d := NewMemoryDedup(time.Hour)
	d.now = func() time.Time { return now }

	first, _ := d.Claim(context.Background(), "k")
	again, _ := d.Claim(context.Background(), "k")
	now = now.Add(time.Hour)
	afterTTL, _ := d.Claim(context.Background(), "k")

	assert.True(t, first)
	assert.False(t, again)
	assert.True(t, afterTTL)
}
