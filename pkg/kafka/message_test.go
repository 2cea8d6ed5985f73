package kafka

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("guest@example.com").
		WithValue(map[string]string{"subject": "hi"}).
		WithEventType("email.requested").
		WithSource("commonspace").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "guest@example.com", msg.Key)
	assert.JSONEq(t, `{"subject":"hi"}`, string(msg.Value))
	assert.Equal(t, "email.requested", msg.GetEventType())
	assert.NotEmpty(t, msg.GetEventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])
}

func TestMessageBuilder_EncodingFailure(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	require.Error(t, err)
	assert.Equal(t, ErrorTypePermanent, ClassifyError(err))
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())

	for range 12 {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])

	msg.Headers[HeaderRetryCount] = "garbage"
	assert.Equal(t, 0, msg.GetRetryCount())
}

func TestDecodeValue_Permanent(t *testing.T) {
	msg := Message{Value: []byte("{not json")}
	var v map[string]any
	err := msg.DecodeValue(&v)
	require.Error(t, err)
	assert.False(t, ShouldRetry(err, 0, 3))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"explicit transient", NewTransientError("smtp busy", nil), ErrorTypeTransient},
		{"wrapped permanent", errors.Join(errors.New("outer"), NewPermanentError("bad", nil)), ErrorTypePermanent},
		{"timeout text", errors.New("dial tcp: I/O Timeout"), ErrorTypeTransient},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutError{}}, ErrorTypeTransient},
		{"connection refused", errors.New("dial tcp 127.0.0.1:25: Connection Refused"), ErrorTypeTransient},
		{"unknown defaults to permanent", errors.New("something odd"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("try later", nil)

	assert.True(t, ShouldRetry(transient, 0, 3))
	assert.False(t, ShouldRetry(transient, 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("no", nil), 0, 3))
	assert.False(t, ShouldRetry(nil, 0, 3))
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "deadline" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestMessageBuilder_OptionalHeaders(t *testing.T) {
	msg, err := NewMessage().WithKey("k").WithValue("v").WithCorrelationID("").WithSource("").Build()
	require.NoError(t, err)

	assert.NotContains(t, msg.Headers, HeaderCorrelationID)
	assert.NotContains(t, msg.Headers, HeaderSource)

	msg, err = NewMessage().WithKey("k").WithValue("v").WithCorrelationID("req-1").Build()
	require.NoError(t, err)
	assert.Equal(t, "req-1", msg.GetCorrelationID())
}

func TestKafkaConversion(t *testing.T) {
	msg, err := NewMessage().WithKey("guest@example.com").WithValue("hi").WithEventType("email.requested").Build()
	require.NoError(t, err)

	km := msg.toKafka()
	km.Topic, km.Partition, km.Offset = "email.requested", 2, 41

	back := fromKafka(km)
	assert.Equal(t, msg.Key, back.Key)
	assert.Equal(t, msg.Value, back.Value)
	assert.Equal(t, msg.Headers, back.Headers)
	assert.Equal(t, 2, back.Partition)
	assert.Equal(t, int64(41), back.Offset)
}

func TestDeadLettered(t *testing.T) {
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	msg := Message{
		Key:   "guest@example.com",
		Value: []byte(`{}`),
		Headers: map[string]string{
			HeaderEventID:       "e1",
			HeaderOriginalTopic: "spoofed",
			HeaderRetryCount:    "3",
		},
	}

	out := deadLettered(msg, "email.requested", errors.New("550 no such user"), at, map[string]string{HeaderDLQGroup: "mailer"})

	assert.Equal(t, map[string]string{
		HeaderEventID:       "e1",
		HeaderRetryCount:    "3",
		HeaderOriginalTopic: "email.requested",
		HeaderDLQError:      "550 no such user",
		HeaderDLQTimestamp:  "2026-03-02T08:00:00Z",
		HeaderDLQGroup:      "mailer",
	}, out.Headers)
	assert.Equal(t, "spoofed", msg.Headers[HeaderOriginalTopic], "input is not mutated")
	assert.Equal(t, at, out.Timestamp)
}

func TestWriterSettings(t *testing.T) {
	assert.Equal(t, kafka.RequireAll, requiredAcks(-1))
	assert.Equal(t, kafka.RequireOne, requiredAcks(1))
	assert.Equal(t, kafka.RequireNone, requiredAcks(0))
	assert.Equal(t, compress.Zstd, compression("zstd"))
	assert.Equal(t, compress.Snappy, compression("unknown"))
}
