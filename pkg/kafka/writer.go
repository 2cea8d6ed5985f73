package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafka_config "commonspace/pkg/kafka/config"
	"commonspace/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

const dlqMaxAttempts = 3

// checkTarget validates what both ends need before touching a broker.
func checkTarget(cfg *kafka_config.Config, topic string) error {
	switch {
	case cfg == nil:
		return errors.New("config cannot be nil")
	case len(cfg.Brokers) == 0:
		return errors.New("at least one broker is required")
	case topic == "":
		return errors.New("topic cannot be empty")
	}
	return nil
}

// newWriter builds a hash-balanced writer, so one key always lands on one
// partition. DLQ writers always wait for every replica.
func newWriter(cfg *kafka_config.Config, topic string, dlq bool, log *logger.Logger) *kafka.Writer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Compression:  compression(cfg.Producer.Compression),
		RequiredAcks: requiredAcks(cfg.Producer.RequireAcks),
		MaxAttempts:  cfg.Producer.MaxAttempts,
		BatchTimeout: cfg.Producer.BatchTimeout,
		Async:        cfg.Producer.Async,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  errorLogger(log, topic),
	}
	if dlq {
		w.RequiredAcks = kafka.RequireAll
		w.MaxAttempts = dlqMaxAttempts
		w.Async = false
	}
	return w
}

func compression(name string) compress.Compression {
	switch name {
	case "none":
		return compress.None
	case "gzip":
		return compress.Gzip
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.Snappy
	}
}

func requiredAcks(acks int) kafka.RequiredAcks {
	switch acks {
	case 0:
		return kafka.RequireNone
	case 1:
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

func writeDeadLetter(ctx context.Context, w *kafka.Writer, msg Message, origin string, cause error, extra map[string]string) error {
	return w.WriteMessages(ctx, deadLettered(msg, origin, cause, time.Now(), extra).toKafka())
}

// errorLogger routes kafka-go error output into the structured logger.
func errorLogger(log *logger.Logger, topic string) kafka.Logger {
	return kafka.LoggerFunc(func(msg string, args ...any) {
		log.Error(fmt.Sprintf(msg, args...), "topic", topic)
	})
}
