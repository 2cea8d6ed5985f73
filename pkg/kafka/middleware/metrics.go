package kafka_middleware

import (
	"context"

	"commonspace/pkg/kafka"
	"commonspace/pkg/metrics"
)

const (
	directionProduce = "produce"
	directionConsume = "consume"
)

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		err := next(ctx, msg)
		metrics.KafkaMessagesTotal.WithLabelValues(msg.Topic, directionProduce, result(err)).Inc()
		return err
	}
}

func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		err := next(ctx, msg)
		metrics.KafkaMessagesTotal.WithLabelValues(msg.Topic, directionConsume, result(err)).Inc()
		return err
	}
}

func result(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultOK
}
