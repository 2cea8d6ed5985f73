package kafka

import (
	"context"
	"errors"
	"sync"

	kafka_config "commonspace/pkg/kafka/config"
	"commonspace/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type ProducerMiddleware func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error

// Producer publishes keyed JSON messages to one topic. When a DLQ topic is
// set, messages the main writer could not deliver are parked there and the
// original error is still returned.
type Producer struct {
	writer     *kafka.Writer
	dlqWriter  *kafka.Writer
	topic      string
	middleware []ProducerMiddleware
	closed     bool
	mu         sync.RWMutex
}

func NewProducer(cfg *kafka_config.Config, topic string, dlqTopic string, log *logger.Logger) (*Producer, error) {
	if err := checkTarget(cfg, topic); err != nil {
		return nil, err
	}

	p := &Producer{
		writer: newWriter(cfg, topic, false, log),
		topic:  topic,
	}
	if dlqTopic != "" {
		p.dlqWriter = newWriter(cfg, dlqTopic, true, log)
	}
	return p, nil
}

func (p *Producer) Use(middleware ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, middleware)
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	closed := p.closed
	chain := p.chain()
	p.mu.RUnlock()
	if closed {
		return ErrProducerClosed
	}

	if msg.Key == "" {
		return ErrEmptyKey
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}
	msg.Topic = p.topic

	return chain(ctx, msg)
}

// chain wraps write in the middleware, first registered outermost.
func (p *Producer) chain() MessageHandler {
	handler := MessageHandler(p.write)
	for i := len(p.middleware) - 1; i >= 0; i-- {
		mw, next := p.middleware[i], handler
		handler = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	return handler
}

func (p *Producer) write(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, msg.toKafka())
	if err == nil || p.dlqWriter == nil {
		return err
	}
	if dlqErr := writeDeadLetter(ctx, p.dlqWriter, msg, p.topic, err, nil); dlqErr != nil {
		return errors.Join(err, dlqErr)
	}
	return err
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.writer.Close()
	if p.dlqWriter != nil {
		err = errors.Join(err, p.dlqWriter.Close())
	}
	return err
}
