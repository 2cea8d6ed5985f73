package kafka_config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"commonspace/pkg/logger"
)

// Config covers the email queue: the API produces to EmailTopic and the
// mailer consumes it as MailerGroupID.
type Config struct {
	Brokers []string

	EmailTopic    string
	EmailDLQTopic string
	MailerGroupID string

	Producer ProducerConfig
	Consumer ConsumerConfig

	EnableMiddleware bool
}

type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 all, 0 none, 1 leader
	Compression  string // none, gzip, snappy, lz4, zstd
	Async        bool
}

type ConsumerConfig struct {
	StartOffset       int64 // -1 newest, -2 oldest
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	CommitInterval    time.Duration
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
}

// Load reads the KAFKA_* environment. It returns an error instead of exiting
// so each binary decides how to fail.
func Load() (*Config, error) {
	var brokers []string
	for _, b := range strings.Split(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers), ",") {
		brokers = append(brokers, strings.TrimSpace(b))
	}

	cfg := &Config{
		Brokers: brokers,

		EmailTopic:    getEnvStr(EnvKafkaEmailTopic, DefaultEmailTopic),
		EmailDLQTopic: getEnvStr(EnvKafkaEmailDLQTopic, DefaultEmailDLQTopic),
		MailerGroupID: getEnvStr(EnvKafkaMailerGroupID, DefaultMailerGroupID),

		Producer: ProducerConfig{
			MaxAttempts:  getEnvInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
			BatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
			RequireAcks:  getEnvInt(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
			Compression:  getEnvStr(EnvKafkaProducerCompression, DefaultProducerCompression),
			Async:        getEnvBool(EnvKafkaProducerAsync, DefaultProducerAsync),
		},
		Consumer: ConsumerConfig{
			StartOffset:       int64(getEnvInt(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset)),
			MinBytes:          getEnvInt(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
			MaxBytes:          getEnvInt(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
			MaxWait:           getEnvDuration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
			CommitInterval:    getEnvDuration(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval),
			HeartbeatInterval: getEnvDuration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
			SessionTimeout:    getEnvDuration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
			RebalanceTimeout:  getEnvDuration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
			MaxRetries:        getEnvInt(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),
		},

		EnableMiddleware: getEnvBool(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka configuration: %w", err)
	}
	return cfg, nil
}

var (
	compressions = map[string]bool{"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true}
	acks         = map[int]bool{-1: true, 0: true, 1: true}
)

// Validate reports every problem at once.
func (cfg *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(len(cfg.Brokers) > 0, "at least one broker is required")
	for i, b := range cfg.Brokers {
		check(b != "", "broker %d is empty", i)
	}
	check(cfg.EmailTopic != "", "email topic is empty")
	check(cfg.MailerGroupID != "", "mailer group id is empty")

	p := cfg.Producer
	check(p.MaxAttempts > 0, "producer max attempts must be positive, got %d", p.MaxAttempts)
	check(p.BatchTimeout > 0, "producer batch timeout must be positive, got %s", p.BatchTimeout)
	check(compressions[p.Compression], "producer compression %q is not one of none, gzip, snappy, lz4, zstd", p.Compression)
	check(acks[p.RequireAcks], "producer require acks must be -1, 0 or 1, got %d", p.RequireAcks)

	c := cfg.Consumer
	check(c.StartOffset >= -2, "consumer start offset must be -1, -2 or >= 0, got %d", c.StartOffset)
	check(c.MinBytes > 0, "consumer min bytes must be positive, got %d", c.MinBytes)
	check(c.MaxBytes >= c.MinBytes, "consumer max bytes %d is below min bytes %d", c.MaxBytes, c.MinBytes)
	for name, d := range map[string]time.Duration{
		"max wait":           c.MaxWait,
		"commit interval":    c.CommitInterval,
		"heartbeat interval": c.HeartbeatInterval,
		"session timeout":    c.SessionTimeout,
		"rebalance timeout":  c.RebalanceTimeout,
	} {
		check(d > 0, "consumer %s must be positive, got %s", name, d)
	}
	check(c.MaxRetries >= 0, "consumer max retries cannot be negative, got %d", c.MaxRetries)

	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"email_topic", cfg.EmailTopic,
		"email_dlq_topic", cfg.EmailDLQTopic,
		"mailer_group_id", cfg.MailerGroupID,
		"producer_compression", cfg.Producer.Compression,
		"producer_require_acks", cfg.Producer.RequireAcks,
		"producer_async", cfg.Producer.Async,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
