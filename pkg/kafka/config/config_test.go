package kafka_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, DefaultEmailTopic, cfg.EmailTopic)
	assert.Equal(t, DefaultMailerGroupID, cfg.MailerGroupID)
	assert.Equal(t, "snappy", cfg.Producer.Compression)
	assert.Equal(t, int64(-1), cfg.Consumer.StartOffset)
	assert.Equal(t, DefaultConsumerMaxRetries, cfg.Consumer.MaxRetries)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, kafka-2:9092")
	t.Setenv(EnvKafkaProducerCompression, "zstd")
	t.Setenv(EnvKafkaConsumerMaxRetries, "7")
	t.Setenv(EnvKafkaConsumerMaxWait, "2s")
	t.Setenv(EnvKafkaEnableMiddleware, "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, "zstd", cfg.Producer.Compression)
	assert.Equal(t, 7, cfg.Consumer.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Consumer.MaxWait)
	assert.False(t, cfg.EnableMiddleware)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvKafkaProducerCompression, "brotli")
	t.Setenv(EnvKafkaProducerRequireAcks, "2")
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092,")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brotli")
	assert.Contains(t, err.Error(), "require acks")
	assert.Contains(t, err.Error(), "broker 1 is empty")
}
