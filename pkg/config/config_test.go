package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		MongoURI:              DefaultMongoURI,
		MongoDatabaseName:     DefaultMongoDatabaseName,
		MongoConnTimeout:      DefaultMongoConnTimeout,
		Port:                  DefaultPort,
		JWTSecret:             "0123456789abcdef0123",
		JWTIssuer:             DefaultJWTIssuer,
		RateLimitRequests:     DefaultRateLimitRequests,
		RateLimitWindow:       DefaultRateLimitWindow,
		RequestTimeout:        DefaultRequestTimeout,
		IdempotencyTTL:        DefaultIdempotencyTTL,
		MaxRequestSize:        DefaultMaxRequestSize,
		ReadTimeout:           DefaultReadTimeout,
		WriteTimeout:          DefaultWriteTimeout,
		IdleTimeout:           DefaultIdleTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,
		VenueTimeZone:         "UTC",
		SlotLockTTL:           DefaultSlotLockTTL,
		LifecycleInterval:     DefaultLifecycleInterval,
		NoShowGrace:           DefaultNoShowGrace,
		FeedbackWindow:        DefaultFeedbackWindow,
		DigestInterval:        DefaultDigestInterval,
		DigestWeekday:         DefaultDigestWeekday,
		DigestHour:            DefaultDigestHour,
		DigestHorizon:         DefaultDigestHorizon,
		NotificationTransport: TransportLog,
		SMTPPort:              DefaultSMTPPort,
		SMTPFrom:              DefaultSMTPFrom,
		ReminderDedupTTL:      DefaultReminderDedupTTL,
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestValidate_LocalTimeZone(t *testing.T) {
	cfg := validConfig()
	cfg.VenueTimeZone = DefaultVenueTimeZone

	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Local, cfg.Location)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"bad port", func(c *Config) { c.Port = "99999" }, "Port must be between"},
		{"bad mongo uri", func(c *Config) { c.MongoURI = "postgres://localhost" }, "MongoURI must start with"},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWTSecret must be set"},
		{"zero lifecycle interval", func(c *Config) { c.LifecycleInterval = 0 }, "LifecycleInterval must be positive"},
		{"negative grace", func(c *Config) { c.NoShowGrace = -time.Minute }, "NoShowGrace cannot be negative"},
		{"bad weekday", func(c *Config) { c.DigestWeekday = 7 }, "DigestWeekday must be between"},
		{"bad hour", func(c *Config) { c.DigestHour = 24 }, "DigestHour must be between"},
		{"unknown timezone", func(c *Config) { c.VenueTimeZone = "Mars/Olympus" }, "VenueTimeZone is not a known location"},
		{"unknown transport", func(c *Config) { c.NotificationTransport = "pigeon" }, "NotificationTransport must be one of"},
		{"smtp without host", func(c *Config) { c.NotificationTransport = TransportSMTP }, "SMTPHost must be set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "0"
	cfg.MongoDatabaseName = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1. Port")
	assert.Contains(t, err.Error(), "2. MongoDatabaseName")
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017/commonspace")
	assert.Equal(t, "mongodb://***:***@db:27017/commonspace", got)
}

func TestNormalizePagination(t *testing.T) {
	assert.Equal(t, 10, NormalizePaginationLimit(0))
	assert.Equal(t, 25, NormalizePaginationLimit(25))
	assert.Equal(t, DefaultPaginationLimit, NormalizePaginationLimit(5000))
	assert.Equal(t, int64(0), NormalizeOffset(-4))
}

func TestMailerConfig_Validate(t *testing.T) {
	valid := MailerConfig{
		SMTPHost:        "smtp.example.com",
		SMTPPort:        DefaultSMTPPort,
		SMTPFrom:        DefaultSMTPFrom,
		MetricsPort:     DefaultMailerMetricsPort,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
	require.NoError(t, valid.Validate())

	invalid := valid
	invalid.SMTPHost = ""
	invalid.SMTPPort = 0
	invalid.SMTPFrom = "nobody"
	err := invalid.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTPHost")
	assert.Contains(t, err.Error(), "SMTPPort")
	assert.Contains(t, err.Error(), "SMTPFrom")
}
