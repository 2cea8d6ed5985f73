package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "commonspace"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultJWTIssuer = "commonspace-identity"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultVenueTimeZone = "Local"
	DefaultSlotLockTTL   = 10 * time.Second

	DefaultLifecycleInterval = 5 * time.Minute
	DefaultNoShowGrace       = 30 * time.Minute
	DefaultFeedbackWindow    = 1 * time.Hour

	DefaultDigestInterval = 1 * time.Hour
	DefaultDigestWeekday  = int(time.Monday)
	DefaultDigestHour     = 8
	DefaultDigestHorizon  = 7 * 24 * time.Hour

	DefaultNotificationTransport = TransportLog

	DefaultSMTPPort = 587
	DefaultSMTPFrom = "noreply@commonspace.local"

	DefaultMailerMetricsPort = "9091"

	DefaultReminderDedupTTL = 48 * time.Hour
)

const (
	TransportLog   = "log"
	TransportKafka = "kafka"
	TransportSMTP  = "smtp"
)
