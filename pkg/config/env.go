package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"
	EnvJWTIssuer = "JWT_ISSUER"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvVenueTimeZone = "VENUE_TIMEZONE"
	EnvSlotLockTTL   = "SLOT_LOCK_TTL"

	EnvLifecycleInterval = "LIFECYCLE_INTERVAL"
	EnvNoShowGrace       = "NO_SHOW_GRACE"
	EnvFeedbackWindow    = "FEEDBACK_WINDOW"

	EnvDigestInterval = "DIGEST_INTERVAL"
	EnvDigestWeekday  = "DIGEST_WEEKDAY"
	EnvDigestHour     = "DIGEST_HOUR"
	EnvDigestHorizon  = "DIGEST_HORIZON"

	EnvNotificationTransport = "NOTIFICATION_TRANSPORT"

	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUsername = "SMTP_USERNAME"
	EnvSMTPPassword = "SMTP_PASSWORD"
	EnvSMTPFrom     = "SMTP_FROM"

	EnvMailerMetricsPort = "MAILER_METRICS_PORT"

	EnvRedisAddr        = "REDIS_ADDR"
	EnvReminderDedupTTL = "REMINDER_DEDUP_TTL"
)
