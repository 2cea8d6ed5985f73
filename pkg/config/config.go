package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"commonspace/pkg/client"
	"commonspace/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	JWTSecret string
	JWTIssuer string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// VenueTimeZone is the location booking dates and times are read in.
	// Bookings store a naive date and time, so one location applies to all venues.
	VenueTimeZone string
	Location      *time.Location
	SlotLockTTL   time.Duration

	LifecycleInterval time.Duration
	NoShowGrace       time.Duration
	FeedbackWindow    time.Duration

	DigestInterval time.Duration
	DigestWeekday  int
	DigestHour     int
	DigestHorizon  time.Duration

	NotificationTransport string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	RedisAddr        string
	ReminderDedupTTL time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),
		JWTIssuer: getEnvStr(EnvJWTIssuer, DefaultJWTIssuer),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		VenueTimeZone: getEnvStr(EnvVenueTimeZone, DefaultVenueTimeZone),
		SlotLockTTL:   getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		LifecycleInterval: getEnvDuration(EnvLifecycleInterval, DefaultLifecycleInterval),
		NoShowGrace:       getEnvDuration(EnvNoShowGrace, DefaultNoShowGrace),
		FeedbackWindow:    getEnvDuration(EnvFeedbackWindow, DefaultFeedbackWindow),

		DigestInterval: getEnvDuration(EnvDigestInterval, DefaultDigestInterval),
		DigestWeekday:  getEnvNum(EnvDigestWeekday, DefaultDigestWeekday),
		DigestHour:     getEnvNum(EnvDigestHour, DefaultDigestHour),
		DigestHorizon:  getEnvDuration(EnvDigestHorizon, DefaultDigestHorizon),

		NotificationTransport: getEnvStr(EnvNotificationTransport, DefaultNotificationTransport),

		SMTPHost:     getEnvStr(EnvSMTPHost, ""),
		SMTPPort:     getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUsername: getEnvStr(EnvSMTPUsername, ""),
		SMTPPassword: getEnvStr(EnvSMTPPassword, ""),
		SMTPFrom:     getEnvStr(EnvSMTPFrom, DefaultSMTPFrom),

		RedisAddr:        getEnvStr(EnvRedisAddr, ""),
		ReminderDedupTTL: getEnvDuration(EnvReminderDedupTTL, DefaultReminderDedupTTL),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.MongoConnTimeout)
}

// Validate checks every setting and reports all problems at once.
// It also resolves VenueTimeZone into Location.
func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if len(cfg.JWTSecret) < 16 {
		errors = append(errors, "JWTSecret must be set and at least 16 characters long")
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"SlotLockTTL", cfg.SlotLockTTL},
		{"LifecycleInterval", cfg.LifecycleInterval},
		{"FeedbackWindow", cfg.FeedbackWindow},
		{"DigestInterval", cfg.DigestInterval},
		{"DigestHorizon", cfg.DigestHorizon},
		{"ReminderDedupTTL", cfg.ReminderDedupTTL},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}
	if cfg.NoShowGrace < 0 {
		errors = append(errors, fmt.Sprintf("NoShowGrace cannot be negative, got: %s", cfg.NoShowGrace))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.DigestWeekday < 0 || cfg.DigestWeekday > 6 {
		errors = append(errors, fmt.Sprintf("DigestWeekday must be between 0 (Sunday) and 6, got: %d", cfg.DigestWeekday))
	}
	if cfg.DigestHour < 0 || cfg.DigestHour > 23 {
		errors = append(errors, fmt.Sprintf("DigestHour must be between 0 and 23, got: %d", cfg.DigestHour))
	}

	loc, err := loadLocation(cfg.VenueTimeZone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("VenueTimeZone is not a known location: %s", cfg.VenueTimeZone))
	} else {
		cfg.Location = loc
	}

	switch cfg.NotificationTransport {
	case TransportLog, TransportKafka:
	case TransportSMTP:
		if cfg.SMTPHost == "" {
			errors = append(errors, "SMTPHost must be set when NotificationTransport is smtp")
		}
	default:
		errors = append(errors, fmt.Sprintf("NotificationTransport must be one of log, kafka, smtp, got: %s", cfg.NotificationTransport))
	}
	if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
		errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_issuer", cfg.JWTIssuer,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"venue_timezone", cfg.VenueTimeZone,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"lifecycle_interval", cfg.LifecycleInterval,
		"no_show_grace", cfg.NoShowGrace,
		"feedback_window", cfg.FeedbackWindow,
		"digest_interval", cfg.DigestInterval,
		"digest_weekday", time.Weekday(cfg.DigestWeekday).String(),
		"digest_hour", cfg.DigestHour,
		"notification_transport", cfg.NotificationTransport,
		"smtp_host", cfg.SMTPHost,
		"redis_enabled", cfg.RedisAddr != "",
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == DefaultVenueTimeZone {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
