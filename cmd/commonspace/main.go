package main

import (
	adminhandler "commonspace/internal/admin/handler"
	adminservice "commonspace/internal/admin/service"
	"commonspace/internal/auth"
	bookinghandler "commonspace/internal/bookings/handler"
	bookingrepository "commonspace/internal/bookings/repository"
	bookingservice "commonspace/internal/bookings/service"
	bookingvalidator "commonspace/internal/bookings/validator"
	"commonspace/internal/health"
	"commonspace/internal/lifecycle"
	"commonspace/internal/notification"
	userhandler "commonspace/internal/users/handler"
	userrepository "commonspace/internal/users/repository"
	userservice "commonspace/internal/users/service"
	venuehandler "commonspace/internal/venues/handler"
	venuerepository "commonspace/internal/venues/repository"
	venueservice "commonspace/internal/venues/service"
	venuevalidator "commonspace/internal/venues/validator"
	"commonspace/pkg/app"
	"commonspace/pkg/config"
	"commonspace/pkg/kafka"
	kafka_config "commonspace/pkg/kafka/config"
	kafka_middleware "commonspace/pkg/kafka/middleware"
	"commonspace/pkg/middleware"
)

const ServiceName = "commonspace"

type repositories struct {
	bookings bookingrepository.BookingRepository
	locks    bookingrepository.BookingLockRepository
	venues   venuerepository.VenueRepository
	users    userrepository.UserRepository
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting CommonSpace service")
	serverApp := app.NewApplication(cfg)

	repos := initRepositories(cfg)
	notifier := notification.NewNotifier(initSender(cfg, serverApp), repos.venues, cfg.Log)
	dedup := initDedup(cfg)

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	authMiddleware := auth.NewMiddleware(verifier, cfg.Log)

	bookingLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, auth.CallerKey, cfg.Log)
	serverApp.OnShutdown("booking rate limiter", func() error {
		bookingLimiter.Stop()
		return nil
	})

	bookingService := bookingservice.NewBookingService(
		repos.bookings,
		repos.locks,
		repos.venues,
		notifier,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)
	venueService := venueservice.NewVenueService(repos.venues, repos.bookings, venuevalidator.NewVenueValidator(cfg.Log), cfg)
	userService := userservice.NewUserService(repos.users, notifier, cfg)
	statsService := adminservice.NewStatsService(repos.users, repos.venues, repos.bookings, cfg)
	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	healthHandler := health.NewHandler(cfg.Log).
		WithMongo(cfg.Client.Mongo).
		WithRedis(cfg.Client.Redis)

	serverApp.SetApp(healthHandler,
		bookinghandler.NewBookingHandler(bookingService, authMiddleware, cfg.Log).WithRateLimiter(bookingLimiter),
		venuehandler.NewVenueHandler(venueService, authMiddleware, cfg.Log),
		userhandler.NewUserHandler(userService, authMiddleware, cfg.Log),
		adminhandler.NewStatsHandler(statsService, authMiddleware, cfg.Log),
	)

	serverApp.AddWorker(lifecycle.New(repos.bookings, notifier, dedup, cfg, cfg.Log))
	serverApp.AddWorker(notification.NewDigestScheduler(repos.users, repos.bookings, notifier, dedup, cfg))

	serverApp.Run()
}

func initRepositories(cfg *config.Config) repositories {
	return repositories{
		bookings: bookingrepository.NewMongoBookingRepository(cfg),
		locks:    bookingrepository.NewBookingLockRepository(cfg),
		venues:   venuerepository.NewMongoVenueRepository(cfg),
		users:    userrepository.NewMongoUserRepository(cfg),
	}
}

// initSender picks the email transport. The Kafka producer is closed by the
// application after the schedulers that use it have stopped.
func initSender(cfg *config.Config, serverApp *app.Application) notification.Sender {
	switch cfg.NotificationTransport {
	case config.TransportSMTP:
		cfg.Log.Info("Sending email over SMTP", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	case config.TransportKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.EmailTopic, kafkaCfg.EmailDLQTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
			producer.Use(kafka_middleware.MetricsProducerMiddleware())
		}
		serverApp.OnShutdown("kafka producer", producer.Close)

		cfg.Log.Info("Publishing email requests to Kafka", "topic", kafkaCfg.EmailTopic)
		return notification.NewKafkaSender(producer, ServiceName)

	default:
		cfg.Log.Info("Email delivery disabled, notifications are logged only")
		return notification.NewLogSender(cfg.Log)
	}
}

func initDedup(cfg *config.Config) notification.Dedup {
	if cfg.Client.Redis != nil {
		return notification.NewRedisDedup(cfg.Client.Redis, cfg.ReminderDedupTTL)
	}
	cfg.Log.Warn("Redis not configured, notification de-duplication is per process")
	return notification.NewMemoryDedup(cfg.ReminderDedupTTL)
}
