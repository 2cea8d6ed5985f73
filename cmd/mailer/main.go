package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commonspace/internal/notification"
	"commonspace/pkg/config"
	"commonspace/pkg/kafka"
	kafka_config "commonspace/pkg/kafka/config"
	kafka_middleware "commonspace/pkg/kafka/middleware"
	"commonspace/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ServiceName = "mailer"

// The mailer consumes email requests published by the API and delivers them
// over SMTP. Transient SMTP failures are retried; the rest go to the DLQ.
func main() {
	cfg := config.LoadMailer(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	sender := notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.EmailTopic,
		kafkaCfg.MailerGroupID,
		kafkaCfg.EmailDLQTopic,
		notification.NewMailHandler(sender, cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	run(cfg, consumer, metricsServer, cfg.Log)
}

func run(cfg *config.MailerConfig, consumer *kafka.Consumer, metricsServer *http.Server, log *logger.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Info("Starting metrics server", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-consumerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Kafka consumer stopped", "error", err)
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := consumer.Close(); err != nil {
		log.Error("Failed to close Kafka consumer", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics server shutdown failed", "error", err)
	}

	log.Info("Mailer stopped gracefully")
}
