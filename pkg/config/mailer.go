package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"commonspace/pkg/logger"
)

// MailerConfig is the configuration of the standalone mailer, which needs
// only SMTP settings and none of the API's database or token settings.
type MailerConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	MetricsPort     string
	ShutdownTimeout time.Duration

	Log *logger.Logger
}

func LoadMailer(serviceName string) *MailerConfig {
	cfg := &MailerConfig{
		SMTPHost:     getEnvStr(EnvSMTPHost, ""),
		SMTPPort:     getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUsername: getEnvStr(EnvSMTPUsername, ""),
		SMTPPassword: getEnvStr(EnvSMTPPassword, ""),
		SMTPFrom:     getEnvStr(EnvSMTPFrom, DefaultSMTPFrom),

		MetricsPort:     getEnvStr(EnvMailerMetricsPort, DefaultMailerMetricsPort),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.Log.Info("Configuration loaded successfully",
		"smtp_host", cfg.SMTPHost,
		"smtp_port", cfg.SMTPPort,
		"smtp_from", cfg.SMTPFrom,
		"smtp_auth", cfg.SMTPUsername != "",
		"metrics_port", cfg.MetricsPort,
	)
	return cfg
}

func (cfg *MailerConfig) Validate() error {
	var errors []string

	if cfg.SMTPHost == "" {
		errors = append(errors, "SMTPHost cannot be empty")
	}
	if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
		errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
	}
	if !strings.Contains(cfg.SMTPFrom, "@") {
		errors = append(errors, fmt.Sprintf("SMTPFrom must be an email address, got: %s", cfg.SMTPFrom))
	}
	if port, err := strconv.Atoi(cfg.MetricsPort); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("MetricsPort must be between 1 and 65535, got: %s", cfg.MetricsPort))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("Configuration validation failed:\n  %s", strings.Join(errors, "\n  "))
	}
	return nil
}
