package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	godotenv "github.com/joho/godotenv"
)

const (
	defaultTargetWidth = 100
	defaultWorkerCount = 1
	defaultOpsAddr     = ":9090"
	defaultLogLevel    = "info"
	defaultLogFormat   = "json"
)

type Config struct {
	TargetWidth int

	LogLevel  string
	LogFormat string

	AwsRegion         string
	AwsEndpoint       string
	AwsForcePathStyle bool

	RabbitMqURL            string
	RabbitMqQueue          string
	RabbitMqStatusExchange string
	WorkerCount            int
	OpsAddr                string
}

// InitializeEnvs loads the .env file matching APP_ENV, if any, and reads the
// configuration from the environment.
func InitializeEnvs() (*Config, error) {
	loadEnvFiles()
	return FromEnv()
}

func loadEnvFiles() {
	switch env := os.Getenv("APP_ENV"); env {
	case "docker":
		if err := godotenv.Overload(".env.docker"); err == nil {
			slog.Info("loaded env file", "file", ".env.docker")
		}
	case "dev", "":
		if err := godotenv.Overload(".env.dev"); err == nil {
			slog.Info("loaded env file", "file", ".env.dev")
		} else if err := godotenv.Overload(".env"); err == nil {
			slog.Info("loaded env file", "file", ".env")
		}
	default:
		fname := ".env." + env
		if err := godotenv.Overload(fname); err == nil {
			slog.Info("loaded env file", "file", fname)
		} else if err := godotenv.Overload(".env"); err == nil {
			slog.Info("loaded env file", "file", ".env")
		}
	}
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	targetWidth, err := intEnv("TARGET_WIDTH", defaultTargetWidth)
	if err != nil {
		return nil, err
	}
	if targetWidth <= 0 {
		return nil, fmt.Errorf("TARGET_WIDTH must be positive, got %d", targetWidth)
	}

	workerCount, err := intEnv("WORKER_COUNT", defaultWorkerCount)
	if err != nil {
		return nil, err
	}

	forcePathStyle, err := boolEnv("AWS_FORCE_PATH_STYLE", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		TargetWidth:            targetWidth,
		LogLevel:               stringEnv("LOG_LEVEL", defaultLogLevel),
		LogFormat:              stringEnv("LOG_FORMAT", defaultLogFormat),
		AwsRegion:              os.Getenv("AWS_REGION"),
		AwsEndpoint:            os.Getenv("AWS_ENDPOINT"),
		AwsForcePathStyle:      forcePathStyle,
		RabbitMqURL:            os.Getenv("RABBITMQ_URL"),
		RabbitMqQueue:          os.Getenv("RABBITMQ_QUEUE"),
		RabbitMqStatusExchange: os.Getenv("RABBITMQ_STATUS_EXCHANGE"),
		WorkerCount:            workerCount,
		OpsAddr:                stringEnv("OPS_ADDR", defaultOpsAddr),
	}, nil
}

// ValidateWorker checks the settings only the queue worker needs.
func (c *Config) ValidateWorker() error {
	var missing []string
	if c.RabbitMqURL == "" {
		missing = append(missing, "RABBITMQ_URL")
	}
	if c.RabbitMqQueue == "" {
		missing = append(missing, "RABBITMQ_QUEUE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is missing", strings.Join(missing, " or "))
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	return nil
}

func stringEnv(name string, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func intEnv(name string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return n, nil
}

func boolEnv(name string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", name, err)
	}
	return b, nil
}
