package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultForecastURL requests hourly 2m temperature for San Francisco.
const DefaultForecastURL = "https://api.open-meteo.com/v1/forecast?latitude=37.7749&longitude=-122.4194&hourly=temperature_2m"

// Run modes.
const (
	ModeLambda   = "lambda"
	ModeSchedule = "schedule"
	ModeOnce     = "once"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	TargetTable  string
	ForecastURL  string
	FetchTimeout time.Duration

	RunMode          string
	ScheduleInterval time.Duration
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	// AWS / DynamoDB client configuration.
	AWSRegion        string
	DynamoDBEndpoint string

	// Tracing configuration.
	ServiceName       string
	SamplingRulesFile string
	OTLPEndpoint      string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is read first if present; it never
// overrides variables that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "0s")
	if err != nil || fetchTimeout < 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	interval, err := parseDuration("SCHEDULE_INTERVAL", "1h")
	if err != nil || interval <= 0 {
		return nil, errors.New("invalid SCHEDULE_INTERVAL")
	}

	cfg := &Config{
		TargetTable:  targetTable(),
		ForecastURL:  sharedcfg.EnvOrDefault("FORECAST_URL", DefaultForecastURL),
		FetchTimeout: fetchTimeout,

		RunMode:          sharedcfg.EnvOrDefault("RUN_MODE", defaultRunMode()),
		ScheduleInterval: interval,
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,

		AWSRegion:        sharedcfg.EnvOrDefault("AWS_REGION", "us-east-1"),
		DynamoDBEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),

		ServiceName:       sharedcfg.EnvOrDefault("OTEL_SERVICE_NAME", "forecast-ingest"),
		SamplingRulesFile: os.Getenv("SAMPLING_RULES_FILE"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.TargetTable == "" {
		return nil, errors.New("TARGET_TABLE is required")
	}
	if err := validateURL(cfg.ForecastURL); err != nil {
		return nil, fmt.Errorf("invalid FORECAST_URL: %w", err)
	}
	switch cfg.RunMode {
	case ModeLambda, ModeSchedule, ModeOnce:
	default:
		return nil, fmt.Errorf("invalid RUN_MODE %q: want %s, %s or %s", cfg.RunMode, ModeLambda, ModeSchedule, ModeOnce)
	}
	if cfg.DynamoDBEndpoint != "" {
		if err := validateURL(cfg.DynamoDBEndpoint); err != nil {
			return nil, fmt.Errorf("invalid DYNAMODB_ENDPOINT: %w", err)
		}
	}

	return cfg, nil
}

// targetTable prefers TARGET_TABLE and falls back to the lower-case
// target_table name used by existing deployments.
func targetTable() string {
	if v := os.Getenv("TARGET_TABLE"); v != "" {
		return v
	}
	return os.Getenv("target_table")
}

// defaultRunMode picks lambda when the Lambda runtime has set up the process.
func defaultRunMode() string {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		return ModeLambda
	}
	return ModeSchedule
}

func parseDuration(key, def string) (time.Duration, error) {
	return time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
