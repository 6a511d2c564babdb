package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = "Weather"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TARGET_TABLE", testTable)
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testTable, cfg.TargetTable)
	assert.Equal(t, DefaultForecastURL, cfg.ForecastURL)
	assert.Zero(t, cfg.FetchTimeout)
	assert.Equal(t, ModeSchedule, cfg.RunMode)
	assert.Equal(t, time.Hour, cfg.ScheduleInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Empty(t, cfg.DynamoDBEndpoint)
	assert.Equal(t, "forecast-ingest", cfg.ServiceName)
	assert.Empty(t, cfg.SamplingRulesFile)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("TARGET_TABLE", "cmtr-forecasts")
	t.Setenv("FORECAST_URL", "http://localhost:9999/v1/forecast?latitude=1&longitude=2")
	t.Setenv("FETCH_TIMEOUT", "15s")
	t.Setenv("RUN_MODE", "once")
	t.Setenv("SCHEDULE_INTERVAL", "30m")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("OTEL_SERVICE_NAME", "processor")
	t.Setenv("SAMPLING_RULES_FILE", "/etc/forecast/sampling-rules.json")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cmtr-forecasts", cfg.TargetTable)
	assert.Equal(t, "http://localhost:9999/v1/forecast?latitude=1&longitude=2", cfg.ForecastURL)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, ModeOnce, cfg.RunMode)
	assert.Equal(t, 30*time.Minute, cfg.ScheduleInterval)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "eu-central-1", cfg.AWSRegion)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDBEndpoint)
	assert.Equal(t, "processor", cfg.ServiceName)
	assert.Equal(t, "/etc/forecast/sampling-rules.json", cfg.SamplingRulesFile)
	assert.Equal(t, "http://collector:4318", cfg.OTLPEndpoint)
}

func TestLoad_MissingTargetTable(t *testing.T) {
	t.Setenv("TARGET_TABLE", "")
	t.Setenv("target_table", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TARGET_TABLE")
}

func TestLoad_LegacyTargetTable(t *testing.T) {
	t.Setenv("TARGET_TABLE", "")
	t.Setenv("target_table", "legacy-table")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-table", cfg.TargetTable)
}

func TestLoad_LambdaRuntimeImpliesLambdaMode(t *testing.T) {
	t.Setenv("TARGET_TABLE", testTable)
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "127.0.0.1:9001")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeLambda, cfg.RunMode)
}

func TestLoad_ExplicitModeOverridesLambdaRuntime(t *testing.T) {
	t.Setenv("TARGET_TABLE", testTable)
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "127.0.0.1:9001")
	t.Setenv("RUN_MODE", "once")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeOnce, cfg.RunMode)
}

func TestLoad_InvalidRunMode(t *testing.T) {
	t.Setenv("TARGET_TABLE", testTable)
	t.Setenv("RUN_MODE", "daemon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RUN_MODE")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("TARGET_TABLE", testTable)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("TARGET_TABLE", testTable)

	for _, v := range []string{"bad", "-1s"} {
		t.Setenv("FETCH_TIMEOUT", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
	}
}

func TestLoad_InvalidScheduleInterval(t *testing.T) {
	t.Setenv("TARGET_TABLE", testTable)

	for _, v := range []string{"soon", "0s", "-5m"} {
		t.Setenv("SCHEDULE_INTERVAL", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "SCHEDULE_INTERVAL")
	}
}

func TestLoad_InvalidForecastURL(t *testing.T) {
	t.Setenv("TARGET_TABLE", testTable)

	for _, v := range []string{"ftp://api.open-meteo.com/v1/forecast", "api.open-meteo.com/v1/forecast", "http://"} {
		t.Setenv("FORECAST_URL", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "FORECAST_URL")
	}
}

func TestLoad_InvalidDynamoDBEndpoint(t *testing.T) {
	t.Setenv("TARGET_TABLE", testTable)
	t.Setenv("DYNAMODB_ENDPOINT", "localhost:8000")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DYNAMODB_ENDPOINT")
}
