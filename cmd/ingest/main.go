// Command ingest fetches the configured weather forecast and stores it as a
// single DynamoDB item per invocation. RUN_MODE selects how invocations are
// triggered: by the AWS Lambda runtime, by an in-process schedule, or once.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/couchcryptid/forecast-ingest/internal/adapter/dynamodb"
	httpadapter "github.com/couchcryptid/forecast-ingest/internal/adapter/http"
	"github.com/couchcryptid/forecast-ingest/internal/adapter/lambda"
	"github.com/couchcryptid/forecast-ingest/internal/adapter/openmeteo"
	"github.com/couchcryptid/forecast-ingest/internal/config"
	"github.com/couchcryptid/forecast-ingest/internal/observability"
	"github.com/couchcryptid/forecast-ingest/internal/pipeline"
	"github.com/couchcryptid/forecast-ingest/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	os.Exit(run(cfg, logger))
}

func run(cfg *config.Config, logger *slog.Logger) int {
	ctx := context.Background()
	metrics := observability.NewMetrics()

	rules, err := observability.LoadSamplingRules(cfg.SamplingRulesFile)
	if err != nil {
		logger.Error("failed to load sampling rules", "path", cfg.SamplingRulesFile, "error", err)
		return 1
	}

	tp, err := observability.NewTracerProvider(ctx, cfg, rules)
	if err != nil {
		logger.Error("failed to create tracer provider", "error", err)
		return 1
	}
	otel.SetTracerProvider(tp)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer provider shutdown error", "error", err)
		}
	}()

	client, err := dynamodb.NewClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint, tp)
	if err != nil {
		logger.Error("failed to create dynamodb client", "error", err)
		return 1
	}
	store := dynamodb.NewStore(client, cfg.TargetTable, logger)
	fetcher := openmeteo.NewClient(cfg.ForecastURL, cfg.FetchTimeout, metrics, logger)

	ingestor := pipeline.New(fetcher, store, logger, metrics,
		pipeline.WithTracer(observability.NewOTelTracer(tp)))

	logger.Info("forecast ingest configured",
		"run_mode", cfg.RunMode,
		"table", cfg.TargetTable,
		"forecast_url", cfg.ForecastURL,
		"region", cfg.AWSRegion,
	)

	switch cfg.RunMode {
	case config.ModeLambda:
		lambda.Start(lambda.NewHandler(ingestor, logger, lambda.WithFlush(tp.ForceFlush)))
		return 0
	case config.ModeOnce:
		return runOnce(ctx, ingestor, os.Stdout)
	default:
		return runScheduled(cfg, ingestor, logger, metrics)
	}
}

// runner is the part of the ingestor the once mode needs.
type runner interface {
	Run(ctx context.Context, trigger any) string
}

// runOnce performs a single invocation, prints the result to out and maps it
// to the process exit code.
func runOnce(ctx context.Context, r runner, out io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := r.Run(ctx, nil)
	fmt.Fprintln(out, result)
	if result != pipeline.SuccessMessage {
		return 1
	}
	return 0
}

func runScheduled(cfg *config.Config, ingestor *pipeline.Ingestor, logger *slog.Logger, metrics *observability.Metrics) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.New(ingestor, cfg.ScheduleInterval, logger, metrics)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		return 1
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ingestor, ingestor, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start scheduled ingestion.
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		return 1
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return 0
}
