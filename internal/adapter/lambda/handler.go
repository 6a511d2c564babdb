// Package lambda adapts the forecast ingestor to the AWS Lambda runtime.
package lambda

import (
	"context"
	"encoding/json"
	"log/slog"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/couchcryptid/forecast-ingest/internal/pipeline"
)

// Runner performs one invocation and reports its result as a string.
type Runner interface {
	Run(ctx context.Context, trigger any) string
}

// Handler receives Lambda events and forwards them to a Runner.
type Handler struct {
	runner Runner
	flush  func(context.Context) error
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithFlush registers a function called after every invocation, before the
// runtime may freeze the process. Typically the tracer provider's ForceFlush.
func WithFlush(fn func(context.Context) error) Option {
	return func(h *Handler) {
		h.flush = fn
	}
}

// NewHandler creates a Handler around runner.
func NewHandler(runner Runner, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{runner: runner, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle runs one invocation. The event is decoded only so it can be passed
// through as the trigger; the returned error is always nil so the outcome is
// carried entirely by the result string.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (string, error) {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = pipeline.WithInvocationID(ctx, lc.AwsRequestID)
	}

	var trigger any
	if len(event) > 0 {
		if err := json.Unmarshal(event, &trigger); err != nil {
			h.logger.Debug("trigger event is not JSON", "error", err)
		}
	}

	result := h.runner.Run(ctx, trigger)

	if h.flush != nil {
		if err := h.flush(ctx); err != nil {
			h.logger.Warn("flush telemetry", "error", err)
		}
	}
	return result, nil
}

// Start hands the handler to the Lambda runtime. It blocks for the life of
// the execution environment.
func Start(h *Handler) {
	awslambda.Start(h.Handle)
}
