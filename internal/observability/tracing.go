package observability

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/forecast-ingest/internal/config"
)

// instrumentationName identifies spans opened through OTelTracer.
const instrumentationName = "github.com/couchcryptid/forecast-ingest"

// Span is an open tracing span.
type Span interface {
	// SetAttribute attaches a string attribute to the span.
	SetAttribute(key, value string)

	// End closes the span. A non-nil err marks the span as failed.
	End(err error)
}

// Tracer opens spans around the phases of an invocation. Tracing is advisory:
// implementations must not fail or block the traced work.
type Tracer interface {
	// Start opens a child span of whatever span ctx carries.
	//
	// Returns: a context carrying the new span, and the span itself. The
	// caller must End the span exactly once.
	Start(ctx context.Context, name string) (context.Context, Span)
}

// NoopTracer is the default Tracer; it records nothing.
type NoopTracer struct{}

func (NoopTracer) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) SetAttribute(string, string) {}
func (noopSpan) End(error)                   {}

// OTelTracer implements Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer creates a Tracer backed by the given provider.
func NewOTelTracer(tp trace.TracerProvider) *OTelTracer {
	return &OTelTracer{tracer: tp.Tracer(instrumentationName)}
}

func (t *OTelTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) SetAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// NewTracerProvider builds the SDK tracer provider. Sampling follows rules
// (parent-based, so child spans inherit the root decision). Spans are
// exported over OTLP/HTTP only when an endpoint is configured; the exporter
// reads the standard OTEL_EXPORTER_OTLP_* variables itself.
func NewTracerProvider(ctx context.Context, cfg *config.Config, rules SamplingRules) (*sdktrace.TracerProvider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	sampler := NewRulesSampler(cfg.ServiceName, rules, clockwork.NewRealClock())
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("create otlp trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}
