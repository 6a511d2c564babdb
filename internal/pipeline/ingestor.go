package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/forecast-ingest/internal/domain"
	"github.com/couchcryptid/forecast-ingest/internal/observability"
)

// Result strings returned by Run.
const (
	SuccessMessage     = "Weather data successfully stored in DynamoDB!"
	ErrorMessagePrefix = "Error fetching/storing weather data: "
)

// Span names.
const (
	SpanInvocation = "ForecastIngest"
	SpanFetch      = "FetchWeatherData"
	SpanStore      = "StoreWeatherData"
)

// Fetcher returns the raw forecast body.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Store persists a single forecast record.
type Store interface {
	Put(ctx context.Context, rec domain.Record) error
}

// Outcome summarizes one finished invocation.
type Outcome struct {
	Succeeded  bool
	RecordID   string
	Stage      domain.Stage
	Error      string
	FinishedAt time.Time
	Duration   time.Duration
}

// Ingestor runs the fetch-decode-store sequence once per invocation.
// It holds no per-invocation state and is safe for concurrent use.
type Ingestor struct {
	fetcher Fetcher
	store   Store
	tracer  observability.Tracer
	newID   domain.IDGenerator
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
	last    atomic.Pointer[Outcome]
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithTracer sets the tracer used for invocation and phase spans. The
// default records nothing.
func WithTracer(t observability.Tracer) Option {
	return func(i *Ingestor) {
		if t != nil {
			i.tracer = t
		}
	}
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(i *Ingestor) {
		if g != nil {
			i.newID = g
		}
	}
}

// New creates an Ingestor with the given stages and observability.
func New(f Fetcher, s Store, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Ingestor {
	i := &Ingestor{
		fetcher: f,
		store:   s,
		tracer:  observability.NoopTracer{},
		newID:   domain.NewID,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run performs one invocation. The trigger payload is ignored. Every failure
// is reported through the returned string.
func (i *Ingestor) Run(ctx context.Context, _ any) string {
	if _, err := i.Ingest(ctx); err != nil {
		return ErrorMessagePrefix + err.Error()
	}
	return SuccessMessage
}

// Ingest fetches, decodes and stores one forecast, returning the written
// record. The first failing stage stops the sequence; its error is a
// *domain.StageError. A panic in a stage is recovered and returned as an
// error without a stage.
func (i *Ingestor) Ingest(ctx context.Context) (rec domain.Record, err error) {
	clock := domain.Clock()
	start := clock.Now()

	logger := i.logger
	ctx, span := i.tracer.Start(ctx, SpanInvocation)
	if id, ok := InvocationID(ctx); ok {
		span.SetAttribute("faas.invocation_id", id)
		logger = logger.With("invocation_id", id)
	}
	defer func() {
		if r := recover(); r != nil {
			rec, err = domain.Record{}, fmt.Errorf("panic: %v", r)
		}
		span.End(err)
		i.finish(logger, rec, err, clock.Now(), clock.Since(start))
	}()

	body, err := i.fetch(ctx)
	if err != nil {
		return domain.Record{}, err
	}

	doc, err := i.decode(body)
	if err != nil {
		return domain.Record{}, err
	}

	return i.write(ctx, doc)
}

// CheckReadiness returns nil once an invocation has stored a record.
func (i *Ingestor) CheckReadiness(_ context.Context) error {
	if !i.ready.Load() {
		return errors.New("no forecast has been stored yet")
	}
	return nil
}

// LastOutcome reports the most recent finished invocation, if any.
func (i *Ingestor) LastOutcome() (Outcome, bool) {
	o := i.last.Load()
	if o == nil {
		return Outcome{}, false
	}
	return *o, true
}

func (i *Ingestor) fetch(ctx context.Context) (body []byte, err error) {
	ctx, span := i.tracer.Start(ctx, SpanFetch)
	defer i.observePhase(domain.StageFetch, domain.Clock().Now())
	defer endSpan(span, &err)

	body, err = i.fetcher.Fetch(ctx)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageFetch, Err: err}
	}
	return body, nil
}

func (i *Ingestor) decode(body []byte) (domain.Document, error) {
	defer i.observePhase(domain.StageDecode, domain.Clock().Now())

	doc, err := domain.ParseDocument(body)
	if err != nil {
		return domain.Document{}, &domain.StageError{Stage: domain.StageDecode, Err: err}
	}
	return doc, nil
}

func (i *Ingestor) write(ctx context.Context, doc domain.Document) (rec domain.Record, err error) {
	ctx, span := i.tracer.Start(ctx, SpanStore)
	defer i.observePhase(domain.StageStore, domain.Clock().Now())
	defer endSpan(span, &err)

	rec, err = domain.NewRecord(i.newID(), doc)
	if err != nil {
		return domain.Record{}, &domain.StageError{Stage: domain.StageStore, Err: err}
	}
	span.SetAttribute("record_id", rec.ID)

	if err := i.store.Put(ctx, rec); err != nil {
		return domain.Record{}, &domain.StageError{Stage: domain.StageStore, Err: err}
	}
	return rec, nil
}

// endSpan ends a phase span with *errp. A panicking phase ends the span as
// failed and the panic continues up to Ingest.
func endSpan(span observability.Span, errp *error) {
	if r := recover(); r != nil {
		span.End(fmt.Errorf("panic: %v", r))
		panic(r)
	}
	span.End(*errp)
}

func (i *Ingestor) observePhase(stage domain.Stage, start time.Time) {
	i.metrics.PhaseDuration.WithLabelValues(string(stage)).Observe(domain.Clock().Since(start).Seconds())
}

func (i *Ingestor) finish(logger *slog.Logger, rec domain.Record, err error, finished time.Time, took time.Duration) {
	outcome := Outcome{FinishedAt: finished, Duration: took}
	i.metrics.InvocationDuration.Observe(took.Seconds())

	if err != nil {
		outcome.Error = err.Error()
		label := "panic"
		stage, ok := domain.StageOf(err)
		if ok {
			outcome.Stage = stage
			label = string(stage) + "_error"
		}
		i.metrics.Invocations.WithLabelValues(label).Inc()
		logger.Error("forecast ingest failed", "stage", stage, "error", err)
	} else {
		outcome.Succeeded = true
		outcome.RecordID = rec.ID
		i.metrics.Invocations.WithLabelValues("success").Inc()
		i.metrics.RecordsStored.Inc()
		i.metrics.LastSuccess.Set(float64(finished.Unix()))
		i.ready.Store(true)
		logger.Info("forecast stored", "record_id", rec.ID, "duration", took)
	}

	i.last.Store(&outcome)
}
