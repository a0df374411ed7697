package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Metrics holds all application metrics
type Metrics struct {
	ContentIngested   metric.Int64Counter
	SegmentsIndexed   metric.Int64Counter
	AcquisitionStage  metric.Int64Counter
	DBQueryDuration   metric.Float64Histogram
	RetrievalDuration metric.Float64Histogram
}

// Setup initializes OpenTelemetry
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace provider
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Shutdown function
	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/mindreel/backend")

	contentIngested, err := meter.Int64Counter(
		"pipeline.content.ingested",
		metric.WithDescription("Number of content items processed"),
	)
	if err != nil {
		return nil, err
	}

	segmentsIndexed, err := meter.Int64Counter(
		"pipeline.segments.indexed",
		metric.WithDescription("Number of transcript segments written"),
	)
	if err != nil {
		return nil, err
	}

	acquisitionStage, err := meter.Int64Counter(
		"pipeline.acquisition.stage",
		metric.WithDescription("Transcript acquisition stage outcomes"),
	)
	if err != nil {
		return nil, err
	}

	dbQueryDuration, err := meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	retrievalDuration, err := meter.Float64Histogram(
		"retrieval.request.duration",
		metric.WithDescription("Retrieval pipeline duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ContentIngested:   contentIngested,
		SegmentsIndexed:   segmentsIndexed,
		AcquisitionStage:  acquisitionStage,
		DBQueryDuration:   dbQueryDuration,
		RetrievalDuration: retrievalDuration,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer("github.com/mindreel/backend")
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordDBMetric records a database operation metric
func RecordDBMetric(ctx context.Context, metrics *Metrics, operation string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
	}
	metrics.DBQueryDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordAcquisitionStage records one transcript acquisition stage outcome
func RecordAcquisitionStage(ctx context.Context, metrics *Metrics, stage string, ok bool) {
	attrs := []attribute.KeyValue{
		attribute.String("acquisition.stage", stage),
		attribute.Bool("acquisition.ok", ok),
	}
	metrics.AcquisitionStage.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRetrievalMetric records a retrieval pipeline run
func RecordRetrievalMetric(ctx context.Context, metrics *Metrics, phase string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("retrieval.phase", phase),
	}
	metrics.RetrievalDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}
