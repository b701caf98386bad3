package observability

import (
	"context"
	"errors"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"creators-club/internal/common/logger"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer

	jobCounter       otelmetric.Int64Counter
	jobDuration      otelmetric.Float64Histogram
	analysisDuration otelmetric.Float64Histogram
	applications     otelmetric.Int64Counter
}

type options struct {
	registerer     promclient.Registerer
	jaegerEndpoint string
	sampleRatio    float64
	spanProcessor  sdktrace.SpanProcessor
	logger         logger.Logger
}

type Option func(*options)

// WithRegisterer registers the Prometheus bridge somewhere other than the
// default registry.
func WithRegisterer(r promclient.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithJaeger exports sampled spans to a Jaeger collector.
func WithJaeger(endpoint string, sampleRatio float64) Option {
	return func(o *options) {
		o.jaegerEndpoint = endpoint
		o.sampleRatio = sampleRatio
	}
}

// WithSpanProcessor adds a processor, e.g. a tracetest.SpanRecorder.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessor = p }
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

func New(serviceName string, opts ...Option) *Observability {
	o := &options{
		registerer:  promclient.DefaultRegisterer,
		sampleRatio: 1,
		logger:      logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	obs := &Observability{}
	obs.tracerProvider = newTracerProvider(serviceName, o)
	obs.tracer = obs.tracerProvider.Tracer(serviceName)

	exporter, err := prometheus.New(prometheus.WithRegisterer(o.registerer))
	if err != nil {
		o.logger.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err})
		return obs
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs_processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs_duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	analysisDuration, _ := meter.Float64Histogram(
		"analysis_duration",
		otelmetric.WithDescription("Time from analysis start to 100 percent"),
		otelmetric.WithUnit("ms"),
	)

	applications, _ := meter.Int64Counter(
		"applications_received",
		otelmetric.WithDescription("Applications received by the intake endpoint"),
	)

	obs.meterProvider = provider
	obs.meter = meter
	obs.jobCounter = jobCounter
	obs.jobDuration = jobDuration
	obs.analysisDuration = analysisDuration
	obs.applications = applications
	return obs
}

func newTracerProvider(serviceName string, o *options) *sdktrace.TracerProvider {
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.sampleRatio))),
	}
	if o.spanProcessor != nil {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(o.spanProcessor))
	}
	if o.jaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(o.jaegerEndpoint)))
		if err != nil {
			o.logger.Warn("Failed to create Jaeger exporter", map[string]interface{}{
				"endpoint": o.jaegerEndpoint,
				"error":    err,
			})
		} else {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
		}
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	return tp
}

// StartSpan starts a span on the service tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordAnalysis(ctx context.Context, flow string, duration time.Duration, ticks int) {
	if o != nil && o.analysisDuration != nil {
		o.analysisDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("flow", flow),
			attribute.Int("ticks", ticks),
		))
	}
}

func (o *Observability) RecordApplication(ctx context.Context, outcome string) {
	if o != nil && o.applications != nil {
		o.applications.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
