package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumelens/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	PrettyPrint    bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// Metrics holds the custom instruments the engine and server record into.
type Metrics struct {
	// Analysis metrics
	AnalysisDuration metric.Float64Histogram
	AnalysisCount    metric.Int64Counter
	AnalysisErrors   metric.Int64Counter
	SuggestionCount  metric.Int64Histogram
	DimensionScores  metric.Int64Histogram

	// Session and lifecycle metrics
	SessionsCreated      metric.Int64Counter
	LifecycleTransitions metric.Int64Counter
	PatchesApplied       metric.Int64Counter

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// ObservabilityManager owns the OTel tracer and meter providers plus the
// custom metric instruments. A disabled manager is safe to use everywhere:
// every method degrades to a no-op.
type ObservabilityManager struct {
	config         ObservabilityConfig
	fullConfig     *config.Config
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager initializes tracing and metrics per configuration.
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	om := &ObservabilityManager{
		config:     obsConfig,
		fullConfig: fullConfig,
	}
	if !obsConfig.Enabled {
		return om, nil
	}

	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := om.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return om, nil
}

// initTracing installs the global tracer provider. Exporter choice: console
// in development, OTLP when configured, otherwise a no-op sink (sampling
// still records spans for the HTTP middleware's timing).
func (om *ObservabilityManager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.otlpEnabled():
		exporter, err = om.createOTLPTraceExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := om.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(om.config.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

// initMetrics installs the global meter provider and creates the custom
// instruments.
func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	res, err := om.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	return om.initCustomMetrics()
}

// setupMetricReaders builds one reader per enabled export path: console,
// OTLP push, and Prometheus scrape. With nothing enabled a manual reader
// keeps the meter provider valid.
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers,
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.metricsCollectionInterval())))
	}

	if om.otlpEnabled() {
		reader, err := om.createOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, reader)
	}

	if om.config.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		if reader != nil {
			readers = append(readers, reader)
			if err := StartPrometheusServer(mux, om.config.Prometheus.Port); err != nil {
				return nil, fmt.Errorf("failed to start Prometheus server: %w", err)
			}
		}
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

func (om *ObservabilityManager) otlpEnabled() bool {
	return om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled
}

// createResource identifies this service instance in exported telemetry.
func (om *ObservabilityManager) createResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.serviceInstanceID()),
		),
	)
}

// initCustomMetrics creates every instrument in Metrics. Instrument names
// are stable: dashboards depend on them.
func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{}
	var err error

	if om.metrics.AnalysisDuration, err = meter.Float64Histogram(
		"resumelens_analysis_duration_seconds",
		metric.WithDescription("Time spent analyzing resumes"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	if om.metrics.AnalysisCount, err = meter.Int64Counter(
		"resumelens_analyses_total",
		metric.WithDescription("Total number of resume analyses"),
	); err != nil {
		return fmt.Errorf("failed to create analysis count metric: %w", err)
	}

	if om.metrics.AnalysisErrors, err = meter.Int64Counter(
		"resumelens_analysis_errors_total",
		metric.WithDescription("Total number of failed resume analyses"),
	); err != nil {
		return fmt.Errorf("failed to create analysis error count metric: %w", err)
	}

	if om.metrics.SuggestionCount, err = meter.Int64Histogram(
		"resumelens_suggestions_per_analysis",
		metric.WithDescription("Number of suggestions produced per analysis"),
	); err != nil {
		return fmt.Errorf("failed to create suggestion count metric: %w", err)
	}

	if om.metrics.DimensionScores, err = meter.Int64Histogram(
		"resumelens_dimension_score",
		metric.WithDescription("Per-dimension scores produced by analyses"),
	); err != nil {
		return fmt.Errorf("failed to create dimension score metric: %w", err)
	}

	if om.metrics.SessionsCreated, err = meter.Int64Counter(
		"resumelens_sessions_created_total",
		metric.WithDescription("Total number of analysis sessions created"),
	); err != nil {
		return fmt.Errorf("failed to create sessions created metric: %w", err)
	}

	if om.metrics.LifecycleTransitions, err = meter.Int64Counter(
		"resumelens_suggestion_transitions_total",
		metric.WithDescription("Total number of suggestion lifecycle transitions"),
	); err != nil {
		return fmt.Errorf("failed to create lifecycle transitions metric: %w", err)
	}

	if om.metrics.PatchesApplied, err = meter.Int64Counter(
		"resumelens_patches_applied_total",
		metric.WithDescription("Total number of suggestion patches applied to documents"),
	); err != nil {
		return fmt.Errorf("failed to create patches applied metric: %w", err)
	}

	if om.metrics.RateLimitHits, err = meter.Int64Counter(
		"resumelens_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metric instruments, or an inert set when metrics
// were never initialized.
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// HTTPMiddleware returns otelhttp instrumentation, or a pass-through when
// observability is disabled.
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}
	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the named component.
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown flushes and stops every provider that was started.
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TrackAnalysis wraps one analysis run with a span, a duration histogram
// sample, and success/error counters.
func (m *Metrics) TrackAnalysis(ctx context.Context, operation string, fn func(context.Context) error, om *ObservabilityManager) error {
	if m.AnalysisDuration == nil {
		return fn(ctx)
	}

	tracer := otel.Tracer("resumelens.engine")
	ctx, span := tracer.Start(ctx, "analysis."+operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	if m.isMetricsEnabled(om) {
		attrs := []attribute.KeyValue{
			attribute.String("operation", operation),
			attribute.Bool("success", err == nil),
		}
		m.AnalysisDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
		m.AnalysisCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			m.AnalysisErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		span.SetAttributes(attrs...)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}
	return err
}

// RecordSuggestionCount records how many suggestions an analysis produced.
func (m *Metrics) RecordSuggestionCount(ctx context.Context, count int, om *ObservabilityManager) {
	if m.SuggestionCount == nil || !m.isMetricsEnabled(om) {
		return
	}
	m.SuggestionCount.Record(ctx, int64(count))
}

// RecordDimensionScores records each dimension's score from one analysis.
func (m *Metrics) RecordDimensionScores(ctx context.Context, scores map[string]int, om *ObservabilityManager) {
	if m.DimensionScores == nil || !m.isMetricsEnabled(om) {
		return
	}
	for dimension, score := range scores {
		m.DimensionScores.Record(ctx, int64(score),
			metric.WithAttributes(attribute.String("dimension", dimension)))
	}
}

func (m *Metrics) isMetricsEnabled(om *ObservabilityManager) bool {
	if om == nil || om.fullConfig == nil {
		return true
	}
	return om.fullConfig.Observability.Metrics.Enabled
}

// RecordBusinessMetric increments one of the domain counters by name.
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, om *ObservabilityManager, attributes ...attribute.KeyValue) {
	if !m.isMetricsEnabled(om) {
		return
	}

	attrs := append([]attribute.KeyValue{
		attribute.Bool("success", success),
	}, attributes...)

	var counter metric.Int64Counter
	switch metricType {
	case "session_created":
		counter = m.SessionsCreated
	case "suggestion_transition":
		counter = m.LifecycleTransitions
	case "patch_applied":
		counter = m.PatchesApplied
	case "rate_limit_hit":
		counter = m.RateLimitHits
	}
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// noOpSpanExporter discards spans when no trace destination is configured.
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// createOTLPTraceExporter builds the OTLP HTTP trace exporter from config.
func (om *ObservabilityManager) createOTLPTraceExporter() (trace.SpanExporter, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

// createOTLPMetricsReader builds a periodic OTLP HTTP metrics reader.
func (om *ObservabilityManager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.metricsCollectionInterval())), nil
}

func (om *ObservabilityManager) serviceInstanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	return "resumelens-1"
}

func (om *ObservabilityManager) metricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
