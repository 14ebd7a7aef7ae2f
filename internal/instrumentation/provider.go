package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrUnknownExporter is returned for unsupported exporter names.
var ErrUnknownExporter = errors.New("unknown exporter")

// Provider owns the meter and tracer providers for the process.
type Provider struct {
	config Config

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	registry       *prometheus.Registry

	metrics     *Metrics
	auditLogger *AuditLogger
}

// NewProvider builds exporters from config and installs the resulting
// providers as the global OpenTelemetry providers. When config.Enabled is
// false the returned Provider records nothing.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		config:      config,
		metrics:     &Metrics{},
		auditLogger: NewAuditLogger(nil),
	}
	if !config.Enabled {
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	reader, err := p.metricReader(ctx)
	if err != nil {
		return nil, err
	}
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)

	p.metrics, err = NewMetrics(p.meterProvider.Meter(TracerName), false)
	if err != nil {
		_ = p.meterProvider.Shutdown(ctx)
		return nil, err
	}

	spanExporter, err := p.spanExporter(ctx)
	if err != nil {
		_ = p.meterProvider.Shutdown(ctx)
		return nil, err
	}
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.TraceSamplingRate))),
		sdktrace.WithResource(res),
	}
	if spanExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(spanExporter))
	}
	p.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)

	otel.SetMeterProvider(p.meterProvider)
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return p, nil
}

func (p *Provider) metricReader(ctx context.Context) (sdkmetric.Reader, error) {
	switch p.config.MetricsExporter {
	case ExporterPrometheus, "":
		p.registry = prometheus.NewRegistry()
		p.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := otelprom.New(otelprom.WithRegisterer(p.registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		return exporter, nil

	case ExporterOTLP:
		var opts []otlpmetrichttp.Option
		if p.config.OTLPEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpointURL(p.config.OTLPEndpoint))
		}
		if p.config.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(DefaultMetricInterval)), nil

	case ExporterStdout:
		// stdout carries the MCP stdio transport
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(DefaultMetricInterval)), nil

	default:
		return nil, fmt.Errorf("%w: metrics exporter %q", ErrUnknownExporter, p.config.MetricsExporter)
	}
}

func (p *Provider) spanExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch p.config.TracingExporter {
	case ExporterNone, "":
		return nil, nil

	case ExporterOTLP:
		var opts []otlptracehttp.Option
		if p.config.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(p.config.OTLPEndpoint))
		}
		if p.config.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		return exporter, nil

	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		return exporter, nil

	default:
		return nil, fmt.Errorf("%w: tracing exporter %q", ErrUnknownExporter, p.config.TracingExporter)
	}
}

// Enabled reports whether instrumentation is active.
func (p *Provider) Enabled() bool {
	return p != nil && p.config.Enabled
}

// Config returns the configuration the provider was built with.
func (p *Provider) Config() Config {
	return p.config
}

// Metrics returns the metrics recorder. It is never nil; when instrumentation
// is disabled every Record call is a no-op.
func (p *Provider) Metrics() *Metrics {
	if p == nil {
		return nil
	}
	return p.metrics
}

// AuditLogger returns the tool audit logger.
func (p *Provider) AuditLogger() *AuditLogger {
	if p == nil {
		return nil
	}
	return p.auditLogger
}

// SetAuditLogger replaces the audit logger.
func (p *Provider) SetAuditLogger(al *AuditLogger) {
	p.auditLogger = al
}

// PrometheusHandler serves the provider's registry. It responds 404 when the
// Prometheus exporter is not in use.
func (p *Provider) PrometheusHandler() http.Handler {
	if p == nil || p.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
