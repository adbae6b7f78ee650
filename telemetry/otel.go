// Package telemetry provides logging and OpenTelemetry instrumentation
// for Peili.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Settings configures the OTEL provider.
type Settings struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
	Traces      bool
	Metrics     bool
	SampleRate  float64

	// Prometheus additionally registers a pull exporter on the default
	// prometheus registry, for a /metrics endpoint.
	Prometheus bool
}

// Provider wraps OTEL tracer and meter providers.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter

	fetchDuration    metric.Float64Histogram
	cacheLookups     metric.Int64Counter
	orphanCandidates metric.Int64Counter
	resourcesListed  metric.Int64Counter
}

// NewProvider creates a new telemetry provider.
func NewProvider(ctx context.Context, s Settings) (*Provider, error) {
	if s.ServiceName == "" {
		s.ServiceName = "peili"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(s.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	p := &Provider{}

	if err := p.setupTracing(ctx, s, res); err != nil {
		return nil, err
	}

	if err := p.setupMetrics(ctx, s, res); err != nil {
		if p.tracerProvider != nil {
			_ = p.tracerProvider.Shutdown(ctx)
		}
		return nil, err
	}

	if err := p.initMetrics(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Provider) setupTracing(ctx context.Context, s Settings, res *resource.Resource) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}

	if s.Traces && s.Endpoint != "" {
		expOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.Endpoint)}
		if s.Insecure {
			expOpts = append(expOpts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, expOpts...)
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
		sampler := sdktrace.TraceIDRatioBased(s.SampleRate)
		opts = append(opts, sdktrace.WithBatcher(exp), sdktrace.WithSampler(sampler))
	}

	p.tracerProvider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(p.tracerProvider)
	p.tracer = p.tracerProvider.Tracer("peili")

	return nil
}

func (p *Provider) setupMetrics(ctx context.Context, s Settings, res *resource.Resource) error {
	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}

	if s.Metrics && s.Endpoint != "" {
		expOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(s.Endpoint)}
		if s.Insecure {
			expOpts = append(expOpts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, expOpts...)
		if err != nil {
			return fmt.Errorf("create metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	if s.Prometheus {
		exp, err := otelprom.New()
		if err != nil {
			return fmt.Errorf("create prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exp))
	}

	p.meterProvider = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter("peili")

	return nil
}

func (p *Provider) initMetrics() error {
	var err error

	p.fetchDuration, err = p.meter.Float64Histogram(
		"peili_fetch_duration_seconds",
		metric.WithDescription("Duration of remote inventory fetches"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create fetch_duration: %w", err)
	}

	p.cacheLookups, err = p.meter.Int64Counter(
		"peili_cache_lookups_total",
		metric.WithDescription("Cache lookups by namespace and outcome"),
	)
	if err != nil {
		return fmt.Errorf("create cache_lookups: %w", err)
	}

	p.orphanCandidates, err = p.meter.Int64Counter(
		"peili_orphan_candidates_total",
		metric.WithDescription("Orphan candidates flagged per detection run"),
	)
	if err != nil {
		return fmt.Errorf("create orphan_candidates: %w", err)
	}

	p.resourcesListed, err = p.meter.Int64Counter(
		"peili_resources_listed_total",
		metric.WithDescription("Resources returned by remote enumerations"),
	)
	if err != nil {
		return fmt.Errorf("create resources_listed: %w", err)
	}

	return nil
}

// Tracer returns the provider's tracer.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// RecordFetch records one remote fetch.
func (p *Provider) RecordFetch(ctx context.Context, namespace string, seconds float64, count int) {
	attrs := metric.WithAttributes(attribute.String("namespace", namespace))
	p.fetchDuration.Record(ctx, seconds, attrs)
	p.resourcesListed.Add(ctx, int64(count), attrs)
}

// RecordCacheLookup records one cache lookup outcome.
func (p *Provider) RecordCacheLookup(ctx context.Context, namespace string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	p.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.String("outcome", outcome),
	))
}

// RecordOrphans records the size of a detection run.
func (p *Provider) RecordOrphans(ctx context.Context, count int) {
	p.orphanCandidates.Add(ctx, int64(count))
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
