// Package tracing sets up OpenTelemetry trace export for the analytics API.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Exporter types
const (
	ExporterHTTP = "otlp-http"
	ExporterGRPC = "otlp-grpc"
)

// Config holds the tracing settings
type Config struct {
	Enabled      bool
	ServiceName  string
	Version      string
	Environment  string
	Exporter     string // otlp-http (default) or otlp-grpc
	Endpoint     string // host:port of the collector
	Insecure     bool
	SamplingRate float64 // fraction of traces kept, 0.0 to 1.0
}

// Provider owns the SDK tracer provider
// A disabled Provider is valid and hands out the global no-op tracer
type Provider struct {
	tp     *sdktrace.TracerProvider
	config Config
}

// NewProvider builds the exporter and installs the tracer provider globally
func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if !cfg.Enabled {
		logger.Info("tracing disabled")
		return &Provider{config: cfg}, nil
	}

	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}
	if cfg.SamplingRate < 0 || cfg.SamplingRate > 1 {
		return nil, fmt.Errorf("sampling rate must be between 0 and 1, got %f", cfg.SamplingRate)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler(cfg.SamplingRate))),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing initialized",
		"service", cfg.ServiceName,
		"exporter", cfg.Exporter,
		"endpoint", cfg.Endpoint,
		"sampling_rate", cfg.SamplingRate,
	)

	return &Provider{tp: tp, config: cfg}, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.Exporter {
	case ExporterHTTP, "":
		var opts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case ExporterGRPC:
		var opts []otlptracegrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Exporter)
	}
}

func sampler(rate float64) sdktrace.Sampler {
	switch rate {
	case 1:
		return sdktrace.AlwaysSample()
	case 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes pending spans
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}

// Tracer returns a named tracer
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.tp == nil {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Enabled reports whether spans are exported
func (p *Provider) Enabled() bool {
	return p.config.Enabled
}
