// Package tracing installs the OpenTelemetry SDK as the process-wide tracer
// provider and propagator.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Exporter names accepted by WithExporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// ErrUnknownExporter is returned for an exporter name Init does not know.
var ErrUnknownExporter = errors.New("unknown tracing exporter")

type settings struct {
	exporter       string
	writer         io.Writer
	sampleRatio    float64
	serviceName    string
	serviceVersion string
	processors     []sdktrace.SpanProcessor
}

// Option customizes Init.
type Option func(*settings)

// WithExporter selects where finished spans go. With ExporterNone spans are
// still created and propagated but never exported.
func WithExporter(name string) Option {
	return func(s *settings) { s.exporter = name }
}

// WithWriter sets the destination of the stdout exporter. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithSampleRatio samples the given fraction of new traces. Requests that
// arrive with a sampled parent keep the parent's decision.
func WithSampleRatio(ratio float64) Option {
	return func(s *settings) { s.sampleRatio = ratio }
}

// WithService names the service in the span resource.
func WithService(name, version string) Option {
	return func(s *settings) {
		s.serviceName = name
		s.serviceVersion = version
	}
}

// WithSpanProcessor adds a processor next to the exporter's.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(s *settings) { s.processors = append(s.processors, sp) }
}

// Init builds an SDK tracer provider from opts and installs it, together
// with the W3C trace context and baggage propagators, as the otel globals.
// The caller owns the provider and must Shutdown it to flush spans.
func Init(ctx context.Context, opts ...Option) (*sdktrace.TracerProvider, error) {
	s := settings{
		exporter:    ExporterNone,
		writer:      os.Stdout,
		sampleRatio: 1,
		serviceName: "mvp-api",
	}
	for _, opt := range opts {
		opt(&s)
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(s.serviceName),
			semconv.ServiceVersion(s.serviceVersion),
		),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.sampleRatio))),
	}
	switch s.exporter {
	case ExporterNone:
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(s.writer))
		if err != nil {
			return nil, fmt.Errorf("stdout exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, s.exporter)
	}
	for _, sp := range s.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}
