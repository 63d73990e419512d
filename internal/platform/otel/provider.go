package otel

import (
	"context"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationPrefix names the tracers handed out by Tracer.
const instrumentationPrefix = "github.com/louisbranch/undercroft/"

// Setup initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: when UNDERCROFT_OTEL_ENDPOINT is empty or
// UNDERCROFT_OTEL_ENABLED is "false", Setup returns a no-op shutdown
// function and no global provider is registered. Game code keeps calling
// Tracer either way; spans go to the global no-op provider.
//
// UNDERCROFT_OTEL_SAMPLE_RATIO (0..1) switches from always-on sampling to a
// parent-based ratio sampler, which keeps long sessions affordable.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv("UNDERCROFT_OTEL_ENABLED"), "false") {
		return noop, nil
	}

	endpoint := os.Getenv("UNDERCROFT_OTEL_ENDPOINT")
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(os.Getenv("UNDERCROFT_OTEL_SAMPLE_RATIO"))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns the tracer for a game component, e.g. "persist".
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + component)
}

func sampler(ratio string) sdktrace.Sampler {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return sdktrace.AlwaysSample()
	}
	value, err := strconv.ParseFloat(ratio, 64)
	if err != nil || value < 0 || value >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(value))
}
