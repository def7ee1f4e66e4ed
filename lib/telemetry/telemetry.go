// Package telemetry wires up OpenTelemetry tracing for the downloader.
// Configuration is read from a telemetry.json5 found anywhere up the
// directory tree, so dev and prod environments opt in without code
// changes.
package telemetry

import (
	"context"
	"testing"
	"time"

	"learndl/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

type OtlpConfig struct {
	Traces OtlpConnConfig `json:"traces"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

type Telemetry struct {
	TracerProvider *trace.TracerProvider
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	if t.TracerProvider == nil {
		return nil
	}
	return t.TracerProvider.Shutdown(ctx)
}

func newExporter(ctx context.Context, c Config) (trace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	if c.Otlp.Traces.GrpcEndpoint != "" {
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(c.Otlp.Traces.GrpcEndpoint),
			otlptracegrpc.WithHeaders(c.Otlp.Traces.Headers),
		)
	}
	return otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(c.Otlp.Traces.HttpEndpoint),
		otlptracehttp.WithHeaders(c.Otlp.Traces.Headers),
	)
}

func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return Telemetry{}, err
	}

	exporter, err := newExporter(ctx, config)
	if err != nil {
		return Telemetry{}, err
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	)
	otel.SetTracerProvider(provider)

	return Telemetry{TracerProvider: provider}, nil
}

// SetupFromEnv searches up the filesystem from the cwd for a file
// called telemetry.json5 and uses it to set up tracing. Missing config
// is not an error: tracing simply stays on the global no-op provider.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if err != nil {
		return Telemetry{}, nil
	}
	return Setup(ctx, serviceName, config)
}

// SetupForTesting sets up tracing for a test binary when the dev
// environment provides a telemetry config, and returns a cleanup func.
func SetupForTesting(t testing.TB, serviceName string) func() {
	tel, err := SetupFromEnv(context.Background(), serviceName)
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}
