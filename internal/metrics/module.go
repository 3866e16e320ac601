package metrics

import (
	"context"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ronappleton/campaign-engine/internal/workflow"
)

// Init installs the global tracer and meter providers with OTLP gRPC
// exporters and returns the shutdown function.
func Init(serviceName string) (func(context.Context) error, error) {
	ctx := context.Background()
	endpoint := collectorEndpoint()

	traces, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	measurements, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := serviceResource(ctx, serviceName)
	tp := trace.NewTracerProvider(
		trace.WithBatcher(traces),
		trace.WithResource(res),
	)
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(measurements, metric.WithInterval(15*time.Second))),
		metric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	// Outbound LLM and image calls ride the default transport.
	if base, ok := http.DefaultTransport.(*http.Transport); ok {
		http.DefaultTransport = otelhttp.NewTransport(base)
	}

	return func(ctx context.Context) error {
		_ = mp.Shutdown(ctx)
		return tp.Shutdown(ctx)
	}, nil
}

func collectorEndpoint() string {
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		return v
	}
	return "otel-collector:4317"
}

func serviceResource(ctx context.Context, serviceName string) *resource.Resource {
	attrs := []attribute.KeyValue{attribute.String("service.name", serviceName)}
	if env := os.Getenv("METRIC_SERVICE_ENV"); env != "" {
		attrs = append(attrs, attribute.String("deployment.environment", env))
	}
	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = os.Getenv("GIT_SHA")
	}
	if version != "" {
		attrs = append(attrs, attribute.String("service.version", version))
	}
	if instance := os.Getenv("HOSTNAME"); instance != "" {
		attrs = append(attrs, attribute.String("service.instance.id", instance))
	}

	res, _ := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithHost(),
		resource.WithAttributes(attrs...),
	)
	return res
}

func Module(serviceName string) fx.Option {
	return fx.Options(
		fx.Provide(fx.Annotate(NewRecorder, fx.As(new(workflow.Metrics)))),
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			var shutdown func(context.Context) error
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					fn, err := Init(serviceName)
					if err != nil {
						logger.Warn("otel init failed, telemetry disabled", zap.Error(err))
						return nil
					}
					shutdown = fn
					return nil
				},
				OnStop: func(ctx context.Context) error {
					if shutdown == nil {
						return nil
					}
					return shutdown(ctx)
				},
			})
		}),
	)
}
