package tracing

import (
	"fmt"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/honeycombio/otel-config-go/otelconfig"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var GlobalTracer = otel.Tracer("stryde-backend")

// HoneycombSetup configures the OpenTelemetry SDK via the honeycomb distro.
// The returned shutdown function must be called on service teardown.
func HoneycombSetup(tracingEnabled bool, serviceName string, rdb *redis.Client) (func(), error) {
	if !tracingEnabled {
		log.Debugln("honeycomb tracing disabled, skipping otel setup")
		return func() {}, nil
	}

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(serviceName),
	)
	if err != nil {
		return nil, fmt.Errorf("configure opentelemetry: %w", err)
	}

	if rdb != nil {
		rdb.AddHook(redisotel.NewTracingHook())
	}

	return otelShutdown, nil
}

// EndSpanWithErrCheck records the error on the span (if any) and ends it
func EndSpanWithErrCheck(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
