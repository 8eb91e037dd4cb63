// Package tracing exposes a single named tracer for the HTTP front end's
// per-request span. It is a no-op until something else in the process
// registers a real TracerProvider with go.opentelemetry.io/otel — there is
// no OTLP exporter wired here, since tracing is a per-request observability
// hook, not a component this system owns end to end.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a named tracer from the process-wide TracerProvider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
