package usecleanup

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for instrumented callbacks.
const defaultTracerName = "usecleanup"

// Instrument wraps a callback's Invoke in an OpenTelemetry span.
//
// The returned function:
//   - Creates a span named "usecleanup.invoke" with the callback ID
//   - Records an operation or cleanup panic as a span error before
//     re-panicking (failures still propagate to the caller)
//   - Sets span status Ok on success
//
// The tracer comes from the global OpenTelemetry tracer provider;
// configure it in main() before serving. An empty tracerName uses
// "usecleanup".
//
// Example:
//
//	invoke := usecleanup.Instrument(cb, "my-app")
//	value := invoke(ctx, arg)
func Instrument[A, V any](cb *Callback[A, V], tracerName string) func(context.Context, A) V {
	if tracerName == "" {
		tracerName = defaultTracerName
	}
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, arg A) V {
		_, span := tracer.Start(
			ctx,
			"usecleanup.invoke",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.Int64("usecleanup.callback_id", int64(cb.ID())),
			),
		)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("usecleanup: invoke panic: %v", r)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				panic(r)
			}
			span.SetStatus(codes.Ok, "")
		}()

		return cb.Invoke(arg)
	}
}
