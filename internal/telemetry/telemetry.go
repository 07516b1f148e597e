// Package telemetry wraps each `git` tool invocation in an OpenTelemetry
// span. It is no-op by default: unless a caller installs a real
// TracerProvider via SetTracerProvider, spans are created against the
// otel no-op provider and incur negligible overhead.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/MatejGomboc/git-proxy-mcp"

var tracer = otel.Tracer(instrumentationName)

// StartToolSpan starts a span covering one `git` tool call. Callers must
// call the returned function when the call completes, passing the outcome
// and exit code observed (exit code -1 when the executor itself failed).
func StartToolSpan(ctx context.Context, command string) (context.Context, func(outcome string, exitCode int)) {
	ctx, span := tracer.Start(ctx, "git_tool.dispatch", trace.WithAttributes(
		attribute.String("git.command", command),
	))
	return ctx, func(outcome string, exitCode int) {
		span.SetAttributes(
			attribute.String("git.outcome", outcome),
			attribute.Int("git.exit_code", exitCode),
		)
		span.End()
	}
}
