/*
Package tracing provides request tracing for the playground server.

# Overview

Every HTTP request gets a trace. The trace ID is taken from the incoming
X-Request-ID header, or generated (google/uuid) when absent, and echoed on
the response so clients can quote it. Handlers open child spans for the
expensive parts of a request, such as a build.

Spans are collected on a buffered channel and written to the structured
log by a single goroutine; a full buffer drops spans rather than slowing
requests down.

# Usage

	tracer := tracing.New("playground", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "build")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
	span.SetTag("project_id", pid)

# Headers

  - X-Request-ID: trace identifier for the whole request
  - X-Span-ID: identifier of the request's root span
*/
package tracing
