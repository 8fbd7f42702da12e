package tracing

import (
	"strconv"
	"unicode"

	"github.com/gin-gonic/gin"
)

// maxTraceIDLength bounds client-supplied request IDs
const maxTraceIDLength = 128

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(HeaderTraceID); validTraceID(incoming) {
			ctx = WithTraceID(ctx, TraceID(incoming))
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)
		if pid := c.Param("id"); pid != "" {
			span.SetTag("project_id", pid)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Set(string(traceIDKey), string(span.TraceID))

		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}

		span.Finish()
		tracer.Submit(span)
	}
}

// RequestID returns the trace ID the middleware assigned to c
func RequestID(c *gin.Context) string {
	return c.GetString(string(traceIDKey))
}

// validTraceID accepts short printable ASCII IDs without spaces
func validTraceID(s string) bool {
	if s == "" || len(s) > maxTraceIDLength {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || r == ' ' {
			return false
		}
	}
	return true
}
