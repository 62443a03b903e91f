package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	appctx "bibliolab/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace middleware adds request tracing context. The trace id follows the
// active OpenTelemetry span when there is one.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := appctx.NewTraceContext(c.GetHeader(HeaderRequestID))
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			tc.TraceID = sc.TraceID().String()
		} else if inbound := c.GetHeader(HeaderTraceID); inbound != "" {
			tc.TraceID = inbound
		}
		traceID, requestID := tc.TraceID, tc.RequestID

		ctx := appctx.WithTrace(c.Request.Context(), tc)
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}
