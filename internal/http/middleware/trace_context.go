package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/autumn-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxRequestIDLen = 128
)

// AttachTraceContext opens the request scope. A client X-Request-Id is kept when it is short
// printable ASCII; the trace id comes from the active span when otelgin started one.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, scope := ctxutil.Ensure(c.Request.Context())

		scope.RequestID = cleanRequestID(c.GetHeader(headerRequestID))
		if scope.RequestID == "" {
			scope.RequestID = uuid.NewString()
		}
		span := trace.SpanFromContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			scope.TraceID = sc.TraceID().String()
		} else {
			scope.TraceID = uuid.NewString()
		}
		span.SetAttributes(attribute.String("http.request_id", scope.RequestID))

		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(headerTraceID, scope.TraceID)
		c.Writer.Header().Set(headerRequestID, scope.RequestID)
		c.Next()
	}
}

func cleanRequestID(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxRequestIDLen {
		return ""
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < 0x21 || raw[i] > 0x7e {
			return ""
		}
	}
	return raw
}
