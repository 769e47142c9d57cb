package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/platform/ctxutil"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

// RequestLogger writes one line per request once the handler chain has finished. Server errors
// log at error level with the private gin errors attached, client errors at warn.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency", time.Since(start),
			"bytes", c.Writer.Size(),
		}
		if scope := ctxutil.FromContext(c.Request.Context()); scope != nil {
			fields = append(fields, "request_id", scope.RequestID, "trace_id", scope.TraceID)
			if scope.OwnerID != uuid.Nil {
				fields = append(fields, "owner_id", scope.OwnerID.String())
			}
		}
		if private := c.Errors.ByType(gin.ErrorTypePrivate); len(private) > 0 {
			fields = append(fields, "error", private.String())
		}

		emit := log.Info
		if status >= 500 {
			emit = log.Error
		} else if status >= 400 {
			emit = log.Warn
		}
		emit("http request", fields...)
	}
}
