package middlewares

import (
	"github.com/fra-atlas/asset_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// ErrorLogger logs only requests that recorded errors.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		ctx := c.Request.Context()
		cid, _ := utils.GetCorrelationIdFromContext(ctx)
		fields := logrus.Fields{
			"method":         c.Request.Method,
			"path":           c.FullPath(),
			"status":         c.Writer.Status(),
			"correlation_id": cid,
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
		}
		logger.WithFields(fields).Error(c.Errors.String())
	}
}
