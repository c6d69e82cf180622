package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/tradeguild-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxClientIDLen = 128
)

// AttachTraceContext assigns trace and request ids, echoes them back, and
// tags the server span with the request id and, once known, the acting user.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := clientID(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		span := trace.SpanFromContext(c.Request.Context())
		traceID := clientID(c.GetHeader(headerTraceID))
		if traceID == "" && span.SpanContext().HasTraceID() {
			traceID = span.SpanContext().TraceID().String()
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}

		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		span.SetAttributes(attribute.String("tradeguild.request_id", reqID))

		c.Next()

		// AttachActor runs inside the /api group, after this middleware.
		if actor, ok := ctxutil.GetActor(c.Request.Context()); ok {
			span.SetAttributes(attribute.String("tradeguild.actor_id", actor.String()))
		}
	}
}

// clientID trims a caller-supplied id and drops it if it is oversized.
func clientID(raw string) string {
	v := strings.TrimSpace(raw)
	if len(v) > maxClientIDLen {
		return ""
	}
	return v
}
