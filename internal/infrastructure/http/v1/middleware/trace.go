package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	appctx "orgstruct/internal/core/context"
	"orgstruct/internal/core/id"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

const ctxKeyRequestID = "request_id"

var tracer = otel.Tracer("orgstruct/http")

// Trace opens the request span and attaches the request correlation.
// The request id is taken from X-Request-ID or minted. The trace id comes from
// the span when a tracer is recording, otherwise from X-Trace-ID.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()

		corr := appctx.Correlation{
			RequestID: c.GetHeader(HeaderRequestID),
			TraceID:   c.GetHeader(HeaderTraceID),
		}
		if corr.RequestID == "" {
			corr.RequestID = id.New().String()
		}
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			corr.TraceID = sc.TraceID().String()
		}

		span.SetAttributes(
			attribute.String("http.request_id", corr.RequestID),
			attribute.String("http.method", c.Request.Method),
		)
		c.Request = c.Request.WithContext(appctx.WithCorrelation(ctx, corr))
		c.Set(ctxKeyRequestID, corr.RequestID)

		c.Header(HeaderRequestID, corr.RequestID)
		if corr.TraceID != "" {
			c.Header(HeaderTraceID, corr.TraceID)
		}

		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}
