package context

import "context"

// Correlation ties together the log lines and spans of one request.
type Correlation struct {
	RequestID string
	// TraceID is empty when no tracer is recording and the caller sent none
	TraceID string
}

type correlationKey struct{}

// WithCorrelation stores c in ctx.
func WithCorrelation(ctx context.Context, c Correlation) context.Context {
	return context.WithValue(ctx, correlationKey{}, c)
}

// GetCorrelation returns the request correlation, if any.
func GetCorrelation(ctx context.Context) (Correlation, bool) {
	c, ok := ctx.Value(correlationKey{}).(Correlation)
	return c, ok
}

// LogFields returns the correlation and scope of ctx as logger key/value pairs.
// Empty values are left out.
func LogFields(ctx context.Context) []any {
	var kv []any
	if c, ok := GetCorrelation(ctx); ok {
		kv = appendNonEmpty(kv, "request_id", c.RequestID)
		kv = appendNonEmpty(kv, "trace_id", c.TraceID)
	}
	if s := GetScope(ctx); s != nil {
		kv = appendNonEmpty(kv, "scope_id", s.ScopeID)
		kv = appendNonEmpty(kv, "actor", s.Actor)
	}
	return kv
}

func appendNonEmpty(kv []any, key, value string) []any {
	if value == "" {
		return kv
	}
	return append(kv, key, value)
}
