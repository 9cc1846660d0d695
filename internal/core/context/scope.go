// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// ScopeContext identifies the organization whose versions a request operates on.
// One scope owns one set of versions; version codes and date intervals are
// unique per scope.
type ScopeContext struct {
	ScopeID string
	// Actor is an opaque caller label (e.g. user id forwarded by a gateway), used for logging only.
	Actor string
}

type scopeContextKey struct{}

// WithScope adds ScopeContext to context.
func WithScope(ctx context.Context, scope *ScopeContext) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// GetScope returns ScopeContext from context.
func GetScope(ctx context.Context) *ScopeContext {
	if v, ok := ctx.Value(scopeContextKey{}).(*ScopeContext); ok {
		return v
	}
	return nil
}

// GetScopeID returns scope ID from context or empty string.
func GetScopeID(ctx context.Context) string {
	if s := GetScope(ctx); s != nil {
		return s.ScopeID
	}
	return ""
}
