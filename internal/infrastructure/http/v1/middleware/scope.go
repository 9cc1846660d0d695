package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orgstruct/internal/core/apperror"
	appctx "orgstruct/internal/core/context"
)

const (
	// ScopeHeader identifies the organization a request operates on.
	ScopeHeader = "X-Scope-ID"

	// ActorHeader carries an opaque caller label used for logging only.
	ActorHeader = "X-Actor"
)

// Scope middleware resolves the scope from the header and injects it into context.
// It MUST run before any handler that reads or writes versions.
func Scope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ScopeHeader)
		if raw == "" {
			_ = c.Error(apperror.NewValidation("scope is required").WithDetail("header", ScopeHeader))
			c.Abort()
			return
		}

		scopeID, err := uuid.Parse(raw)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid scope id").
					WithDetail("header", ScopeHeader).
					WithDetail("value", raw),
			)
			c.Abort()
			return
		}

		scope := &appctx.ScopeContext{
			ScopeID: scopeID.String(),
			Actor:   c.GetHeader(ActorHeader),
		}
		c.Request = c.Request.WithContext(appctx.WithScope(c.Request.Context(), scope))
		c.Set("scope_id", scope.ScopeID)

		c.Next()
	}
}
