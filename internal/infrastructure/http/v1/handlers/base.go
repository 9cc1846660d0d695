package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"orgstruct/internal/core/apperror"
	appctx "orgstruct/internal/core/context"
	"orgstruct/internal/core/id"
	"orgstruct/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON decodes and validates a JSON request body. Fields the request
// type does not declare are rejected, so derived values such as
// hierarchyLevel or hierarchyPath can never be smuggled in.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		h.Error(c, bodyError(err))
		return false
	}
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

func bodyError(err error) *apperror.AppError {
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return apperror.NewValidation("unknown field in request body").
			WithDetail("field", strings.Trim(field, `"`))
	}
	return apperror.NewValidation("invalid request body").WithDetail("error", err.Error())
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// PathID parses a UUID path parameter.
func (h *BaseHandler) PathID(c *gin.Context, param string) (id.ID, bool) {
	v, err := dto.ParseID(param, c.Param(param))
	if err != nil {
		h.Error(c, err)
		return id.ID{}, false
	}
	return v, true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// GetScopeID extracts scope ID from request context.
func (h *BaseHandler) GetScopeID(c *gin.Context) string {
	return appctx.GetScopeID(c.Request.Context())
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
