package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/version"
	"orgstruct/internal/infrastructure/http/v1/dto"
)

// VersionService is the part of version.Service the handlers call.
type VersionService interface {
	GetVersion(ctx context.Context, versionID id.ID) (*version.Version, error)
	ListVersions(ctx context.Context, orderBy string) ([]*version.Version, error)
	ResolveAsOf(ctx context.Context, scopeID string, date time.Time) (*version.Version, error)
	CreateVersion(ctx context.Context, in version.CreateInput) (*version.Version, error)
	CopyVersion(ctx context.Context, sourceID id.ID, in version.CreateInput) (*version.CopyResult, error)
	UpdateVersion(ctx context.Context, versionID id.ID, in version.UpdateInput) (*version.Version, error)
}

// VersionHandler handles version endpoints.
type VersionHandler struct {
	*BaseHandler
	service VersionService
}

// NewVersionHandler creates a version handler.
func NewVersionHandler(base *BaseHandler, service VersionService) *VersionHandler {
	return &VersionHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers version routes.
func (h *VersionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/as-of", h.AsOf)
	rg.GET("/:versionId", h.Get)
	rg.PUT("/:versionId", h.Update)
	rg.POST("/:versionId/copy", h.Copy)
}

// List returns the scope's versions.
// GET /api/v1/versions?orderBy=-effectiveDate
func (h *VersionHandler) List(c *gin.Context) {
	var q dto.ListVersionsQuery
	if !h.BindQuery(c, &q) {
		return
	}

	versions, err := h.service.ListVersions(c.Request.Context(), q.OrderBy)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromVersions(versions)))
}

// AsOf returns the version in effect on a date.
// GET /api/v1/versions/as-of?date=2025-01-01
func (h *VersionHandler) AsOf(c *gin.Context) {
	var q dto.AsOfQuery
	if !h.BindQuery(c, &q) {
		return
	}
	date, err := version.ParseDate(q.Date)
	if err != nil {
		h.Error(c, err)
		return
	}

	v, err := h.service.ResolveAsOf(c.Request.Context(), h.GetScopeID(c), date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromVersion(v))
}

// Get returns a version.
// GET /api/v1/versions/:versionId
func (h *VersionHandler) Get(c *gin.Context) {
	versionID, ok := h.PathID(c, "versionId")
	if !ok {
		return
	}

	v, err := h.service.GetVersion(c.Request.Context(), versionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromVersion(v))
}

// Create creates an empty version.
// POST /api/v1/versions
func (h *VersionHandler) Create(c *gin.Context) {
	var req dto.CreateVersionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	v, err := h.service.CreateVersion(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromVersion(v))
}

// Update patches a version.
// PUT /api/v1/versions/:versionId
func (h *VersionHandler) Update(c *gin.Context) {
	versionID, ok := h.PathID(c, "versionId")
	if !ok {
		return
	}
	var req dto.UpdateVersionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	v, err := h.service.UpdateVersion(c.Request.Context(), versionID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromVersion(v))
}

// Copy creates a version holding a clone of the source version's tree.
// POST /api/v1/versions/:versionId/copy
func (h *VersionHandler) Copy(c *gin.Context) {
	sourceID, ok := h.PathID(c, "versionId")
	if !ok {
		return
	}
	var req dto.CreateVersionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.CopyVersion(c.Request.Context(), sourceID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCopyResult(res))
}
