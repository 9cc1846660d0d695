package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/department"
	"orgstruct/internal/infrastructure/http/v1/dto"
)

// DepartmentService is the part of department.Service the handlers call.
type DepartmentService interface {
	GetTree(ctx context.Context, versionID id.ID, f department.TreeFilter) ([]*department.TreeNode, error)
	GetDepartment(ctx context.Context, versionID, deptID id.ID) (*department.Department, error)
	Subtree(ctx context.Context, versionID, stableID id.ID, includeDescendants bool) ([]*department.Department, error)
	Create(ctx context.Context, versionID id.ID, in department.CreateInput) (*department.Department, error)
	Update(ctx context.Context, versionID, deptID id.ID, in department.UpdateInput) (*department.Department, error)
	Move(ctx context.Context, versionID, deptID id.ID, newParentID *id.ID) (*department.Department, error)
	Deactivate(ctx context.Context, versionID, deptID id.ID) (*department.Department, error)
	Reactivate(ctx context.Context, versionID, deptID id.ID) (*department.Department, error)
}

// DepartmentHandler handles department endpoints nested under a version.
type DepartmentHandler struct {
	*BaseHandler
	service DepartmentService
}

// NewDepartmentHandler creates a department handler.
func NewDepartmentHandler(base *BaseHandler, service DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers department routes on /versions/:versionId/departments.
func (h *DepartmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tree", h.Tree)
	rg.POST("", h.Create)
	rg.GET("/by-stable-id/:stableId/subtree", h.Subtree)
	rg.GET("/:deptId", h.Get)
	rg.PUT("/:deptId", h.Update)
	rg.POST("/:deptId/move", h.Move)
	rg.POST("/:deptId/deactivate", h.Deactivate)
	rg.POST("/:deptId/reactivate", h.Reactivate)
}

// Tree returns the version's forest, optionally filtered.
// GET /api/v1/versions/:versionId/departments/tree?keyword=&isActive=&orgUnitType=
func (h *DepartmentHandler) Tree(c *gin.Context) {
	versionID, ok := h.PathID(c, "versionId")
	if !ok {
		return
	}
	var q dto.TreeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	nodes, err := h.service.GetTree(c.Request.Context(), versionID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromTree(nodes)))
}

// Get returns one department.
// GET /api/v1/versions/:versionId/departments/:deptId
func (h *DepartmentHandler) Get(c *gin.Context) {
	versionID, deptID, ok := h.ids(c)
	if !ok {
		return
	}

	d, err := h.service.GetDepartment(c.Request.Context(), versionID, deptID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDepartment(d))
}

// Subtree returns a unit (by stable id) and optionally its descendants.
// GET /api/v1/versions/:versionId/departments/by-stable-id/:stableId/subtree?includeDescendants=true
func (h *DepartmentHandler) Subtree(c *gin.Context) {
	versionID, ok := h.PathID(c, "versionId")
	if !ok {
		return
	}
	stableID, ok := h.PathID(c, "stableId")
	if !ok {
		return
	}
	var q dto.SubtreeQuery
	if !h.BindQuery(c, &q) {
		return
	}

	ds, err := h.service.Subtree(c.Request.Context(), versionID, stableID, q.Include())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromDepartments(ds)))
}

// Create adds a department.
// POST /api/v1/versions/:versionId/departments
func (h *DepartmentHandler) Create(c *gin.Context) {
	versionID, ok := h.PathID(c, "versionId")
	if !ok {
		return
	}
	var req dto.CreateDepartmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	d, err := h.service.Create(c.Request.Context(), versionID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromDepartment(d))
}

// Update patches department metadata.
// PUT /api/v1/versions/:versionId/departments/:deptId
func (h *DepartmentHandler) Update(c *gin.Context) {
	versionID, deptID, ok := h.ids(c)
	if !ok {
		return
	}
	var req dto.UpdateDepartmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	d, err := h.service.Update(c.Request.Context(), versionID, deptID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDepartment(d))
}

// Move reparents a department.
// POST /api/v1/versions/:versionId/departments/:deptId/move
func (h *DepartmentHandler) Move(c *gin.Context) {
	versionID, deptID, ok := h.ids(c)
	if !ok {
		return
	}
	var req dto.MoveDepartmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	parentID, err := req.ToParentID()
	if err != nil {
		h.Error(c, err)
		return
	}

	d, err := h.service.Move(c.Request.Context(), versionID, deptID, parentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDepartment(d))
}

// Deactivate marks a department inactive.
// POST /api/v1/versions/:versionId/departments/:deptId/deactivate
func (h *DepartmentHandler) Deactivate(c *gin.Context) {
	h.toggle(c, h.service.Deactivate)
}

// Reactivate marks a department active.
// POST /api/v1/versions/:versionId/departments/:deptId/reactivate
func (h *DepartmentHandler) Reactivate(c *gin.Context) {
	h.toggle(c, h.service.Reactivate)
}

func (h *DepartmentHandler) toggle(c *gin.Context, fn func(ctx context.Context, versionID, deptID id.ID) (*department.Department, error)) {
	versionID, deptID, ok := h.ids(c)
	if !ok {
		return
	}

	d, err := fn(c.Request.Context(), versionID, deptID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDepartment(d))
}

func (h *DepartmentHandler) ids(c *gin.Context) (versionID, deptID id.ID, ok bool) {
	if versionID, ok = h.PathID(c, "versionId"); !ok {
		return
	}
	deptID, ok = h.PathID(c, "deptId")
	return
}
