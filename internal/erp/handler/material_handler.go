package handler

import (
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// MaterialHandler material master endpoints
type MaterialHandler struct {
	svc *service.MaterialService
}

func NewMaterialHandler(svc *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{svc: svc}
}

// List GET /api/v1/materials
func (h *MaterialHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"category": c.Query("category"),
		"status":   c.Query("status"),
		"search":   c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "list materials: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// ListActive GET /api/v1/materials/active
func (h *MaterialHandler) ListActive(c *gin.Context) {
	items, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		InternalError(c, "list active materials: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get GET /api/v1/materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, m)
}

// Create POST /api/v1/materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	m, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		InternalError(c, "create material: "+err.Error())
		return
	}
	Created(c, m)
}

// Update PUT /api/v1/materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	var req service.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	m, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		InternalError(c, "update material: "+err.Error())
		return
	}
	Success(c, m)
}
