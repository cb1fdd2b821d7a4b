package handler

import (
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/explosion"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// EOPAHandler EOPA endpoints including the explosion preview
type EOPAHandler struct {
	svc *service.EOPAService
}

func NewEOPAHandler(svc *service.EOPAService) *EOPAHandler {
	return &EOPAHandler{svc: svc}
}

// List GET /api/v1/eopas
func (h *EOPAHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status": c.Query("status"),
		"search": c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "list eopas: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /api/v1/eopas/:id
func (h *EOPAHandler) Get(c *gin.Context) {
	e, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "eopa not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, e)
}

// Create POST /api/v1/eopas
func (h *EOPAHandler) Create(c *gin.Context) {
	var req service.CreateEOPARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	e, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		BadRequest(c, "create eopa: "+err.Error())
		return
	}
	Created(c, e)
}

// Approve POST /api/v1/eopas/:id/approve
func (h *EOPAHandler) Approve(c *gin.Context) {
	e, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "eopa not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Success(c, e)
}

// Explosion GET /api/v1/eopas/:id/explosion
// Returns the per-vendor RM/PM/FG groups without persisting anything.
func (h *EOPAHandler) Explosion(c *gin.Context) {
	result, err := h.svc.Explode(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, explosion.ErrEOPANotFound) {
			NotFound(c, "eopa not found")
			return
		}
		InternalError(c, "explode eopa: "+err.Error())
		return
	}
	Success(c, result)
}
