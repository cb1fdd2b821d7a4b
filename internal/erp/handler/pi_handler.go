package handler

import (
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// PIHandler proforma invoice endpoints
type PIHandler struct {
	svc *service.PIService
}

func NewPIHandler(svc *service.PIService) *PIHandler {
	return &PIHandler{svc: svc}
}

// List GET /api/v1/pis
func (h *PIHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status": c.Query("status"),
		"search": c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "list proforma invoices: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /api/v1/pis/:id
func (h *PIHandler) Get(c *gin.Context) {
	pi, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "proforma invoice not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, pi)
}

// Create POST /api/v1/pis
func (h *PIHandler) Create(c *gin.Context) {
	var req service.CreatePIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	pi, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		BadRequest(c, "create proforma invoice: "+err.Error())
		return
	}
	Created(c, pi)
}

// Update PUT /api/v1/pis/:id
func (h *PIHandler) Update(c *gin.Context) {
	var req service.UpdatePIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	pi, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "proforma invoice not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Success(c, pi)
}

// Approve POST /api/v1/pis/:id/approve
// Approval derives a draft EOPA from the PI lines.
func (h *PIHandler) Approve(c *gin.Context) {
	pi, eopa, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "proforma invoice not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Success(c, gin.H{"pi": pi, "eopa": eopa})
}
