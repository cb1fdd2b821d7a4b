package handler

import (
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// MedicineHandler medicine master endpoints
type MedicineHandler struct {
	svc *service.MedicineService
}

func NewMedicineHandler(svc *service.MedicineService) *MedicineHandler {
	return &MedicineHandler{svc: svc}
}

// List GET /api/v1/medicines
func (h *MedicineHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status": c.Query("status"),
		"search": c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "list medicines: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// ListActive GET /api/v1/medicines/active
func (h *MedicineHandler) ListActive(c *gin.Context) {
	items, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		InternalError(c, "list active medicines: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get GET /api/v1/medicines/:id
func (h *MedicineHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "medicine not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, m)
}

// Create POST /api/v1/medicines
func (h *MedicineHandler) Create(c *gin.Context) {
	var req service.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	m, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		InternalError(c, "create medicine: "+err.Error())
		return
	}
	Created(c, m)
}

// Update PUT /api/v1/medicines/:id
func (h *MedicineHandler) Update(c *gin.Context) {
	var req service.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	m, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "medicine not found")
			return
		}
		InternalError(c, "update medicine: "+err.Error())
		return
	}
	Success(c, m)
}
