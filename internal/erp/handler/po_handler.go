package handler

import (
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// POHandler purchase order endpoints
type POHandler struct {
	svc *service.ProcurementService
}

func NewPOHandler(svc *service.ProcurementService) *POHandler {
	return &POHandler{svc: svc}
}

// List GET /api/v1/purchase-orders
func (h *POHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":    c.Query("status"),
		"category":  c.Query("category"),
		"vendor_id": c.Query("vendor_id"),
		"eopa_id":   c.Query("eopa_id"),
		"search":    c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "list purchase orders: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /api/v1/purchase-orders/:id
func (h *POHandler) Get(c *gin.Context) {
	po, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "purchase order not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, po)
}

// GenerateFromEOPA POST /api/v1/eopas/:id/purchase-orders
func (h *POHandler) GenerateFromEOPA(c *gin.Context) {
	var req struct {
		Category  string   `json:"category" binding:"required"`
		VendorIDs []string `json:"vendor_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.svc.GenerateFromEOPA(c.Request.Context(), c.Param("id"), req.Category, GetUserID(c), req.VendorIDs)
	if err != nil {
		var dup *service.DuplicatePOError
		if errors.As(err, &dup) {
			Conflict(c, dup.Error())
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "eopa not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Created(c, result)
}

// Create POST /api/v1/purchase-orders
func (h *POHandler) Create(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	po, err := h.svc.CreatePO(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		BadRequest(c, "create purchase order: "+err.Error())
		return
	}
	Created(c, po)
}

// Approve POST /api/v1/purchase-orders/:id/approve
func (h *POHandler) Approve(c *gin.Context) {
	po, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "purchase order not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Success(c, po)
}

// Cancel POST /api/v1/purchase-orders/:id/cancel
func (h *POHandler) Cancel(c *gin.Context) {
	po, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "purchase order not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Success(c, po)
}

// Receive POST /api/v1/purchase-orders/:id/items/:itemId/receive
func (h *POHandler) Receive(c *gin.Context) {
	var req struct {
		Quantity decimal.Decimal `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	po, err := h.svc.ReceiveItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), req.Quantity, GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "purchase order not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Success(c, po)
}

// Export GET /api/v1/purchase-orders/:id/export
func (h *POHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.ExportPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "purchase order not found")
			return
		}
		InternalError(c, "export purchase order: "+err.Error())
		return
	}
	defer f.Close()

	writeExcel(c, f, filename)
}
