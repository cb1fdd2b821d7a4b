package handler

import (
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// StockHandler stock balance and movement endpoints
type StockHandler struct {
	svc *service.StockService
}

func NewStockHandler(svc *service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// Balances GET /api/v1/stock/balances?category=rm
func (h *StockHandler) Balances(c *gin.Context) {
	balances, err := h.svc.Balances(c.Request.Context(), c.Query("category"))
	if err != nil {
		InternalError(c, "stock balances: "+err.Error())
		return
	}
	Success(c, gin.H{"items": balances})
}

// Movements GET /api/v1/stock/materials/:id/movements
func (h *StockHandler) Movements(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.Movements(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		InternalError(c, "stock movements: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Issue POST /api/v1/stock/issues
func (h *StockHandler) Issue(c *gin.Context) {
	var req service.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	entry, err := h.svc.Issue(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, entry)
}
