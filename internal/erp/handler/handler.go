package handler

import (
	"strconv"

	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// Handlers HTTP handler set
type Handlers struct {
	Auth     *AuthHandler
	Vendor   *VendorHandler
	Material *MaterialHandler
	Medicine *MedicineHandler
	BOM      *BOMHandler
	PI       *PIHandler
	EOPA     *EOPAHandler
	PO       *POHandler
	Stock    *StockHandler
	Document *DocumentHandler
}

// NewHandlers wires the handler set
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(svc.Auth),
		Vendor:   NewVendorHandler(svc.Vendor),
		Material: NewMaterialHandler(svc.Material),
		Medicine: NewMedicineHandler(svc.Medicine),
		BOM:      NewBOMHandler(svc.BOM),
		PI:       NewPIHandler(svc.PI),
		EOPA:     NewEOPAHandler(svc.EOPA),
		PO:       NewPOHandler(svc.Procurement),
		Stock:    NewStockHandler(svc.Stock),
		Document: NewDocumentHandler(svc.Document),
	}
}

// Response generic response envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse paginated list payload
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination page metadata
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination builds page metadata from a total count
func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      int(total),
		TotalPages: totalPages,
	}
}

// Success 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error maps a 5-digit business code to its HTTP status
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID returns the authenticated user id from the request context
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination reads page/page_size query params with sane bounds
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
