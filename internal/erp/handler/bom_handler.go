package handler

import (
	"errors"

	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// BOMHandler per-medicine BOM endpoints
type BOMHandler struct {
	svc *service.BOMService
}

func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

// Get GET /api/v1/medicines/:id/bom/:category
func (h *BOMHandler) Get(c *gin.Context) {
	entries, err := h.svc.Get(c.Request.Context(), c.Param("id"), c.Param("category"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, gin.H{"items": entries})
}

// Replace PUT /api/v1/medicines/:id/bom/:category
func (h *BOMHandler) Replace(c *gin.Context) {
	var req struct {
		Items []service.BOMEntryRequest `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	entries, err := h.svc.Replace(c.Request.Context(), c.Param("id"), c.Param("category"), req.Items)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "medicine not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Success(c, gin.H{"items": entries})
}

// Export GET /api/v1/medicines/:id/bom/:category/export
func (h *BOMHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.Export(c.Request.Context(), c.Param("id"), c.Param("category"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "medicine not found")
			return
		}
		InternalError(c, "export bom: "+err.Error())
		return
	}
	defer f.Close()

	writeExcel(c, f, filename)
}

// Import POST /api/v1/medicines/:id/bom/:category/import
func (h *BOMHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing upload file: "+err.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "open upload: "+err.Error())
		return
	}
	defer src.Close()

	f, err := excelize.OpenReader(src)
	if err != nil {
		BadRequest(c, "invalid excel file: "+err.Error())
		return
	}
	defer f.Close()

	result, err := h.svc.Import(c.Request.Context(), c.Param("id"), c.Param("category"), f)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "medicine not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	Success(c, result)
}

// Template GET /api/v1/bom/template
func (h *BOMHandler) Template(c *gin.Context) {
	f, err := h.svc.GenerateTemplate()
	if err != nil {
		InternalError(c, "generate template: "+err.Error())
		return
	}
	defer f.Close()

	writeExcel(c, f, "bom_template.xlsx")
}

func writeExcel(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
