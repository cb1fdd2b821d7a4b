package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// DocumentHandler attachment endpoints
type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// List GET /api/v1/documents?related_type=po&related_id=xxx
func (h *DocumentHandler) List(c *gin.Context) {
	relatedType := c.Query("related_type")
	relatedID := c.Query("related_id")
	if relatedType == "" || relatedID == "" {
		BadRequest(c, "related_type and related_id are required")
		return
	}

	docs, err := h.svc.ListByRelated(c.Request.Context(), relatedType, relatedID)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, gin.H{"items": docs})
}

// Upload POST /api/v1/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
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

	doc, err := h.svc.Upload(c.Request.Context(),
		GetUserID(c),
		c.PostForm("title"),
		c.PostForm("related_type"),
		c.PostForm("related_id"),
		src,
		fileHeader.Filename,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, doc)
}

// Download GET /api/v1/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, reader, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "document not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", "attachment; filename=\""+doc.FileName+"\"")
	c.Header("Content-Type", doc.MimeType)
	c.Header("Content-Length", strconv.FormatInt(doc.FileSize, 10))

	io.Copy(c.Writer, reader)
}

// Delete DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "document not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, nil)
}
