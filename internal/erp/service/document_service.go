package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

var documentRelatedTypes = map[string]bool{
	"pi":       true,
	"eopa":     true,
	"po":       true,
	"vendor":   true,
	"medicine": true,
}

// DocumentService attachments stored in object storage
type DocumentService struct {
	docRepo     *repository.DocumentRepository
	minioClient *minio.Client
	bucketName  string
}

func NewDocumentService(docRepo *repository.DocumentRepository, minioClient *minio.Client, bucketName string) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		minioClient: minioClient,
		bucketName:  bucketName,
	}
}

func (s *DocumentService) ListByRelated(ctx context.Context, relatedType, relatedID string) ([]entity.Document, error) {
	if !documentRelatedTypes[relatedType] {
		return nil, fmt.Errorf("unknown related type %q", relatedType)
	}
	return s.docRepo.ListByRelated(ctx, relatedType, relatedID)
}

// Upload stores the file in MinIO and records its metadata
func (s *DocumentService) Upload(ctx context.Context, userID, title, relatedType, relatedID string, reader io.Reader, fileName string, fileSize int64, contentType string) (*entity.Document, error) {
	if !documentRelatedTypes[relatedType] {
		return nil, fmt.Errorf("unknown related type %q", relatedType)
	}
	if s.minioClient == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	objectName := fmt.Sprintf("documents/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(fileName))

	if _, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	doc := &entity.Document{
		ID:          newID(),
		Title:       title,
		RelatedType: relatedType,
		RelatedID:   relatedID,
		FileName:    fileName,
		FilePath:    objectName,
		FileSize:    fileSize,
		MimeType:    contentType,
		UploadedBy:  userID,
	}
	if doc.Title == "" {
		doc.Title = fileName
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// Download opens the stored object for streaming
func (s *DocumentService) Download(ctx context.Context, id string) (*entity.Document, io.ReadCloser, error) {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.minioClient == nil {
		return nil, nil, fmt.Errorf("object storage is not configured")
	}

	object, err := s.minioClient.GetObject(ctx, s.bucketName, doc.FilePath, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch file: %w", err)
	}
	return doc, object, nil
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if s.minioClient != nil {
		// Best effort, metadata removal wins over a dangling object.
		s.minioClient.RemoveObject(ctx, s.bucketName, doc.FilePath, minio.RemoveObjectOptions{})
	}
	return s.docRepo.Delete(ctx, id)
}
