package entity

import "time"

// Document uploaded attachment (signed PI scans, vendor quotes, artwork
// proofs) stored in object storage and linked to an ERP record.
type Document struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	Title       string `json:"title" gorm:"size:200;not null"`
	RelatedType string `json:"related_type" gorm:"size:20;index"` // pi/eopa/po/vendor/medicine
	RelatedID   string `json:"related_id" gorm:"size:32;index"`

	FileName string `json:"file_name" gorm:"size:255"`
	FilePath string `json:"file_path" gorm:"size:500"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type" gorm:"size:100"`

	UploadedBy string    `json:"uploaded_by" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}
