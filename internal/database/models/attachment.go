package models

import "github.com/google/uuid"

// Attachment records an uploaded file. The bytes live on disk under
// StoragePath, encrypted at rest; only metadata is kept in the database.
type Attachment struct {
	Base
	EntityType  string    `gorm:"index:idx_attachment_entity;not null" json:"entity_type"`
	EntityID    uuid.UUID `gorm:"type:uuid;index:idx_attachment_entity;not null" json:"entity_id"`
	Filename    string    `gorm:"not null" json:"filename"`
	ContentType string    `gorm:"not null" json:"content_type"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	StoragePath string    `gorm:"not null" json:"-"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;index" json:"uploaded_by"`
}

func (Attachment) TableName() string {
	return "attachments"
}
