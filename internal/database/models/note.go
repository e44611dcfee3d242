package models

import "github.com/google/uuid"

// Note attaches free-form text to any entity via (entity_type, entity_id).
type Note struct {
	Base
	EntityType string    `gorm:"index:idx_note_entity;not null" json:"entity_type"`
	EntityID   uuid.UUID `gorm:"type:uuid;index:idx_note_entity;not null" json:"entity_id"`
	Body       string    `gorm:"not null" json:"body"`
	AuthorID   uuid.UUID `gorm:"type:uuid;index" json:"author_id"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Note) TableName() string {
	return "notes"
}
