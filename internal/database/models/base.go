package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with UUID primary key and timestamps
type Base struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// EntityType tags rows in the permission matrix and polymorphic
// references (notes, attachments). It is a plain string key, not a
// type in its own right.
type EntityType = string

const (
	EntityPerson        EntityType = "person"
	EntityCompany       EntityType = "company"
	EntitySchool        EntityType = "school"
	EntityDonation      EntityType = "donation"
	EntityCertification EntityType = "certification"
	EntityNote          EntityType = "note"
)

// KnownEntityTypes lists every entity type the permission matrix accepts.
var KnownEntityTypes = []EntityType{
	EntityPerson,
	EntityCompany,
	EntitySchool,
	EntityDonation,
	EntityCertification,
	EntityNote,
}

func IsKnownEntityType(t string) bool {
	for _, known := range KnownEntityTypes {
		if t == known {
			return true
		}
	}
	return false
}
