package models

import (
	"time"

	"github.com/google/uuid"
)

type Certification struct {
	Base
	PersonID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"person_id"`
	Name      string     `gorm:"not null" json:"name"`
	Issuer    string     `json:"issuer"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Person *Person `gorm:"foreignKey:PersonID" json:"person,omitempty"`
}

func (Certification) TableName() string {
	return "certifications"
}
