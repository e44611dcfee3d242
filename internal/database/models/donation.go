package models

import (
	"time"

	"github.com/google/uuid"
)

type Donation struct {
	Base
	PersonID    *uuid.UUID `gorm:"type:uuid;index" json:"person_id,omitempty"`
	CompanyID   *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`
	AmountCents int64      `gorm:"not null" json:"amount_cents"`
	Currency    string     `gorm:"default:'USD'" json:"currency"`
	DonatedAt   time.Time  `gorm:"not null;index" json:"donated_at"`
	Campaign    string     `gorm:"index" json:"campaign"`
	Method      string     `json:"method"` // check, card, cash, in_kind
	ReceiptSent bool       `gorm:"default:false" json:"receipt_sent"`

	Person  *Person  `gorm:"foreignKey:PersonID" json:"person,omitempty"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (Donation) TableName() string {
	return "donations"
}
