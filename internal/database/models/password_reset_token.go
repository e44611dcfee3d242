package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is an opaque single-use credential for the
// forgot-password flow. Tokens are marked used, never deleted, so the
// audit trail survives.
type PasswordResetToken struct {
	Base
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
