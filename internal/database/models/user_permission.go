package models

import "github.com/google/uuid"

// UserPermission is an explicit override of the default-read-only
// policy for one (user, entity type) pair. Absence of a row means
// reads allowed, mutations denied; admins bypass the matrix entirely.
type UserPermission struct {
	Base
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_entity;not null" json:"user_id"`
	EntityType string    `gorm:"uniqueIndex:idx_user_entity;not null" json:"entity_type"`
	CanCreate  bool      `gorm:"default:false" json:"can_create"`
	CanRead    bool      `gorm:"default:false" json:"can_read"`
	CanUpdate  bool      `gorm:"default:false" json:"can_update"`
	CanDelete  bool      `gorm:"default:false" json:"can_delete"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
