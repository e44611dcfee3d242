package models

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	IsActive     bool   `gorm:"default:false" json:"is_active"`
	IsAdmin      bool   `gorm:"default:false" json:"is_admin"`
}

func (User) TableName() string {
	return "users"
}
