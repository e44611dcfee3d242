package models

import "github.com/google/uuid"

type Person struct {
	Base
	FirstName string     `gorm:"not null" json:"first_name"`
	LastName  string     `gorm:"not null" json:"last_name"`
	Email     string     `gorm:"index" json:"email"`
	Phone     string     `json:"phone"`
	Title     string     `json:"title"`
	Address   string     `json:"address"`
	City      string     `json:"city"`
	State     string     `json:"state"`
	Zip       string     `json:"zip"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`
	SchoolID  *uuid.UUID `gorm:"type:uuid;index" json:"school_id,omitempty"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	School  *School  `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
}

func (Person) TableName() string {
	return "people"
}
