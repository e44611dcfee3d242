package models

type Company struct {
	Base
	Name     string `gorm:"not null;index" json:"name"`
	Industry string `json:"industry"`
	Website  string `json:"website"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Notes    string `json:"notes"`
}

func (Company) TableName() string {
	return "companies"
}
