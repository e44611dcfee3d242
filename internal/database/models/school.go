package models

type School struct {
	Base
	Name     string `gorm:"not null;index" json:"name"`
	District string `json:"district"`
	Level    string `json:"level"` // elementary, middle, high, college
	Website  string `json:"website"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

func (School) TableName() string {
	return "schools"
}
