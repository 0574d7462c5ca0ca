package model

// Company is the tenant boundary: every product belongs to exactly one company.
type Company struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Address string `gorm:"type:varchar(255)" json:"address"`
	Contact string `gorm:"type:varchar(100)" json:"contact"`
}
