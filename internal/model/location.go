package model

type Location struct {
	BaseModel
	Name          string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Code          *string `gorm:"type:varchar(50);uniqueIndex" json:"code,omitempty"`
	Address       string  `gorm:"type:text" json:"address,omitempty"`
	WarehouseType string  `gorm:"type:varchar(50);index" json:"warehouse_type,omitempty"`
	IsActive      bool    `gorm:"not null;index" json:"is_active"`
}
