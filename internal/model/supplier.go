package model

type Supplier struct {
	BaseModel
	Name              string   `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	ContactPerson     string   `gorm:"type:varchar(255)" json:"contact_person,omitempty"`
	Email             string   `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone             string   `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Address           string   `gorm:"type:text" json:"address,omitempty"`
	LeadTimeDays      int      `gorm:"not null" json:"lead_time_days"`
	PaymentTerms      string   `gorm:"type:varchar(100)" json:"payment_terms,omitempty"`
	MinimumOrderQty   int      `gorm:"not null" json:"minimum_order_qty"`
	PerformanceRating *float64 `json:"performance_rating"`
	IsActive          bool     `gorm:"not null;index" json:"is_active"`
}
