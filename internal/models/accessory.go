package models

import "time"

// Accessory is a counted lab item that is not part of any computer.
type Accessory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LabID     uint      `gorm:"not null;index" json:"lab_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Accessory model
func (Accessory) TableName() string {
	return "accessories"
}
