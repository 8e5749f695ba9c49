package models

import "time"

// Laboratory is a computer laboratory; computers are placed in exactly one lab.
type Laboratory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Location  string    `gorm:"size:255" json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Laboratory model
func (Laboratory) TableName() string {
	return "laboratories"
}

// LabPCCount is the computers-per-lab read model.
type LabPCCount struct {
	LabID   uint   `json:"lab_id"`
	LabName string `json:"lab_name"`
	PCCount int64  `json:"pc_count"`
}
