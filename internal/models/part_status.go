package models

import "time"

// PartStatusRecord is the single status row of one (computer, part, kind).
// A missing row means the part is operational.
type PartStatusRecord struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ComputerID uint       `gorm:"not null;uniqueIndex:idx_computer_parts_key,priority:1" json:"computer_id"`
	Part       string     `gorm:"column:name;size:100;not null;uniqueIndex:idx_computer_parts_key,priority:2" json:"part"`
	Kind       PartKind   `gorm:"column:type;size:20;not null;default:'standard';uniqueIndex:idx_computer_parts_key,priority:3" json:"type"`
	Status     PartStatus `gorm:"size:20;not null;default:'operational'" json:"status"`
	Notes      string     `gorm:"type:text" json:"notes"`
	Version    uint       `gorm:"not null;default:1" json:"version"`
	UpdatedBy  *uint      `json:"updated_by,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for PartStatusRecord model
func (PartStatusRecord) TableName() string {
	return "computer_parts"
}
