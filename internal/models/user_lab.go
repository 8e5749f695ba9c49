package models

import "time"

// UserLab scopes a technician to a laboratory. A technician without any
// rows may work in every lab.
type UserLab struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_labs_pair" json:"user_id"`
	LabID     uint      `gorm:"not null;uniqueIndex:idx_user_labs_pair;index" json:"lab_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for UserLab model
func (UserLab) TableName() string {
	return "user_labs"
}
