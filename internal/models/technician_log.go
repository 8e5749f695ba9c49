package models

import "time"

// TechnicianLog records what a technician did about a report.
type TechnicianLog struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ReportID       uint       `gorm:"not null;index" json:"report_id"`
	TechnicianID   uint       `gorm:"not null;index" json:"technician_id"`
	TechnicianName string     `gorm:"size:100" json:"technician_name"`
	ActionTaken    string     `gorm:"type:text;not null" json:"action_taken"`
	StatusAfter    PartStatus `gorm:"size:20;not null" json:"status_after"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableName specifies the table name for TechnicianLog model
func (TechnicianLog) TableName() string {
	return "technician_logs"
}
