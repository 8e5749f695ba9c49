package models

import "time"

// ReportState is the lifecycle position of an issue report.
type ReportState string

const (
	ReportOpen     ReportState = "open"
	ReportQueued   ReportState = "queued"
	ReportActioned ReportState = "actioned"
	ReportResolved ReportState = "resolved"
)

// Report is an issue raised against one part of one computer.
type Report struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	ComputerID       uint        `gorm:"not null;index" json:"computer_id"`
	PartName         string      `gorm:"size:100;not null" json:"part_name"`
	PartKind         PartKind    `gorm:"size:20;not null;default:'standard'" json:"part_type"`
	DetectedStatus   PartStatus  `gorm:"size:20;not null" json:"part_status"`
	IssueDescription string      `gorm:"type:text" json:"issue_description"`
	State            ReportState `gorm:"size:20;not null;default:'open';index" json:"status"`
	Sent             bool        `gorm:"not null;default:false" json:"sent"`
	SentAt           *time.Time  `json:"sent_at,omitempty"`
	SubmittedBy      string      `gorm:"size:255" json:"submitted_by"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TableName specifies the table name for Report model
func (Report) TableName() string {
	return "reports"
}

// ReportWithDetails joins computer and lab names for the report listings.
type ReportWithDetails struct {
	Report
	PCName  string `json:"pc_name"`
	LabName string `json:"lab_name"`
}
