package repository

import (
	"context"

	"lab-maintenance-backend/internal/models"

	"gorm.io/gorm"
)

type TechnicianLogRepository struct {
	db *gorm.DB
}

func NewTechnicianLogRepo(db *gorm.DB) *TechnicianLogRepository {
	return &TechnicianLogRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *TechnicianLogRepository) WithTx(tx *gorm.DB) *TechnicianLogRepository {
	return &TechnicianLogRepository{db: tx}
}

// CreateLog stores a technician log entry
func (r *TechnicianLogRepository) CreateLog(ctx context.Context, entry *models.TechnicianLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// TechnicianLogDetails joins the report, computer and lab of a log entry
type TechnicianLogDetails struct {
	models.TechnicianLog
	ComputerID uint            `json:"computer_id"`
	PartName   string          `json:"part_name"`
	PartKind   models.PartKind `json:"part_type"`
	PCName     string          `json:"pc_name"`
	LabName    string          `json:"lab_name"`
}

func (r *TechnicianLogRepository) detailsQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("technician_logs").
		Select("technician_logs.*, reports.computer_id, reports.part_name, reports.part_kind, " +
			"computers.pc_name AS pc_name, laboratories.name AS lab_name").
		Joins("JOIN reports ON reports.id = technician_logs.report_id").
		Joins("LEFT JOIN computers ON computers.id = reports.computer_id").
		Joins("LEFT JOIN laboratories ON laboratories.id = computers.lab_id")
}

// ListLogs returns log entries newest first; technicianID 0 lists everyone's
func (r *TechnicianLogRepository) ListLogs(ctx context.Context, technicianID uint) ([]TechnicianLogDetails, error) {
	var logs []TechnicianLogDetails
	q := r.detailsQuery(ctx)
	if technicianID != 0 {
		q = q.Where("technician_logs.technician_id = ?", technicianID)
	}
	err := q.Order("technician_logs.created_at DESC").Scan(&logs).Error
	return logs, err
}

// GetLogsByIDs returns the entries among ids
func (r *TechnicianLogRepository) GetLogsByIDs(ctx context.Context, ids []string) ([]TechnicianLogDetails, error) {
	var logs []TechnicianLogDetails
	if len(ids) == 0 {
		return logs, nil
	}
	err := r.detailsQuery(ctx).
		Where("technician_logs.id IN ?", ids).
		Order("technician_logs.created_at ASC").
		Scan(&logs).Error
	return logs, err
}

// ListLogsForReport returns the entries of one report oldest first
func (r *TechnicianLogRepository) ListLogsForReport(ctx context.Context, reportID uint) ([]models.TechnicianLog, error) {
	var logs []models.TechnicianLog
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
