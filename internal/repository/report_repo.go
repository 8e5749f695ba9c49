package repository

import (
	"context"
	"errors"
	"time"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"

	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ReportRepository) WithTx(tx *gorm.DB) *ReportRepository {
	return &ReportRepository{db: tx}
}

// CreateReport creates a new issue report
func (r *ReportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// GetReportByID retrieves a report by ID
func (r *ReportRepository) GetReportByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report %d not found", id)
		}
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) detailsQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("reports").
		Select("reports.*, computers.pc_name AS pc_name, laboratories.name AS lab_name").
		Joins("LEFT JOIN computers ON computers.id = reports.computer_id").
		Joins("LEFT JOIN laboratories ON laboratories.id = computers.lab_id")
}

// ListReports returns reports newest first, optionally filtered by state
func (r *ReportRepository) ListReports(ctx context.Context, states ...models.ReportState) ([]models.ReportWithDetails, error) {
	var reports []models.ReportWithDetails
	q := r.detailsQuery(ctx)
	if len(states) > 0 {
		q = q.Where("reports.state IN ?", states)
	}
	err := q.Order("reports.created_at DESC, reports.id DESC").Scan(&reports).Error
	return reports, err
}

// GetReportsByIDs returns the reports among ids with computer and lab names
func (r *ReportRepository) GetReportsByIDs(ctx context.Context, ids []uint) ([]models.ReportWithDetails, error) {
	var reports []models.ReportWithDetails
	if len(ids) == 0 {
		return reports, nil
	}
	err := r.detailsQuery(ctx).
		Where("reports.id IN ?", ids).
		Order("reports.id ASC").
		Scan(&reports).Error
	return reports, err
}

// SetState moves the given reports to state when they are in one of from
func (r *ReportRepository) SetState(ctx context.Context, ids []uint, to models.ReportState, from ...models.ReportState) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Report{}).Where("id IN ?", ids)
	if len(from) > 0 {
		q = q.Where("state IN ?", from)
	}
	result := q.Update("state", to)
	return result.RowsAffected, result.Error
}

// MarkSent flags reports as dispatched whatever state they moved to meanwhile
func (r *ReportRepository) MarkSent(ctx context.Context, ids []uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"sent":    true,
			"sent_at": at,
		}).Error
}

// RenamePart points the unresolved reports of a part at its new name
func (r *ReportRepository) RenamePart(ctx context.Context, computerID uint, kind models.PartKind, from, to string) error {
	return r.db.WithContext(ctx).Model(&models.Report{}).
		Where("computer_id = ? AND part_kind = ? AND part_name = ? AND state <> ?", computerID, kind, from, models.ReportResolved).
		Update("part_name", to).Error
}

// ResolveParts closes the unresolved reports of parts a computer no longer declares
func (r *ReportRepository) ResolveParts(ctx context.Context, computerID uint, kind models.PartKind, parts []string) error {
	if len(parts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Report{}).
		Where("computer_id = ? AND part_kind = ? AND part_name IN ? AND state <> ?", computerID, kind, parts, models.ReportResolved).
		Update("state", models.ReportResolved).Error
}

// DeleteReport removes one report and its technician logs
func (r *ReportRepository) DeleteReport(ctx context.Context, id uint) (int64, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("report_id = ?", id).Delete(&models.TechnicianLog{}).Error; err != nil {
		return 0, err
	}
	result := db.Delete(&models.Report{}, id)
	return result.RowsAffected, result.Error
}

// DeleteAllReports removes every report and technician log
func (r *ReportRepository) DeleteAllReports(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := db.Delete(&models.TechnicianLog{}).Error; err != nil {
		return 0, err
	}
	result := db.Delete(&models.Report{})
	return result.RowsAffected, result.Error
}

// CountReports counts reports; with states only those in the given states
func (r *ReportRepository) CountReports(ctx context.Context, states ...models.ReportState) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Report{})
	if len(states) > 0 {
		q = q.Where("state IN ?", states)
	}
	err := q.Count(&count).Error
	return count, err
}
