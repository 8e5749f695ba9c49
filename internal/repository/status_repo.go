package repository

import (
	"context"
	"errors"

	"lab-maintenance-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepo(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *StatusRepository) WithTx(tx *gorm.DB) *StatusRepository {
	return &StatusRepository{db: tx}
}

// GetStatus returns the status row of one part, or nil when none exists
func (r *StatusRepository) GetStatus(ctx context.Context, computerID uint, part string, kind models.PartKind) (*models.PartStatusRecord, error) {
	var rec models.PartStatusRecord
	err := r.db.WithContext(ctx).
		Where("computer_id = ? AND name = ? AND type = ?", computerID, part, kind).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// InsertStatus creates the first row for a part. It reports false when a
// concurrent writer inserted the same key first.
func (r *StatusRepository) InsertStatus(ctx context.Context, rec *models.PartStatusRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	return result.RowsAffected == 1, result.Error
}

// UpdateStatusIfVersion overwrites status and notes when the row is still at
// version and bumps the version. It reports false when the row moved on.
func (r *StatusRepository) UpdateStatusIfVersion(ctx context.Context, rec *models.PartStatusRecord, version uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PartStatusRecord{}).
		Where("id = ? AND version = ?", rec.ID, version).
		Updates(map[string]interface{}{
			"status":     rec.Status,
			"notes":      rec.Notes,
			"updated_by": rec.UpdatedBy,
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected == 1, result.Error
}

// RenamePart moves a custom part's status row to its new name
func (r *StatusRepository) RenamePart(ctx context.Context, computerID uint, kind models.PartKind, from, to string) error {
	return r.db.WithContext(ctx).Model(&models.PartStatusRecord{}).
		Where("computer_id = ? AND type = ? AND name = ?", computerID, kind, from).
		Update("name", to).Error
}

// DeleteStatuses removes the rows of parts no longer declared by a computer
func (r *StatusRepository) DeleteStatuses(ctx context.Context, computerID uint, kind models.PartKind, parts []string) error {
	if len(parts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("computer_id = ? AND type = ? AND name IN ?", computerID, kind, parts).
		Delete(&models.PartStatusRecord{}).Error
}

// ListStatusesForComputer returns every stored row of one computer
func (r *StatusRepository) ListStatusesForComputer(ctx context.Context, computerID uint) ([]models.PartStatusRecord, error) {
	var recs []models.PartStatusRecord
	err := r.db.WithContext(ctx).
		Where("computer_id = ?", computerID).
		Order("type ASC, name ASC").
		Find(&recs).Error
	return recs, err
}

// ListStatuses returns stored rows of every computer, optionally for one kind, in one query
func (r *StatusRepository) ListStatuses(ctx context.Context, kind models.PartKind) ([]models.PartStatusRecord, error) {
	var recs []models.PartStatusRecord
	q := r.db.WithContext(ctx)
	if kind != "" {
		q = q.Where("type = ?", kind)
	}
	err := q.Order("computer_id ASC, type ASC, name ASC").Find(&recs).Error
	return recs, err
}

// LabStatusCount counts non-operational parts of one status in one lab
type LabStatusCount struct {
	LabID   uint              `json:"lab_id"`
	LabName string            `json:"lab_name"`
	Status  models.PartStatus `json:"status"`
	Count   int64             `json:"count"`
}

// CountFaultsByLab groups fault rows per laboratory and status
func (r *StatusRepository) CountFaultsByLab(ctx context.Context) ([]LabStatusCount, error) {
	var counts []LabStatusCount
	err := r.db.WithContext(ctx).
		Table("computer_parts").
		Select("laboratories.id AS lab_id, laboratories.name AS lab_name, computer_parts.status, COUNT(*) AS count").
		Joins("JOIN computers ON computers.id = computer_parts.computer_id").
		Joins("JOIN laboratories ON laboratories.id = computers.lab_id").
		Where("computer_parts.status <> ?", models.StatusOperational).
		Group("laboratories.id, laboratories.name, computer_parts.status").
		Order("laboratories.name ASC").
		Scan(&counts).Error
	return counts, err
}
