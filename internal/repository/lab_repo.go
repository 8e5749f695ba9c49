package repository

import (
	"context"
	"errors"
	"iter"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"

	"gorm.io/gorm"
)

type LabRepository struct {
	db *gorm.DB
}

func NewLabRepo(db *gorm.DB) *LabRepository {
	return &LabRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *LabRepository) WithTx(tx *gorm.DB) *LabRepository {
	return &LabRepository{db: tx}
}

// CreateLab creates a new laboratory
func (r *LabRepository) CreateLab(ctx context.Context, lab *models.Laboratory) error {
	return r.db.WithContext(ctx).Create(lab).Error
}

// GetLabByID retrieves a laboratory by ID
func (r *LabRepository) GetLabByID(ctx context.Context, id uint) (*models.Laboratory, error) {
	var lab models.Laboratory
	err := r.db.WithContext(ctx).First(&lab, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("laboratory %d not found", id)
		}
		return nil, err
	}
	return &lab, nil
}

// GetLabByName retrieves a laboratory by exact name
func (r *LabRepository) GetLabByName(ctx context.Context, name string) (*models.Laboratory, error) {
	var lab models.Laboratory
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&lab).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("laboratory %q not found", name)
		}
		return nil, err
	}
	return &lab, nil
}

// NameTaken reports whether another laboratory already uses name, ignoring case
func (r *LabRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Laboratory{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// UpdateLab saves name and location of a laboratory
func (r *LabRepository) UpdateLab(ctx context.Context, lab *models.Laboratory) error {
	return r.db.WithContext(ctx).Model(lab).
		Select("name", "location").
		Updates(lab).Error
}

// DeleteLab removes the laboratory row and its technician assignments
func (r *LabRepository) DeleteLab(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("lab_id = ?", id).Delete(&models.UserLab{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Laboratory{}, id).Error
}

// Labs yields laboratories ordered by name. Each range over the
// sequence runs a fresh query, so it can be iterated again.
func (r *LabRepository) Labs(ctx context.Context) iter.Seq2[models.Laboratory, error] {
	return func(yield func(models.Laboratory, error) bool) {
		rows, err := r.db.WithContext(ctx).Model(&models.Laboratory{}).Order("name ASC").Order("id ASC").Rows()
		if err != nil {
			yield(models.Laboratory{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var lab models.Laboratory
			if err := r.db.ScanRows(rows, &lab); err != nil {
				yield(models.Laboratory{}, err)
				return
			}
			if !yield(lab, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Laboratory{}, err)
		}
	}
}

// CountLabs returns the number of laboratories
func (r *LabRepository) CountLabs(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Laboratory{}).Count(&count).Error
	return count, err
}

// PCCountByLab counts computers per laboratory, including empty labs
func (r *LabRepository) PCCountByLab(ctx context.Context) ([]models.LabPCCount, error) {
	var counts []models.LabPCCount
	err := r.db.WithContext(ctx).
		Table("laboratories").
		Select("laboratories.id AS lab_id, laboratories.name AS lab_name, COUNT(computers.id) AS pc_count").
		Joins("LEFT JOIN computers ON computers.lab_id = laboratories.id").
		Group("laboratories.id, laboratories.name").
		Order("laboratories.name ASC").
		Scan(&counts).Error
	return counts, err
}
