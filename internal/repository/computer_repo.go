package repository

import (
	"context"
	"errors"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"

	"gorm.io/gorm"
)

type ComputerRepository struct {
	db *gorm.DB
}

func NewComputerRepo(db *gorm.DB) *ComputerRepository {
	return &ComputerRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ComputerRepository) WithTx(tx *gorm.DB) *ComputerRepository {
	return &ComputerRepository{db: tx}
}

// CreateComputers inserts one or more computers in a single statement
func (r *ComputerRepository) CreateComputers(ctx context.Context, computers []*models.Computer) error {
	if len(computers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(computers).Error
}

// GetComputerByID retrieves a computer by ID
func (r *ComputerRepository) GetComputerByID(ctx context.Context, id uint) (*models.Computer, error) {
	var computer models.Computer
	err := r.db.WithContext(ctx).First(&computer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("computer %d not found", id)
		}
		return nil, err
	}
	return &computer, nil
}

// GetComputersByIDs retrieves the computers that exist among ids
func (r *ComputerRepository) GetComputersByIDs(ctx context.Context, ids []uint) ([]models.Computer, error) {
	var computers []models.Computer
	if len(ids) == 0 {
		return computers, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&computers).Error
	return computers, err
}

// ListComputers returns computers with their laboratory name; labID 0 lists all
func (r *ComputerRepository) ListComputers(ctx context.Context, labID uint) ([]models.ComputerWithLab, error) {
	var computers []models.ComputerWithLab
	q := r.db.WithContext(ctx).
		Table("computers").
		Select("computers.*, laboratories.name AS lab_name").
		Joins("LEFT JOIN laboratories ON laboratories.id = computers.lab_id")
	if labID != 0 {
		q = q.Where("computers.lab_id = ?", labID)
	}
	err := q.Order("computers.lab_id ASC, computers.id ASC").Scan(&computers).Error
	return computers, err
}

// LowerNamesInLab returns the lower-cased pc names already used in a lab
func (r *ComputerRepository) LowerNamesInLab(ctx context.Context, labID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.Computer{}).
		Where("lab_id = ?", labID).
		Pluck("LOWER(pc_name)", &names).Error
	return names, err
}

// NameTakenInLab reports whether another computer in the lab uses name, ignoring case
func (r *ComputerRepository) NameTakenInLab(ctx context.Context, labID uint, name string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Computer{}).
		Where("lab_id = ? AND LOWER(pc_name) = LOWER(?)", labID, name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// UpdateComputer saves name, placement and part metadata
func (r *ComputerRepository) UpdateComputer(ctx context.Context, computer *models.Computer) error {
	return r.db.WithContext(ctx).Model(computer).
		Select("lab_id", "pc_name", "specs", "other_parts").
		Updates(computer).Error
}

// ComputerIDsByLab lists the ids of every computer in a lab
func (r *ComputerRepository) ComputerIDsByLab(ctx context.Context, labID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Computer{}).
		Where("lab_id = ?", labID).
		Pluck("id", &ids).Error
	return ids, err
}

// CountComputers counts computers in a lab; labID 0 counts all
func (r *ComputerRepository) CountComputers(ctx context.Context, labID uint) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Computer{})
	if labID != 0 {
		q = q.Where("lab_id = ?", labID)
	}
	err := q.Count(&count).Error
	return count, err
}

// DeleteComputersCascade removes computers with their statuses, reports and technician logs.
// It must run inside a transaction.
func (r *ComputerRepository) DeleteComputersCascade(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := r.db.WithContext(ctx)

	reportIDs := db.Model(&models.Report{}).Select("id").Where("computer_id IN ?", ids)
	if err := db.Where("report_id IN (?)", reportIDs).Delete(&models.TechnicianLog{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("computer_id IN ?", ids).Delete(&models.Report{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("computer_id IN ?", ids).Delete(&models.PartStatusRecord{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("id IN ?", ids).Delete(&models.Computer{})
	return result.RowsAffected, result.Error
}
