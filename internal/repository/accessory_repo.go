package repository

import (
	"context"
	"errors"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"

	"gorm.io/gorm"
)

type AccessoryRepository struct {
	db *gorm.DB
}

func NewAccessoryRepo(db *gorm.DB) *AccessoryRepository {
	return &AccessoryRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AccessoryRepository) WithTx(tx *gorm.DB) *AccessoryRepository {
	return &AccessoryRepository{db: tx}
}

// AccessoryWithLab adds the laboratory name for listings
type AccessoryWithLab struct {
	models.Accessory
	LabName string `json:"lab_name"`
}

// CreateAccessories inserts accessories in one statement
func (r *AccessoryRepository) CreateAccessories(ctx context.Context, items []*models.Accessory) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(items).Error
}

// GetAccessoryByID retrieves an accessory by ID
func (r *AccessoryRepository) GetAccessoryByID(ctx context.Context, id uint) (*models.Accessory, error) {
	var item models.Accessory
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("accessory %d not found", id)
		}
		return nil, err
	}
	return &item, nil
}

// ListAccessories returns accessories with lab names; labID 0 lists all
func (r *AccessoryRepository) ListAccessories(ctx context.Context, labID uint) ([]AccessoryWithLab, error) {
	var items []AccessoryWithLab
	q := r.db.WithContext(ctx).
		Table("accessories").
		Select("accessories.*, laboratories.name AS lab_name").
		Joins("LEFT JOIN laboratories ON laboratories.id = accessories.lab_id")
	if labID != 0 {
		q = q.Where("accessories.lab_id = ?", labID)
	}
	err := q.Order("laboratories.name ASC, accessories.name ASC").Scan(&items).Error
	return items, err
}

// UpdateAccessory saves every editable column
func (r *AccessoryRepository) UpdateAccessory(ctx context.Context, item *models.Accessory) error {
	return r.db.WithContext(ctx).Model(item).
		Select("lab_id", "name", "quantity", "notes").
		Updates(item).Error
}

// DeleteAccessory removes one accessory
func (r *AccessoryRepository) DeleteAccessory(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Accessory{}, id)
	return result.RowsAffected, result.Error
}

// DeleteAccessoriesByLab removes the accessories of a lab
func (r *AccessoryRepository) DeleteAccessoriesByLab(ctx context.Context, labID uint) error {
	return r.db.WithContext(ctx).Where("lab_id = ?", labID).Delete(&models.Accessory{}).Error
}
