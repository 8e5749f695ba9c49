package repository

import (
	"context"

	"lab-maintenance-backend/internal/models"

	"gorm.io/gorm"
)

type UserLabRepository struct {
	db *gorm.DB
}

func NewUserLabRepo(db *gorm.DB) *UserLabRepository {
	return &UserLabRepository{db: db}
}

func (r *UserLabRepository) WithTx(tx *gorm.DB) *UserLabRepository {
	return &UserLabRepository{db: tx}
}

// AssignUserToLab scopes a user to a laboratory
func (r *UserLabRepository) AssignUserToLab(ctx context.Context, userID, labID uint) error {
	userLab := &models.UserLab{
		UserID: userID,
		LabID:  labID,
	}
	// Use FirstOrCreate to avoid duplicate entries
	return r.db.WithContext(ctx).Where("user_id = ? AND lab_id = ?", userID, labID).
		FirstOrCreate(userLab).Error
}

// RemoveUserFromLab removes a user's assignment to a laboratory
func (r *UserLabRepository) RemoveUserFromLab(ctx context.Context, userID, labID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND lab_id = ?", userID, labID).
		Delete(&models.UserLab{}).Error
}

// GetUserLabs retrieves all laboratory IDs a user is assigned to
func (r *UserLabRepository) GetUserLabs(ctx context.Context, userID uint) ([]uint, error) {
	var labIDs []uint
	err := r.db.WithContext(ctx).Model(&models.UserLab{}).
		Where("user_id = ?", userID).
		Pluck("lab_id", &labIDs).Error
	return labIDs, err
}

// UserCanWorkInLab reports whether the user is unscoped or assigned to the lab
func (r *UserLabRepository) UserCanWorkInLab(ctx context.Context, userID, labID uint) (bool, error) {
	labIDs, err := r.GetUserLabs(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(labIDs) == 0 {
		return true, nil
	}
	for _, id := range labIDs {
		if id == labID {
			return true, nil
		}
	}
	return false, nil
}

// RemoveUser drops every assignment of a user
func (r *UserLabRepository) RemoveUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserLab{}).Error
}
