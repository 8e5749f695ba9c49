package service

import (
	"context"
	"fmt"
	"strings"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/repository"
)

type AccessoryService struct {
	accessoryRepo *repository.AccessoryRepository
	labRepo       *repository.LabRepository
	auditRepo     *repository.AuditRepository
}

func NewAccessoryService(accessoryRepo *repository.AccessoryRepository, labRepo *repository.LabRepository, auditRepo *repository.AuditRepository) *AccessoryService {
	return &AccessoryService{
		accessoryRepo: accessoryRepo,
		labRepo:       labRepo,
		auditRepo:     auditRepo,
	}
}

// AccessoryInput describes one accessory to add or the new values of one
type AccessoryInput struct {
	LabID    uint
	Name     string
	Quantity int
	Notes    string
}

func (in AccessoryInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("accessory name is required")
	}
	if in.Quantity < 0 {
		return apperr.Validation("quantity cannot be negative")
	}
	return nil
}

// ListAccessories returns accessories with lab names; labID 0 lists all
func (s *AccessoryService) ListAccessories(ctx context.Context, actor access.Actor, labID uint) ([]repository.AccessoryWithLab, error) {
	if err := actor.Require(access.Read); err != nil {
		return nil, err
	}
	items, err := s.accessoryRepo.ListAccessories(ctx, labID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list accessories")
	}
	return items, nil
}

// AddAccessories stores one or more accessories
func (s *AccessoryService) AddAccessories(ctx context.Context, actor access.Actor, inputs []AccessoryInput) ([]*models.Accessory, error) {
	if err := actor.Require(access.WriteLab); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, apperr.Validation("no accessories given")
	}

	checked := make(map[uint]bool)
	items := make([]*models.Accessory, 0, len(inputs))
	for _, in := range inputs {
		if err := in.validate(); err != nil {
			return nil, err
		}
		if !checked[in.LabID] {
			if _, err := s.labRepo.GetLabByID(ctx, in.LabID); err != nil {
				return nil, storeError(err, "failed to load laboratory")
			}
			checked[in.LabID] = true
		}
		items = append(items, &models.Accessory{
			LabID:    in.LabID,
			Name:     strings.TrimSpace(in.Name),
			Quantity: in.Quantity,
			Notes:    strings.TrimSpace(in.Notes),
		})
	}

	if err := s.accessoryRepo.CreateAccessories(ctx, items); err != nil {
		return nil, apperr.Internal(err, "failed to add accessories")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "accessory_create", fmt.Sprintf("Added %d accessories", len(items)))
	return items, nil
}

// UpdateAccessory replaces the values of one accessory
func (s *AccessoryService) UpdateAccessory(ctx context.Context, actor access.Actor, id uint, in AccessoryInput) (*models.Accessory, error) {
	if err := actor.Require(access.WriteLab); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	item, err := s.accessoryRepo.GetAccessoryByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to load accessory")
	}
	if in.LabID != 0 && in.LabID != item.LabID {
		if _, err := s.labRepo.GetLabByID(ctx, in.LabID); err != nil {
			return nil, storeError(err, "failed to load laboratory")
		}
		item.LabID = in.LabID
	}
	item.Name = strings.TrimSpace(in.Name)
	item.Quantity = in.Quantity
	item.Notes = strings.TrimSpace(in.Notes)

	if err := s.accessoryRepo.UpdateAccessory(ctx, item); err != nil {
		return nil, apperr.Internal(err, "failed to update accessory")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "accessory_update", fmt.Sprintf("Updated accessory %s (ID: %d)", item.Name, item.ID))
	return item, nil
}

// DeleteAccessory removes one accessory
func (s *AccessoryService) DeleteAccessory(ctx context.Context, actor access.Actor, id uint) error {
	if err := actor.Require(access.WriteLab); err != nil {
		return err
	}
	deleted, err := s.accessoryRepo.DeleteAccessory(ctx, id)
	if err != nil {
		return apperr.Internal(err, "failed to delete accessory")
	}
	if deleted == 0 {
		return apperr.NotFound("accessory %d not found", id)
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "accessory_delete", fmt.Sprintf("Deleted accessory %d", id))
	return nil
}
