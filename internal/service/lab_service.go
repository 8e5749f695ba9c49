package service

import (
	"context"
	"fmt"
	"iter"
	"log"
	"strings"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/repository"

	"gorm.io/gorm"
)

type LabService struct {
	db            *gorm.DB
	labRepo       *repository.LabRepository
	computerRepo  *repository.ComputerRepository
	accessoryRepo *repository.AccessoryRepository
	auditRepo     *repository.AuditRepository
	cascadeDelete bool
}

func NewLabService(
	db *gorm.DB,
	labRepo *repository.LabRepository,
	computerRepo *repository.ComputerRepository,
	accessoryRepo *repository.AccessoryRepository,
	auditRepo *repository.AuditRepository,
	cascadeDelete bool,
) *LabService {
	return &LabService{
		db:            db,
		labRepo:       labRepo,
		computerRepo:  computerRepo,
		accessoryRepo: accessoryRepo,
		auditRepo:     auditRepo,
		cascadeDelete: cascadeDelete,
	}
}

// CreateLab registers a laboratory with a unique name
func (s *LabService) CreateLab(ctx context.Context, actor access.Actor, name, location string) (*models.Laboratory, error) {
	if err := actor.Require(access.WriteLab); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("lab_name is required")
	}

	taken, err := s.labRepo.NameTaken(ctx, name, 0)
	if err != nil {
		return nil, apperr.Internal(err, "failed to check laboratory name")
	}
	if taken {
		return nil, apperr.DuplicateName("laboratory %q already exists", name)
	}

	lab := &models.Laboratory{
		Name:     name,
		Location: strings.TrimSpace(location),
	}
	if err := s.labRepo.CreateLab(ctx, lab); err != nil {
		return nil, apperr.Internal(err, "failed to create laboratory")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "lab_create", fmt.Sprintf("Created laboratory %s (ID: %d)", lab.Name, lab.ID))

	return lab, nil
}

// RenameOrRelocate changes the name and/or the location of a laboratory
func (s *LabService) RenameOrRelocate(ctx context.Context, actor access.Actor, id uint, name, location *string) (*models.Laboratory, error) {
	if err := actor.Require(access.WriteLab); err != nil {
		return nil, err
	}

	lab, err := s.labRepo.GetLabByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		newName := strings.TrimSpace(*name)
		if newName == "" {
			return nil, apperr.Validation("lab_name cannot be empty")
		}
		taken, err := s.labRepo.NameTaken(ctx, newName, id)
		if err != nil {
			return nil, apperr.Internal(err, "failed to check laboratory name")
		}
		if taken {
			return nil, apperr.DuplicateName("laboratory %q already exists", newName)
		}
		lab.Name = newName
	}
	if location != nil {
		lab.Location = strings.TrimSpace(*location)
	}

	if err := s.labRepo.UpdateLab(ctx, lab); err != nil {
		return nil, apperr.Internal(err, "failed to update laboratory")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "lab_update", fmt.Sprintf("Updated laboratory %d: name=%s location=%s", lab.ID, lab.Name, lab.Location))

	return lab, nil
}

// DeleteLab removes a laboratory by name. While computers reference it the
// delete fails with a ConflictError unless cascade deletion is enabled.
func (s *LabService) DeleteLab(ctx context.Context, actor access.Actor, name string) error {
	if err := actor.Require(access.WriteLab); err != nil {
		return err
	}

	lab, err := s.labRepo.GetLabByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return err
	}

	var removedComputers int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		computers := s.computerRepo.WithTx(tx)

		ids, err := computers.ComputerIDsByLab(ctx, lab.ID)
		if err != nil {
			return err
		}
		if len(ids) > 0 && !s.cascadeDelete {
			return apperr.Conflict("laboratory %q still has %d computer(s)", lab.Name, len(ids))
		}

		removedComputers, err = computers.DeleteComputersCascade(ctx, ids)
		if err != nil {
			return err
		}
		if err := s.accessoryRepo.WithTx(tx).DeleteAccessoriesByLab(ctx, lab.ID); err != nil {
			return err
		}
		return s.labRepo.WithTx(tx).DeleteLab(ctx, lab.ID)
	})
	if err != nil {
		return storeError(err, "failed to delete laboratory")
	}

	if removedComputers > 0 {
		log.Printf("Laboratory %s deleted with %d computer(s)", lab.Name, removedComputers)
	}
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "lab_delete", fmt.Sprintf("Deleted laboratory %s (ID: %d), %d computer(s) removed", lab.Name, lab.ID, removedComputers))

	return nil
}

// ListLabs returns laboratories ordered by name as a lazy sequence that
// queries the store each time it is ranged over
func (s *LabService) ListLabs(ctx context.Context, actor access.Actor) (iter.Seq2[models.Laboratory, error], error) {
	if err := actor.Require(access.Read); err != nil {
		return nil, err
	}
	return s.labRepo.Labs(ctx), nil
}

// PCCountByLab aggregates the number of computers per laboratory
func (s *LabService) PCCountByLab(ctx context.Context, actor access.Actor) ([]models.LabPCCount, error) {
	if err := actor.Require(access.Read); err != nil {
		return nil, err
	}
	counts, err := s.labRepo.PCCountByLab(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to count computers per laboratory")
	}
	return counts, nil
}
