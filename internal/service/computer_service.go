package service

import (
	"context"
	"fmt"
	"strings"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ComputerService struct {
	db           *gorm.DB
	labRepo      *repository.LabRepository
	computerRepo *repository.ComputerRepository
	statusRepo   *repository.StatusRepository
	reportRepo   *repository.ReportRepository
	auditRepo    *repository.AuditRepository
	maxBulk      int
}

func NewComputerService(
	db *gorm.DB,
	labRepo *repository.LabRepository,
	computerRepo *repository.ComputerRepository,
	statusRepo *repository.StatusRepository,
	reportRepo *repository.ReportRepository,
	auditRepo *repository.AuditRepository,
	maxBulk int,
) *ComputerService {
	return &ComputerService{
		db:           db,
		labRepo:      labRepo,
		computerRepo: computerRepo,
		statusRepo:   statusRepo,
		reportRepo:   reportRepo,
		auditRepo:    auditRepo,
		maxBulk:      maxBulk,
	}
}

// ComputerInput describes one computer to create
type ComputerInput struct {
	PCName     string
	Specs      models.StandardParts
	OtherParts []models.CustomPart
}

// BulkTemplate generates Count computers named {Prefix}{StartNumber+i}
type BulkTemplate struct {
	Prefix      string
	StartNumber int
	Count       int
	Specs       models.StandardParts
	OtherParts  []models.CustomPart
}

// ComputerPatch holds the fields an edit may change; nil means unchanged
type ComputerPatch struct {
	PCName     *string
	LabID      *uint
	Specs      *models.StandardParts
	OtherParts *[]models.CustomPart
}

// BulkDeleteResult lists which ids were removed and which did not exist
type BulkDeleteResult struct {
	Deleted []uint `json:"deleted"`
	Skipped []uint `json:"skipped"`
}

func (in ComputerInput) validate() error {
	if strings.TrimSpace(in.PCName) == "" {
		return apperr.Validation("pc_name is required")
	}
	if err := in.Specs.Validate(); err != nil {
		return apperr.Validation("%v", err)
	}
	if err := models.ValidateCustomParts(in.OtherParts); err != nil {
		return apperr.Validation("%v", err)
	}
	return nil
}

func (in ComputerInput) build(labID uint) *models.Computer {
	others := make([]models.CustomPart, 0, len(in.OtherParts))
	for _, p := range in.OtherParts {
		others = append(others, models.CustomPart{Name: strings.TrimSpace(p.Name), Serial: p.Serial})
	}
	return &models.Computer{
		LabID:      labID,
		PCName:     strings.TrimSpace(in.PCName),
		Specs:      datatypes.NewJSONType(in.Specs.Complete()),
		OtherParts: datatypes.NewJSONType(others),
	}
}

// AddComputer places one computer in a laboratory
func (s *ComputerService) AddComputer(ctx context.Context, actor access.Actor, labID uint, in ComputerInput) (*models.Computer, error) {
	if err := actor.Require(access.WriteComputer); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.labRepo.GetLabByID(ctx, labID); err != nil {
		return nil, storeError(err, "failed to load laboratory")
	}

	name := strings.TrimSpace(in.PCName)
	taken, err := s.computerRepo.NameTakenInLab(ctx, labID, name, 0)
	if err != nil {
		return nil, apperr.Internal(err, "failed to check computer name")
	}
	if taken {
		return nil, apperr.DuplicateName("computer %q already exists in this laboratory", name)
	}

	computer := in.build(labID)
	if err := s.computerRepo.CreateComputers(ctx, []*models.Computer{computer}); err != nil {
		return nil, apperr.Internal(err, "failed to create computer")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "computer_create", fmt.Sprintf("Added computer %s (ID: %d) to laboratory %d", computer.PCName, computer.ID, labID))

	return computer, nil
}

// BulkNames returns the names a template generates: {prefix}{start+i}, unpadded
func BulkNames(prefix string, start, count int) []string {
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		names = append(names, fmt.Sprintf("%s%d", prefix, start+i))
	}
	return names
}

// AddComputersBulk generates computers from a template. Either every
// generated computer is created or none is.
func (s *ComputerService) AddComputersBulk(ctx context.Context, actor access.Actor, labID uint, tpl BulkTemplate) ([]*models.Computer, error) {
	if err := actor.Require(access.WriteComputer); err != nil {
		return nil, err
	}
	if tpl.Count < 1 {
		return nil, apperr.Validation("count must be at least 1")
	}
	if tpl.Count > s.maxBulk {
		return nil, apperr.Validation("count %d exceeds the maximum of %d computers per batch", tpl.Count, s.maxBulk)
	}
	if tpl.StartNumber < 0 {
		return nil, apperr.Validation("start_number cannot be negative")
	}

	inputs := make([]ComputerInput, 0, tpl.Count)
	for _, name := range BulkNames(tpl.Prefix, tpl.StartNumber, tpl.Count) {
		inputs = append(inputs, ComputerInput{PCName: name, Specs: tpl.Specs, OtherParts: tpl.OtherParts})
	}
	return s.addMany(ctx, actor, labID, inputs)
}

// AddComputersList creates an explicit list of computers atomically
func (s *ComputerService) AddComputersList(ctx context.Context, actor access.Actor, labID uint, inputs []ComputerInput) ([]*models.Computer, error) {
	if err := actor.Require(access.WriteComputer); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, apperr.Validation("no computers given")
	}
	if len(inputs) > s.maxBulk {
		return nil, apperr.Validation("%d computers exceed the maximum of %d per batch", len(inputs), s.maxBulk)
	}
	return s.addMany(ctx, actor, labID, inputs)
}

func (s *ComputerService) addMany(ctx context.Context, actor access.Actor, labID uint, inputs []ComputerInput) ([]*models.Computer, error) {
	for _, in := range inputs {
		if err := in.validate(); err != nil {
			return nil, err
		}
	}

	computers := make([]*models.Computer, 0, len(inputs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.labRepo.WithTx(tx).GetLabByID(ctx, labID); err != nil {
			return err
		}

		repo := s.computerRepo.WithTx(tx)
		existing, err := repo.LowerNamesInLab(ctx, labID)
		if err != nil {
			return err
		}
		used := make(map[string]bool, len(existing)+len(inputs))
		for _, n := range existing {
			used[n] = true
		}

		var collisions []string
		for _, in := range inputs {
			key := strings.ToLower(strings.TrimSpace(in.PCName))
			if used[key] {
				collisions = append(collisions, strings.TrimSpace(in.PCName))
				continue
			}
			used[key] = true
			computers = append(computers, in.build(labID))
		}
		if len(collisions) > 0 {
			return apperr.Validation("computer names already in use in this laboratory: %s", strings.Join(collisions, ", "))
		}

		return repo.CreateComputers(ctx, computers)
	})
	if err != nil {
		return nil, storeError(err, "failed to create computers")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "computer_bulk_create", fmt.Sprintf("Added %d computers to laboratory %d", len(computers), labID))

	return computers, nil
}

// EditComputer renames a computer, moves it or replaces its part metadata.
// Status rows of removed custom parts are dropped with them and their
// unresolved reports are closed.
func (s *ComputerService) EditComputer(ctx context.Context, actor access.Actor, id uint, patch ComputerPatch) (*models.Computer, error) {
	if err := actor.Require(access.WriteComputer); err != nil {
		return nil, err
	}
	if patch.Specs != nil {
		if err := patch.Specs.Validate(); err != nil {
			return nil, apperr.Validation("%v", err)
		}
	}
	if patch.OtherParts != nil {
		if err := models.ValidateCustomParts(*patch.OtherParts); err != nil {
			return nil, apperr.Validation("%v", err)
		}
	}

	var computer *models.Computer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.computerRepo.WithTx(tx)
		var err error
		computer, err = repo.GetComputerByID(ctx, id)
		if err != nil {
			return err
		}

		if patch.LabID != nil && *patch.LabID != computer.LabID {
			if _, err := s.labRepo.WithTx(tx).GetLabByID(ctx, *patch.LabID); err != nil {
				return err
			}
			computer.LabID = *patch.LabID
		}
		if patch.PCName != nil {
			name := strings.TrimSpace(*patch.PCName)
			if name == "" {
				return apperr.Validation("pc_name cannot be empty")
			}
			computer.PCName = name
		}
		if patch.PCName != nil || patch.LabID != nil {
			taken, err := repo.NameTakenInLab(ctx, computer.LabID, computer.PCName, computer.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.DuplicateName("computer %q already exists in this laboratory", computer.PCName)
			}
		}

		if patch.Specs != nil {
			computer.Specs = datatypes.NewJSONType(patch.Specs.Complete())
		}
		if patch.OtherParts != nil {
			kept := make(map[string]bool, len(*patch.OtherParts))
			others := make([]models.CustomPart, 0, len(*patch.OtherParts))
			for _, p := range *patch.OtherParts {
				name := strings.TrimSpace(p.Name)
				kept[name] = true
				others = append(others, models.CustomPart{Name: name, Serial: p.Serial})
			}
			var removed []string
			for _, p := range computer.OtherParts.Data() {
				if !kept[p.Name] {
					removed = append(removed, p.Name)
				}
			}
			if err := s.statusRepo.WithTx(tx).DeleteStatuses(ctx, computer.ID, models.PartCustom, removed); err != nil {
				return err
			}
			if err := s.reportRepo.WithTx(tx).ResolveParts(ctx, computer.ID, models.PartCustom, removed); err != nil {
				return err
			}
			computer.OtherParts = datatypes.NewJSONType(others)
		}

		return repo.UpdateComputer(ctx, computer)
	})
	if err != nil {
		return nil, storeError(err, "failed to update computer")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "computer_update", fmt.Sprintf("Updated computer %s (ID: %d)", computer.PCName, computer.ID))

	return computer, nil
}

// DeleteComputer removes one computer with its statuses and reports
func (s *ComputerService) DeleteComputer(ctx context.Context, actor access.Actor, id uint) error {
	if err := actor.Require(access.WriteComputer); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.computerRepo.WithTx(tx)
		if _, err := repo.GetComputerByID(ctx, id); err != nil {
			return err
		}
		_, err := repo.DeleteComputersCascade(ctx, []uint{id})
		return err
	})
	if err != nil {
		return storeError(err, "failed to delete computer")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "computer_delete", fmt.Sprintf("Deleted computer %d", id))

	return nil
}

// DeleteComputersBulk removes the given computers; ids that do not exist are skipped
func (s *ComputerService) DeleteComputersBulk(ctx context.Context, actor access.Actor, ids []uint) (*BulkDeleteResult, error) {
	if err := actor.Require(access.WriteComputer); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperr.Validation("ids is required")
	}

	result := &BulkDeleteResult{Deleted: []uint{}, Skipped: []uint{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.computerRepo.WithTx(tx)
		found, err := repo.GetComputersByIDs(ctx, ids)
		if err != nil {
			return err
		}
		present := make(map[uint]bool, len(found))
		for _, c := range found {
			present[c.ID] = true
		}

		seen := make(map[uint]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if present[id] {
				result.Deleted = append(result.Deleted, id)
			} else {
				result.Skipped = append(result.Skipped, id)
			}
		}

		_, err = repo.DeleteComputersCascade(ctx, result.Deleted)
		return err
	})
	if err != nil {
		return nil, storeError(err, "failed to delete computers")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "computer_bulk_delete", fmt.Sprintf("Deleted %d computers, skipped %d unknown ids", len(result.Deleted), len(result.Skipped)))

	return result, nil
}

// ListComputers returns computers with lab names; labID 0 lists every lab
func (s *ComputerService) ListComputers(ctx context.Context, actor access.Actor, labID uint) ([]models.ComputerWithLab, error) {
	if err := actor.Require(access.Read); err != nil {
		return nil, err
	}
	computers, err := s.computerRepo.ListComputers(ctx, labID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list computers")
	}
	return computers, nil
}

// GetComputer returns one computer
func (s *ComputerService) GetComputer(ctx context.Context, actor access.Actor, id uint) (*models.Computer, error) {
	if err := actor.Require(access.Read); err != nil {
		return nil, err
	}
	computer, err := s.computerRepo.GetComputerByID(ctx, id)
	return computer, storeError(err, "failed to load computer")
}
