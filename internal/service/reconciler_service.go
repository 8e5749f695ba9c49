package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BulkTarget is one part of one computer in a bulk status batch
type BulkTarget struct {
	Part            string
	Kind            models.PartKind
	Status          models.PartStatus
	NewName         string
	Notes           string
	ExpectedVersion *uint
}

// TargetResult is the per-target outcome of a bulk batch
type TargetResult struct {
	ComputerID uint              `json:"computer_id"`
	Part       string            `json:"part"`
	Type       models.PartKind   `json:"type"`
	Status     models.PartStatus `json:"status,omitempty"`
	Success    bool              `json:"success"`
	Changed    bool              `json:"changed"`
	ReportID   *uint             `json:"report_id,omitempty"`
	Error      string            `json:"error,omitempty"`
	ErrorKind  string            `json:"error_kind,omitempty"`
}

// BulkResult summarizes a bulk batch
type BulkResult struct {
	Updated int            `json:"updated"`
	Failed  int            `json:"failed"`
	Results []TargetResult `json:"results"`
}

// ReconcilerService applies one batch of status changes across many
// computers. Each target commits in its own transaction, so a failing
// target never rolls back the others.
type ReconcilerService struct {
	db           *gorm.DB
	computerRepo *repository.ComputerRepository
	statusRepo   *repository.StatusRepository
	reportRepo   *repository.ReportRepository
	statuses     *StatusService
	auditRepo    *repository.AuditRepository
}

func NewReconcilerService(
	db *gorm.DB,
	computerRepo *repository.ComputerRepository,
	statusRepo *repository.StatusRepository,
	reportRepo *repository.ReportRepository,
	statuses *StatusService,
	auditRepo *repository.AuditRepository,
) *ReconcilerService {
	return &ReconcilerService{
		db:           db,
		computerRepo: computerRepo,
		statusRepo:   statusRepo,
		reportRepo:   reportRepo,
		statuses:     statuses,
		auditRepo:    auditRepo,
	}
}

// Reconcile applies batch and reports every target's outcome. Targets run in
// computer id then part name order.
func (s *ReconcilerService) Reconcile(ctx context.Context, actor access.Actor, batch map[uint][]BulkTarget) (*BulkResult, error) {
	if err := actor.Require(access.WriteStatus); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, apperr.Validation("statuses is required")
	}

	computerIDs := make([]uint, 0, len(batch))
	for id := range batch {
		computerIDs = append(computerIDs, id)
	}
	sort.Slice(computerIDs, func(i, j int) bool { return computerIDs[i] < computerIDs[j] })

	result := &BulkResult{Results: []TargetResult{}}
	record := func(res TargetResult) {
		if res.Success {
			result.Updated++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, res)
	}

	for _, computerID := range computerIDs {
		targets := append([]BulkTarget(nil), batch[computerID]...)
		sort.SliceStable(targets, func(i, j int) bool { return targets[i].Part < targets[j].Part })

		if len(targets) == 0 {
			record(s.emptyTarget(ctx, computerID))
			continue
		}
		for _, target := range targets {
			// once cancelled, the rest of the batch is reported as not applied
			if err := ctx.Err(); err != nil {
				record(failed(TargetResult{ComputerID: computerID, Part: target.Part, Type: target.Kind, Status: target.Status},
					apperr.Internal(err, "bulk status update interrupted")))
				continue
			}
			record(s.applyTarget(ctx, actor, computerID, target))
		}
	}

	log.Printf("Bulk status update by user %d: %d updated, %d failed", actor.UserID, result.Updated, result.Failed)
	_ = s.auditRepo.CreateAuditLog(context.WithoutCancel(ctx), &actor.UserID, "status_bulk_update", fmt.Sprintf("Bulk status update over %d computers: %d updated, %d failed", len(computerIDs), result.Updated, result.Failed))

	return result, nil
}

// emptyTarget reports a computer listed without parts: unknown ids fail as
// not found, known ones as a validation error
func (s *ReconcilerService) emptyTarget(ctx context.Context, computerID uint) TargetResult {
	res := TargetResult{ComputerID: computerID}
	if _, err := s.computerRepo.GetComputerByID(ctx, computerID); err != nil {
		return failed(res, storeError(err, "failed to load computer"))
	}
	return failed(res, apperr.Validation("no parts given for computer %d", computerID))
}

func (s *ReconcilerService) applyTarget(ctx context.Context, actor access.Actor, computerID uint, target BulkTarget) TargetResult {
	res := TargetResult{ComputerID: computerID, Part: target.Part, Type: target.Kind, Status: target.Status}

	change := StatusChange{
		Part:            target.Part,
		Kind:            target.Kind,
		Status:          target.Status,
		Notes:           target.Notes,
		ExpectedVersion: target.ExpectedVersion,
	}
	if err := change.normalize(); err != nil {
		return failed(res, err)
	}
	res.Part, res.Type = change.Part, change.Kind

	var (
		outcome *StatusOutcome
		renamed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		computers := s.computerRepo.WithTx(tx)
		computer, err := computers.GetComputerByID(ctx, computerID)
		if err != nil {
			return err
		}
		if err := s.statuses.ensureLabScope(ctx, tx, actor, computer.LabID); err != nil {
			return err
		}

		newName := strings.TrimSpace(target.NewName)
		switch {
		case newName == "" || newName == change.Part:
		case change.Kind == models.PartCustom && !computer.HasPart(change.Part, change.Kind) && computer.HasPart(newName, change.Kind):
			// renamed by an earlier run of the same batch
			change.Part = newName
		default:
			part, err := s.renamePart(ctx, tx, computer, change.Part, change.Kind, newName)
			if err != nil {
				return err
			}
			change.Part = part
			renamed = true
		}

		outcome, err = s.statuses.applyStatus(ctx, tx, actor, computer, change)
		return err
	})
	if err != nil {
		return failed(res, storeError(err, "failed to update status"))
	}

	res.Part = change.Part
	res.Success = true
	res.Changed = outcome.Changed || renamed
	res.ReportID = outcome.ReportID
	return res
}

// renamePart gives a part a new display name. Standard slots keep their key
// and only change metadata; custom parts are renamed together with their status row.
func (s *ReconcilerService) renamePart(ctx context.Context, tx *gorm.DB, computer *models.Computer, part string, kind models.PartKind, newName string) (string, error) {
	if !computer.HasPart(part, kind) {
		return "", apperr.Validation("computer %q has no %s part %q", computer.PCName, kind, part)
	}

	if kind == models.PartStandard {
		specs := computer.Specs.Data().Complete()
		info := specs[part]
		info.Name = newName
		specs[part] = info
		computer.Specs = datatypes.NewJSONType(specs)
		if err := s.computerRepo.WithTx(tx).UpdateComputer(ctx, computer); err != nil {
			return "", err
		}
		return part, nil
	}

	others := append([]models.CustomPart(nil), computer.OtherParts.Data()...)
	for _, p := range others {
		if p.Name != part && strings.EqualFold(p.Name, newName) {
			return "", apperr.DuplicateName("computer %q already has a part named %q", computer.PCName, newName)
		}
	}
	for i := range others {
		if others[i].Name == part {
			others[i].Name = newName
		}
	}
	computer.OtherParts = datatypes.NewJSONType(others)
	if err := s.computerRepo.WithTx(tx).UpdateComputer(ctx, computer); err != nil {
		return "", err
	}
	if err := s.statusRepo.WithTx(tx).RenamePart(ctx, computer.ID, kind, part, newName); err != nil {
		return "", err
	}
	if err := s.reportRepo.WithTx(tx).RenamePart(ctx, computer.ID, kind, part, newName); err != nil {
		return "", err
	}
	return newName, nil
}

func failed(res TargetResult, err error) TargetResult {
	res.Success = false
	res.Error = apperr.Message(err)
	res.ErrorKind = apperr.KindOf(err).String()
	return res
}
