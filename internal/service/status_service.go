package service

import (
	"context"
	"fmt"
	"strings"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/repository"

	"gorm.io/gorm"
)

// StatusService is the part status store. A part without a stored row is operational.
type StatusService struct {
	db           *gorm.DB
	computerRepo *repository.ComputerRepository
	statusRepo   *repository.StatusRepository
	reportRepo   *repository.ReportRepository
	userLabRepo  *repository.UserLabRepository
	auditRepo    *repository.AuditRepository
}

func NewStatusService(
	db *gorm.DB,
	computerRepo *repository.ComputerRepository,
	statusRepo *repository.StatusRepository,
	reportRepo *repository.ReportRepository,
	userLabRepo *repository.UserLabRepository,
	auditRepo *repository.AuditRepository,
) *StatusService {
	return &StatusService{
		db:           db,
		computerRepo: computerRepo,
		statusRepo:   statusRepo,
		reportRepo:   reportRepo,
		userLabRepo:  userLabRepo,
		auditRepo:    auditRepo,
	}
}

// StatusChange is one requested status write
type StatusChange struct {
	Part   string
	Kind   models.PartKind
	Status models.PartStatus
	Notes  string
	// ExpectedVersion, when set, must match the stored version (0 for no row yet)
	ExpectedVersion *uint

	suppressReport bool
}

// PartState is the effective status of one declared part
type PartState struct {
	RecordID   uint
	ComputerID uint
	Part       string
	Kind       models.PartKind
	Status     models.PartStatus
	Notes      string
	Version    uint
}

// StatusOutcome reports what a status write did
type StatusOutcome struct {
	State    PartState
	Previous models.PartStatus
	Changed  bool
	ReportID *uint
}

func (c *StatusChange) normalize() error {
	c.Part = strings.TrimSpace(c.Part)
	if c.Part == "" {
		return apperr.Validation("part is required")
	}
	if c.Kind == "" {
		c.Kind = models.PartStandard
	}
	if !c.Status.Valid() {
		return apperr.Validation("invalid status %q", c.Status)
	}
	return nil
}

// ensureLabScope rejects technicians writing outside their assigned labs
func (s *StatusService) ensureLabScope(ctx context.Context, tx *gorm.DB, actor access.Actor, labID uint) error {
	if actor.Role != models.RoleTechnician {
		return nil
	}
	ok, err := s.userLabRepo.WithTx(tx).UserCanWorkInLab(ctx, actor.UserID, labID)
	if err != nil {
		return apperr.Internal(err, "failed to verify laboratory access")
	}
	if !ok {
		return apperr.Forbidden("you are not assigned to laboratory %d", labID)
	}
	return nil
}

// GetStatus returns the status of one part, operational when never set
func (s *StatusService) GetStatus(ctx context.Context, actor access.Actor, computerID uint, part string, kind models.PartKind) (models.PartStatus, error) {
	if err := actor.Require(access.Read); err != nil {
		return "", err
	}
	computer, err := s.computerRepo.GetComputerByID(ctx, computerID)
	if err != nil {
		return "", storeError(err, "failed to load computer")
	}
	if !computer.HasPart(part, kind) {
		return "", apperr.NotFound("computer %q has no %s part %q", computer.PCName, kind, part)
	}
	rec, err := s.statusRepo.GetStatus(ctx, computerID, part, kind)
	if err != nil {
		return "", apperr.Internal(err, "failed to load status")
	}
	if rec == nil {
		return models.StatusOperational, nil
	}
	return rec.Status, nil
}

// SetStatus upserts the status of one part. Writing the status a part already
// has changes nothing. A transition into a fault opens an issue report.
func (s *StatusService) SetStatus(ctx context.Context, actor access.Actor, computerID uint, change StatusChange) (*StatusOutcome, error) {
	if err := actor.Require(access.WriteStatus); err != nil {
		return nil, err
	}
	if err := change.normalize(); err != nil {
		return nil, err
	}

	var outcome *StatusOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		computer, err := s.computerRepo.WithTx(tx).GetComputerByID(ctx, computerID)
		if err != nil {
			return err
		}
		if err := s.ensureLabScope(ctx, tx, actor, computer.LabID); err != nil {
			return err
		}
		outcome, err = s.applyStatus(ctx, tx, actor, computer, change)
		return err
	})
	if err != nil {
		return nil, storeError(err, "failed to update status")
	}

	if outcome.Changed {
		_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "status_update", fmt.Sprintf("Computer %d %s/%s: %s -> %s", computerID, change.Kind, change.Part, outcome.Previous, change.Status))
	}
	return outcome, nil
}

// applyStatus writes one status inside tx
func (s *StatusService) applyStatus(ctx context.Context, tx *gorm.DB, actor access.Actor, computer *models.Computer, change StatusChange) (*StatusOutcome, error) {
	if !computer.HasPart(change.Part, change.Kind) {
		return nil, apperr.Validation("computer %q has no %s part %q", computer.PCName, change.Kind, change.Part)
	}

	statuses := s.statusRepo.WithTx(tx)
	rec, err := statuses.GetStatus(ctx, computer.ID, change.Part, change.Kind)
	if err != nil {
		return nil, err
	}

	previous := models.StatusOperational
	var version uint
	if rec != nil {
		previous = rec.Status
		version = rec.Version
	}
	if change.ExpectedVersion != nil && *change.ExpectedVersion != version {
		return nil, apperr.Conflict("status of %s on computer %d is at version %d, not %d", change.Part, computer.ID, version, *change.ExpectedVersion)
	}

	outcome := &StatusOutcome{Previous: previous}
	if rec != nil && rec.Status == change.Status && (change.Notes == "" || change.Notes == rec.Notes) {
		outcome.State = stateOf(rec)
		return outcome, nil
	}

	updatedBy := &actor.UserID
	if rec == nil {
		rec = &models.PartStatusRecord{
			ComputerID: computer.ID,
			Part:       change.Part,
			Kind:       change.Kind,
			Status:     change.Status,
			Notes:      change.Notes,
			Version:    1,
			UpdatedBy:  updatedBy,
		}
		inserted, err := statuses.InsertStatus(ctx, rec)
		if err != nil {
			return nil, err
		}
		if !inserted {
			return nil, apperr.Conflict("status of %s on computer %d was written concurrently", change.Part, computer.ID)
		}
	} else {
		rec.Status = change.Status
		if change.Notes != "" {
			rec.Notes = change.Notes
		}
		rec.UpdatedBy = updatedBy
		updated, err := statuses.UpdateStatusIfVersion(ctx, rec, version)
		if err != nil {
			return nil, err
		}
		if !updated {
			return nil, apperr.Conflict("status of %s on computer %d was written concurrently", change.Part, computer.ID)
		}
		rec.Version = version + 1
	}

	outcome.State = stateOf(rec)
	outcome.Changed = true

	if change.Status.IsFault() && previous != change.Status && !change.suppressReport {
		report := &models.Report{
			ComputerID:       computer.ID,
			PartName:         change.Part,
			PartKind:         change.Kind,
			DetectedStatus:   change.Status,
			IssueDescription: change.Notes,
			State:            models.ReportOpen,
			SubmittedBy:      actor.Email,
		}
		if err := s.reportRepo.WithTx(tx).CreateReport(ctx, report); err != nil {
			return nil, err
		}
		outcome.ReportID = &report.ID
	}

	return outcome, nil
}

func stateOf(rec *models.PartStatusRecord) PartState {
	return PartState{
		RecordID:   rec.ID,
		ComputerID: rec.ComputerID,
		Part:       rec.Part,
		Kind:       rec.Kind,
		Status:     rec.Status,
		Notes:      rec.Notes,
		Version:    rec.Version,
	}
}

// declaredStates expands one computer's declared parts, filling parts
// without a stored row with the operational default
func declaredStates(computer *models.Computer, recs map[string]*models.PartStatusRecord, kind models.PartKind) []PartState {
	states := make([]PartState, 0, len(models.StandardPartNames)+len(computer.OtherParts.Data()))
	add := func(part string, k models.PartKind) {
		if rec, ok := recs[statusKey(computer.ID, part, k)]; ok {
			states = append(states, stateOf(rec))
			return
		}
		states = append(states, PartState{ComputerID: computer.ID, Part: part, Kind: k, Status: models.StatusOperational})
	}
	if kind == "" || kind == models.PartStandard {
		for _, part := range models.StandardPartNames {
			add(part, models.PartStandard)
		}
	}
	if kind == "" || kind == models.PartCustom {
		for _, p := range computer.OtherParts.Data() {
			add(p.Name, models.PartCustom)
		}
	}
	return states
}

func statusKey(computerID uint, part string, kind models.PartKind) string {
	return fmt.Sprintf("%d|%s|%s", computerID, kind, part)
}

func indexRecords(recs []models.PartStatusRecord) map[string]*models.PartStatusRecord {
	idx := make(map[string]*models.PartStatusRecord, len(recs))
	for i := range recs {
		idx[statusKey(recs[i].ComputerID, recs[i].Part, recs[i].Kind)] = &recs[i]
	}
	return idx
}

// ListStatusesForComputer returns the full standard and custom status map of one computer
func (s *StatusService) ListStatusesForComputer(ctx context.Context, actor access.Actor, computerID uint) ([]PartState, error) {
	if err := actor.Require(access.Read); err != nil {
		return nil, err
	}
	computer, err := s.computerRepo.GetComputerByID(ctx, computerID)
	if err != nil {
		return nil, storeError(err, "failed to load computer")
	}
	recs, err := s.statusRepo.ListStatusesForComputer(ctx, computerID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load statuses")
	}
	return declaredStates(computer, indexRecords(recs), ""), nil
}

// ListAllStatuses returns every declared part of every computer, reading
// computers and stored rows with one query each. kind narrows the result.
func (s *StatusService) ListAllStatuses(ctx context.Context, actor access.Actor, kind models.PartKind) ([]PartState, error) {
	if err := actor.Require(access.Read); err != nil {
		return nil, err
	}
	computers, err := s.computerRepo.ListComputers(ctx, 0)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list computers")
	}
	recs, err := s.statusRepo.ListStatuses(ctx, kind)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list statuses")
	}

	idx := indexRecords(recs)
	var states []PartState
	for i := range computers {
		states = append(states, declaredStates(&computers[i].Computer, idx, kind)...)
	}
	return states, nil
}

// ComputerSeverity is the worst status over a computer's parts
func (s *StatusService) ComputerSeverity(ctx context.Context, actor access.Actor, computerID uint) (models.PartStatus, error) {
	states, err := s.ListStatusesForComputer(ctx, actor, computerID)
	if err != nil {
		return "", err
	}
	return worstOf(states), nil
}

func worstOf(states []PartState) models.PartStatus {
	statuses := make([]models.PartStatus, 0, len(states))
	for _, st := range states {
		statuses = append(statuses, st.Status)
	}
	return models.MaxSeverity(statuses...)
}
