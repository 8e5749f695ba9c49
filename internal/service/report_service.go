package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/notify"
	"lab-maintenance-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportService drives the issue report lifecycle:
// open -> queued (dispatch) -> actioned / resolved (technician log).
type ReportService struct {
	db           *gorm.DB
	computerRepo *repository.ComputerRepository
	reportRepo   *repository.ReportRepository
	logRepo      *repository.TechnicianLogRepository
	statuses     *StatusService
	auditRepo    *repository.AuditRepository
	sender       notify.Sender
	recipients   []string
	now          func() time.Time
}

func NewReportService(
	db *gorm.DB,
	computerRepo *repository.ComputerRepository,
	reportRepo *repository.ReportRepository,
	logRepo *repository.TechnicianLogRepository,
	statuses *StatusService,
	auditRepo *repository.AuditRepository,
	sender notify.Sender,
	recipients []string,
) *ReportService {
	return &ReportService{
		db:           db,
		computerRepo: computerRepo,
		reportRepo:   reportRepo,
		logRepo:      logRepo,
		statuses:     statuses,
		auditRepo:    auditRepo,
		sender:       sender,
		recipients:   recipients,
		now:          time.Now,
	}
}

// ManualReport is an issue raised by hand rather than by a status change
type ManualReport struct {
	ComputerID uint
	PartName   string
	PartKind   models.PartKind
	Status     models.PartStatus
	Issue      string
}

// CreateReport files a manual issue report against a declared part
func (s *ReportService) CreateReport(ctx context.Context, actor access.Actor, in ManualReport) (*models.Report, error) {
	if err := actor.Require(access.WriteReport); err != nil {
		return nil, err
	}
	in.PartName = strings.TrimSpace(in.PartName)
	if in.PartName == "" {
		return nil, apperr.Validation("part_name is required")
	}
	if in.PartKind == "" {
		in.PartKind = models.PartStandard
	}

	computer, err := s.computerRepo.GetComputerByID(ctx, in.ComputerID)
	if err != nil {
		return nil, storeError(err, "failed to load computer")
	}
	if !computer.HasPart(in.PartName, in.PartKind) {
		return nil, apperr.Validation("computer %q has no %s part %q", computer.PCName, in.PartKind, in.PartName)
	}

	detected := in.Status
	if detected == "" {
		current, err := s.currentStatus(ctx, computer.ID, in.PartName, in.PartKind)
		if err != nil {
			return nil, err
		}
		detected = current
	}
	if !detected.Valid() {
		return nil, apperr.Validation("invalid status %q", detected)
	}

	report := &models.Report{
		ComputerID:       computer.ID,
		PartName:         in.PartName,
		PartKind:         in.PartKind,
		DetectedStatus:   detected,
		IssueDescription: strings.TrimSpace(in.Issue),
		State:            models.ReportOpen,
		SubmittedBy:      actor.Email,
	}
	if err := s.reportRepo.CreateReport(ctx, report); err != nil {
		return nil, apperr.Internal(err, "failed to create report")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "report_create", fmt.Sprintf("Report %d filed for computer %d part %s", report.ID, computer.ID, report.PartName))

	return report, nil
}

func (s *ReportService) currentStatus(ctx context.Context, computerID uint, part string, kind models.PartKind) (models.PartStatus, error) {
	rec, err := s.statuses.statusRepo.GetStatus(ctx, computerID, part, kind)
	if err != nil {
		return "", apperr.Internal(err, "failed to load status")
	}
	if rec == nil {
		return models.StatusOperational, nil
	}
	return rec.Status, nil
}

// ListReports returns every report newest first with computer and lab names
func (s *ReportService) ListReports(ctx context.Context, actor access.Actor, states ...models.ReportState) ([]models.ReportWithDetails, error) {
	if err := actor.Require(access.ReadReports); err != nil {
		return nil, err
	}
	reports, err := s.reportRepo.ListReports(ctx, states...)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list reports")
	}
	return reports, nil
}

// DispatchRequest selects open reports for one outbound email
type DispatchRequest struct {
	Title     string
	Position  string
	ReportIDs []uint
}

// DispatchResult lists the reports the email carried
type DispatchResult struct {
	Sent       []uint   `json:"sent"`
	Recipients []string `json:"recipients"`
}

// Dispatch queues the selected reports, emails them and marks them sent.
// When delivery fails the reports return to open so they can be retried.
func (s *ReportService) Dispatch(ctx context.Context, actor access.Actor, req DispatchRequest) (*DispatchResult, error) {
	if err := actor.Require(access.DispatchReports); err != nil {
		return nil, err
	}
	ids := uniqueIDs(req.ReportIDs)
	if len(ids) == 0 {
		return nil, apperr.Validation("no reports selected")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Lab Report Summary"
	}

	var reports []models.ReportWithDetails
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.reportRepo.WithTx(tx)
		var err error
		reports, err = repo.GetReportsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if missing := missingIDs(ids, reports); len(missing) > 0 {
			return apperr.NotFound("reports not found: %v", missing)
		}
		for _, r := range reports {
			if r.Sent {
				return apperr.Conflict("report %d has already been sent", r.ID)
			}
			if r.State != models.ReportOpen {
				return apperr.Conflict("report %d is %s and cannot be dispatched", r.ID, r.State)
			}
		}
		moved, err := repo.SetState(ctx, ids, models.ReportQueued, models.ReportOpen)
		if err != nil {
			return err
		}
		if moved != int64(len(ids)) {
			return apperr.Conflict("reports changed while being queued")
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "failed to queue reports")
	}

	batch := notify.ReportBatch{
		Title:       title,
		Position:    req.Position,
		SenderName:  actor.Name,
		SenderEmail: actor.Email,
	}
	for _, r := range reports {
		batch.Reports = append(batch.Reports, notify.ReportLine{
			ReportID:  r.ID,
			PCName:    r.PCName,
			LabName:   r.LabName,
			PartName:  r.PartName,
			Status:    string(r.DetectedStatus),
			Issue:     r.IssueDescription,
			CreatedAt: r.CreatedAt,
		})
	}

	recipients := s.recipientsFor(actor)
	sendErr := s.send(ctx, recipients, func() (notify.Message, error) { return notify.RenderReportBatch(batch) })
	if sendErr != nil {
		// the request context may already be gone; the revert must still land
		revertCtx := context.WithoutCancel(ctx)
		if _, err := s.reportRepo.SetState(revertCtx, ids, models.ReportOpen, models.ReportQueued); err != nil {
			log.Printf("Failed to return reports %v to open after dispatch error: %v", ids, err)
		}
		return nil, apperr.Upstream(sendErr, "failed to send report email")
	}

	if err := s.reportRepo.MarkSent(context.WithoutCancel(ctx), ids, s.now().UTC()); err != nil {
		return nil, apperr.Internal(err, "report email sent but reports could not be marked")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "report_dispatch", fmt.Sprintf("Dispatched reports %v to %s", ids, strings.Join(recipients, ", ")))

	return &DispatchResult{Sent: ids, Recipients: recipients}, nil
}

func (s *ReportService) recipientsFor(actor access.Actor) []string {
	if len(s.recipients) > 0 {
		return s.recipients
	}
	if actor.Email != "" {
		return []string{actor.Email}
	}
	return nil
}

func (s *ReportService) send(ctx context.Context, to []string, render func() (notify.Message, error)) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients configured")
	}
	msg, err := render()
	if err != nil {
		return err
	}
	msg.To = to
	return s.sender.Send(ctx, msg)
}

// TechnicianLogInput is one repair action against a report
type TechnicianLogInput struct {
	ReportID    uint
	ActionTaken string
	StatusAfter models.PartStatus
}

// TechnicianLogOutcome is the stored log and the state the report moved to
type TechnicianLogOutcome struct {
	Log         models.TechnicianLog `json:"log"`
	ReportState models.ReportState   `json:"report_status"`
	PartStatus  models.PartStatus    `json:"part_status"`
}

// SubmitTechnicianLog records a repair and applies status_after to the part in
// the same transaction. An operational part resolves the report.
func (s *ReportService) SubmitTechnicianLog(ctx context.Context, actor access.Actor, in TechnicianLogInput) (*TechnicianLogOutcome, error) {
	if err := actor.Require(access.WriteReport); err != nil {
		return nil, err
	}
	action := strings.TrimSpace(in.ActionTaken)
	if action == "" {
		return nil, apperr.Validation("action_taken is required")
	}
	if !in.StatusAfter.Valid() {
		return nil, apperr.Validation("invalid status_after %q", in.StatusAfter)
	}

	outcome := &TechnicianLogOutcome{PartStatus: in.StatusAfter}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reports := s.reportRepo.WithTx(tx)
		report, err := reports.GetReportByID(ctx, in.ReportID)
		if err != nil {
			return err
		}
		if report.State == models.ReportResolved {
			return apperr.Conflict("report %d is already resolved", report.ID)
		}

		computer, err := s.computerRepo.WithTx(tx).GetComputerByID(ctx, report.ComputerID)
		if err != nil {
			return err
		}
		if err := s.statuses.ensureLabScope(ctx, tx, actor, computer.LabID); err != nil {
			return err
		}

		if _, err := s.statuses.applyStatus(ctx, tx, actor, computer, StatusChange{
			Part:           report.PartName,
			Kind:           report.PartKind,
			Status:         in.StatusAfter,
			suppressReport: true,
		}); err != nil {
			return err
		}

		outcome.Log = models.TechnicianLog{
			ID:             uuid.NewString(),
			ReportID:       report.ID,
			TechnicianID:   actor.UserID,
			TechnicianName: actor.Name,
			ActionTaken:    action,
			StatusAfter:    in.StatusAfter,
		}
		if err := s.logRepo.WithTx(tx).CreateLog(ctx, &outcome.Log); err != nil {
			return err
		}

		outcome.ReportState = models.ReportActioned
		if in.StatusAfter == models.StatusOperational {
			outcome.ReportState = models.ReportResolved
		}
		_, err = reports.SetState(ctx, []uint{report.ID}, outcome.ReportState)
		return err
	})
	if err != nil {
		return nil, storeError(err, "failed to submit technician report")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "technician_log", fmt.Sprintf("Report %d %s: %s (part now %s)", in.ReportID, outcome.ReportState, action, in.StatusAfter))

	return outcome, nil
}

// ListTechnicianLogs returns log entries; technicians only see their own
func (s *ReportService) ListTechnicianLogs(ctx context.Context, actor access.Actor) ([]repository.TechnicianLogDetails, error) {
	if err := actor.Require(access.ReadReports); err != nil {
		return nil, err
	}
	var technicianID uint
	if actor.Role == models.RoleTechnician {
		technicianID = actor.UserID
	}
	logs, err := s.logRepo.ListLogs(ctx, technicianID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list technician logs")
	}
	return logs, nil
}

// ReportLogs returns the technician log history of one report
func (s *ReportService) ReportLogs(ctx context.Context, actor access.Actor, reportID uint) ([]models.TechnicianLog, error) {
	if err := actor.Require(access.ReadReports); err != nil {
		return nil, err
	}
	if _, err := s.reportRepo.GetReportByID(ctx, reportID); err != nil {
		return nil, storeError(err, "failed to load report")
	}
	logs, err := s.logRepo.ListLogsForReport(ctx, reportID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list technician logs")
	}
	return logs, nil
}

// LogDispatchRequest selects technician log entries for a summary email
type LogDispatchRequest struct {
	Title  string
	LogIDs []string
}

// SendTechnicianLogs emails a summary of technician log entries. Logs carry no
// sent flag, so the same entries may be sent again.
func (s *ReportService) SendTechnicianLogs(ctx context.Context, actor access.Actor, req LogDispatchRequest) error {
	if !actor.Can(access.WriteReport) && !actor.Can(access.DispatchReports) {
		return apperr.Forbidden("role %q is not allowed to send technician reports", actor.Role)
	}
	if len(req.LogIDs) == 0 {
		return apperr.Validation("no logs selected")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Technician Report"
	}

	logs, err := s.logRepo.GetLogsByIDs(ctx, req.LogIDs)
	if err != nil {
		return apperr.Internal(err, "failed to load technician logs")
	}
	if len(logs) == 0 {
		return apperr.NotFound("none of the selected logs exist")
	}

	batch := notify.LogBatch{Title: title, SenderName: actor.Name, SenderEmail: actor.Email}
	for _, l := range logs {
		batch.Logs = append(batch.Logs, notify.LogLine{
			PCName:      l.PCName,
			LabName:     l.LabName,
			PartName:    l.PartName,
			ActionTaken: l.ActionTaken,
			StatusAfter: string(l.StatusAfter),
			Technician:  l.TechnicianName,
			CreatedAt:   l.CreatedAt,
		})
	}

	recipients := s.recipientsFor(actor)
	if err := s.send(ctx, recipients, func() (notify.Message, error) { return notify.RenderLogBatch(batch) }); err != nil {
		return apperr.Upstream(err, "failed to send technician report email")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "technician_log_dispatch", fmt.Sprintf("Sent %d technician logs to %s", len(logs), strings.Join(recipients, ", ")))
	return nil
}

// DeleteReport removes one report with its technician logs
func (s *ReportService) DeleteReport(ctx context.Context, actor access.Actor, id uint) error {
	if err := actor.Require(access.WriteReport); err != nil {
		return err
	}
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = s.reportRepo.WithTx(tx).DeleteReport(ctx, id)
		return err
	})
	if err != nil {
		return apperr.Internal(err, "failed to delete report")
	}
	if deleted == 0 {
		return apperr.NotFound("report %d not found", id)
	}
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "report_delete", fmt.Sprintf("Deleted report %d", id))
	return nil
}

// DeleteAllReports clears every report; admins only
func (s *ReportService) DeleteAllReports(ctx context.Context, actor access.Actor) (int64, error) {
	if actor.Role != models.RoleAdmin {
		return 0, apperr.Forbidden("only administrators can delete all reports")
	}
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = s.reportRepo.WithTx(tx).DeleteAllReports(ctx)
		return err
	})
	if err != nil {
		return 0, apperr.Internal(err, "failed to delete reports")
	}
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "report_delete_all", fmt.Sprintf("Deleted all %d reports", deleted))
	return deleted, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []uint, found []models.ReportWithDetails) []uint {
	present := make(map[uint]bool, len(found))
	for _, r := range found {
		present[r.ID] = true
	}
	var missing []uint
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
