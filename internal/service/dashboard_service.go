package service

import (
	"context"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/repository"
)

// DashboardService builds the read model behind the dashboard
type DashboardService struct {
	labRepo      *repository.LabRepository
	computerRepo *repository.ComputerRepository
	statusRepo   *repository.StatusRepository
	reportRepo   *repository.ReportRepository
	userRepo     *repository.UserRepository
	statuses     *StatusService
}

func NewDashboardService(
	labRepo *repository.LabRepository,
	computerRepo *repository.ComputerRepository,
	statusRepo *repository.StatusRepository,
	reportRepo *repository.ReportRepository,
	userRepo *repository.UserRepository,
	statuses *StatusService,
) *DashboardService {
	return &DashboardService{
		labRepo:      labRepo,
		computerRepo: computerRepo,
		statusRepo:   statusRepo,
		reportRepo:   reportRepo,
		userRepo:     userRepo,
		statuses:     statuses,
	}
}

type DashboardStats struct {
	Operational      int   `json:"operational"`
	NotOperational   int   `json:"notOperational"`
	Damaged          int   `json:"damaged"`
	Missing          int   `json:"missing"`
	TotalComputers   int64 `json:"totalComputers"`
	TotalLabs        int64 `json:"totalLabs"`
	ReportsSubmitted int64 `json:"reportsSubmitted"`
	TotalUsers       int64 `json:"totalUsers"`
}

// StatusTally counts parts per status label
type StatusTally map[string]int

func newTally() StatusTally {
	t := make(StatusTally, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		t[s.Key()] = 0
	}
	return t
}

type PartStatusSummary struct {
	Part     string          `json:"part"`
	Type     models.PartKind `json:"type"`
	Statuses StatusTally     `json:"statuses"`
}

type LabFaults struct {
	LabID   uint   `json:"lab_id"`
	LabName string `json:"lab_name"`
	Damaged int64  `json:"damaged"`
	Missing int64  `json:"missing"`
}

type ComputerSeverity struct {
	ComputerID  uint              `json:"computer_id"`
	PCName      string            `json:"pc_name"`
	LabName     string            `json:"lab_name"`
	Severity    models.PartStatus `json:"severity"`
	SeverityKey string            `json:"severity_key"`
	Level       int               `json:"level"`
}

type Dashboard struct {
	Stats              DashboardStats      `json:"stats"`
	ComputerPartStatus []PartStatusSummary `json:"computerPartStatus"`
	LabEquipments      []models.LabPCCount `json:"labEquipments"`
	DamageMissing      []LabFaults         `json:"damageMissing"`
	ComputerSeverity   []ComputerSeverity  `json:"computerSeverity"`
}

// Build gathers every dashboard aggregate. Part statuses come from a single
// pass over all declared parts, so parts without a stored row count as operational.
func (s *DashboardService) Build(ctx context.Context, actor access.Actor) (*Dashboard, error) {
	if err := actor.Require(access.Read); err != nil {
		return nil, err
	}

	states, err := s.statuses.ListAllStatuses(ctx, actor, "")
	if err != nil {
		return nil, err
	}
	computers, err := s.computerRepo.ListComputers(ctx, 0)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list computers")
	}

	d := &Dashboard{
		ComputerPartStatus: []PartStatusSummary{},
		DamageMissing:      []LabFaults{},
		ComputerSeverity:   make([]ComputerSeverity, 0, len(computers)),
	}

	overall := newTally()
	parts := make(map[string]*PartStatusSummary)
	var order []string
	worst := make(map[uint]models.PartStatus, len(computers))
	for _, st := range states {
		overall[st.Status.Key()]++

		key := string(st.Kind) + "|" + st.Part
		summary, ok := parts[key]
		if !ok {
			summary = &PartStatusSummary{Part: st.Part, Type: st.Kind, Statuses: newTally()}
			parts[key] = summary
			order = append(order, key)
		}
		summary.Statuses[st.Status.Key()]++

		worst[st.ComputerID] = models.MaxSeverity(worst[st.ComputerID], st.Status)
	}
	for _, key := range order {
		d.ComputerPartStatus = append(d.ComputerPartStatus, *parts[key])
	}

	for _, c := range computers {
		sev := models.MaxSeverity(worst[c.ID])
		d.ComputerSeverity = append(d.ComputerSeverity, ComputerSeverity{
			ComputerID:  c.ID,
			PCName:      c.PCName,
			LabName:     c.LabName,
			Severity:    sev,
			SeverityKey: sev.Key(),
			Level:       sev.Severity(),
		})
	}

	d.Stats.Operational = overall[models.StatusOperational.Key()]
	d.Stats.NotOperational = overall[models.StatusNotOperational.Key()]
	d.Stats.Damaged = overall[models.StatusDamaged.Key()]
	d.Stats.Missing = overall[models.StatusMissing.Key()]
	d.Stats.TotalComputers = int64(len(computers))

	if d.Stats.TotalLabs, err = s.labRepo.CountLabs(ctx); err != nil {
		return nil, apperr.Internal(err, "failed to count laboratories")
	}
	if d.Stats.ReportsSubmitted, err = s.reportRepo.CountReports(ctx); err != nil {
		return nil, apperr.Internal(err, "failed to count reports")
	}
	if d.Stats.TotalUsers, err = s.userRepo.CountUsers(ctx); err != nil {
		return nil, apperr.Internal(err, "failed to count users")
	}

	if d.LabEquipments, err = s.labRepo.PCCountByLab(ctx); err != nil {
		return nil, apperr.Internal(err, "failed to count computers per laboratory")
	}

	faults, err := s.statusRepo.CountFaultsByLab(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to count faults per laboratory")
	}
	byLab := make(map[uint]int)
	for _, f := range faults {
		if f.Status != models.StatusDamaged && f.Status != models.StatusMissing {
			continue
		}
		i, ok := byLab[f.LabID]
		if !ok {
			d.DamageMissing = append(d.DamageMissing, LabFaults{LabID: f.LabID, LabName: f.LabName})
			i = len(d.DamageMissing) - 1
			byLab[f.LabID] = i
		}
		if f.Status == models.StatusDamaged {
			d.DamageMissing[i].Damaged += f.Count
		} else {
			d.DamageMissing[i].Missing += f.Count
		}
	}

	return d, nil
}
