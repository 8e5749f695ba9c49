package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/service"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	statusService     *service.StatusService
	reconcilerService *service.ReconcilerService
}

func NewStatusHandler(statusService *service.StatusService, reconcilerService *service.ReconcilerService) *StatusHandler {
	return &StatusHandler{
		statusService:     statusService,
		reconcilerService: reconcilerService,
	}
}

// StatusRow is the flat status shape every status-returning endpoint uses.
// status is the numeric code, status_label the stored value and status_key
// the camelCase label.
type StatusRow struct {
	ID          uint            `json:"id"`
	ComID       uint            `json:"com_id"`
	ComputerID  uint            `json:"computer_id"`
	Part        string          `json:"part"`
	Name        string          `json:"name"`
	Type        models.PartKind `json:"type"`
	Status      int             `json:"status"`
	StatusLabel string          `json:"status_label"`
	StatusKey   string          `json:"status_key"`
	Notes       string          `json:"notes"`
	Version     uint            `json:"version"`
}

func statusRow(st service.PartState) StatusRow {
	return StatusRow{
		ID:          st.RecordID,
		ComID:       st.ComputerID,
		ComputerID:  st.ComputerID,
		Part:        st.Part,
		Name:        st.Part,
		Type:        st.Kind,
		Status:      st.Status.Code(),
		StatusLabel: string(st.Status),
		StatusKey:   st.Status.Key(),
		Notes:       st.Notes,
		Version:     st.Version,
	}
}

func statusRows(states []service.PartState) []StatusRow {
	rows := make([]StatusRow, 0, len(states))
	for _, st := range states {
		rows = append(rows, statusRow(st))
	}
	return rows
}

// statusEntry is one part's requested change. Clients send either the bare
// status or an object {status, type, name, notes, version}.
type statusEntry struct {
	Status  models.PartStatus `json:"status"`
	Type    string            `json:"type"`
	Name    string            `json:"name"`
	Notes   string            `json:"notes"`
	Version *uint             `json:"version"`
}

func (e *statusEntry) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '{' {
		type plain statusEntry
		var v plain
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*e = statusEntry(v)
		return nil
	}
	*e = statusEntry{}
	return json.Unmarshal(b, &e.Status)
}

func (e statusEntry) target(part string, fallback models.PartKind) (service.BulkTarget, error) {
	kind := fallback
	if e.Type != "" {
		parsed, err := models.ParsePartKind(e.Type)
		if err != nil {
			return service.BulkTarget{}, apperr.Validation("%v", err)
		}
		kind = parsed
	}
	return service.BulkTarget{
		Part:            part,
		Kind:            kind,
		Status:          e.Status,
		NewName:         e.Name,
		Notes:           e.Notes,
		ExpectedVersion: e.Version,
	}, nil
}

// UpdateStatusRequest covers the single-part form and the per-computer map form
type UpdateStatusRequest struct {
	ComID          flexID                 `json:"com_id"`
	CompID         flexID                 `json:"compId"`
	Part           string                 `json:"part"`
	Type           string                 `json:"type"`
	Status         *models.PartStatus     `json:"status"`
	Notes          string                 `json:"notes"`
	Version        *uint                  `json:"version"`
	Statuses       map[string]statusEntry `json:"statuses"`
	CompOtherParts map[string]statusEntry `json:"compOtherParts"`
}

type BulkStatusRequest struct {
	Statuses map[string]map[string]statusEntry `json:"statuses"`
}

func writeBulkResult(c *gin.Context, result *service.BulkResult) {
	c.JSON(http.StatusOK, gin.H{
		"success": result.Failed == 0,
		"updated": result.Updated,
		"failed":  result.Failed,
		"results": result.Results,
	})
}

// GetComputerStatuses lists the status of every declared part of every
// computer; ?type= narrows it to standard or custom parts
func (h *StatusHandler) GetComputerStatuses(c *gin.Context) {
	var kind models.PartKind
	if raw := c.Query("type"); raw != "" {
		parsed, err := models.ParsePartKind(raw)
		if err != nil {
			utils.HandleError(c, apperr.Validation("%v", err))
			return
		}
		kind = parsed
	}

	states, err := h.statusService.ListAllStatuses(c.Request.Context(), actor(c), kind)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, statusRows(states))
}

// GetOtherPartStatus lists the status of every custom part
func (h *StatusHandler) GetOtherPartStatus(c *gin.Context) {
	states, err := h.statusService.ListAllStatuses(c.Request.Context(), actor(c), models.PartCustom)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, statusRows(states))
}

// GetComputerPartStatuses lists one computer's statuses
func (h *StatusHandler) GetComputerPartStatuses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	states, err := h.statusService.ListStatusesForComputer(c.Request.Context(), actor(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, statusRows(states))
}

// UpdateComputerStatus writes one part status, or every part of one computer
// when the map form is used
func (h *StatusHandler) UpdateComputerStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	computerID := uint(req.ComID)
	if computerID == 0 {
		computerID = uint(req.CompID)
	}
	if computerID == 0 {
		utils.HandleError(c, apperr.Validation("com_id is required"))
		return
	}

	if len(req.Statuses) > 0 || len(req.CompOtherParts) > 0 {
		targets := make([]service.BulkTarget, 0, len(req.Statuses)+len(req.CompOtherParts))
		for part, entry := range req.Statuses {
			t, err := entry.target(part, models.PartStandard)
			if err != nil {
				utils.HandleError(c, err)
				return
			}
			targets = append(targets, t)
		}
		for part, entry := range req.CompOtherParts {
			t, err := entry.target(part, models.PartCustom)
			if err != nil {
				utils.HandleError(c, err)
				return
			}
			targets = append(targets, t)
		}

		result, err := h.reconcilerService.Reconcile(c.Request.Context(), actor(c), map[uint][]service.BulkTarget{computerID: targets})
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		writeBulkResult(c, result)
		return
	}

	if req.Status == nil {
		utils.HandleError(c, apperr.Validation("status is required"))
		return
	}
	kind, err := models.ParsePartKind(req.Type)
	if err != nil {
		utils.HandleError(c, apperr.Validation("%v", err))
		return
	}

	outcome, err := h.statusService.SetStatus(c.Request.Context(), actor(c), computerID, service.StatusChange{
		Part:            req.Part,
		Kind:            kind,
		Status:          *req.Status,
		Notes:           req.Notes,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Status updated",
		"changed":   outcome.Changed,
		"previous":  outcome.Previous.Key(),
		"status":    statusRow(outcome.State),
		"report_id": outcome.ReportID,
	})
}

// UpdateComputerStatusBulk applies {statuses: {computer id: {part: change}}}.
// Each target commits on its own; the response lists every outcome.
func (h *StatusHandler) UpdateComputerStatusBulk(c *gin.Context) {
	var req BulkStatusRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	batch := make(map[uint][]service.BulkTarget, len(req.Statuses))
	for rawID, parts := range req.Statuses {
		id, err := strconv.ParseUint(rawID, 10, 32)
		if err != nil {
			utils.HandleError(c, apperr.Validation("invalid computer id %q", rawID))
			return
		}
		targets := make([]service.BulkTarget, 0, len(parts))
		for part, entry := range parts {
			t, err := entry.target(part, models.PartStandard)
			if err != nil {
				utils.HandleError(c, err)
				return
			}
			targets = append(targets, t)
		}
		batch[uint(id)] = targets
	}

	result, err := h.reconcilerService.Reconcile(c.Request.Context(), actor(c), batch)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	writeBulkResult(c, result)
}
