package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/service"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

type AddReportRequest struct {
	ComputerID       flexID             `json:"computer_id"`
	PartName         string             `json:"part_name"`
	Item             string             `json:"item"`
	PartType         string             `json:"part_type"`
	Status           *models.PartStatus `json:"part_status"`
	IssueDescription string             `json:"issue_description"`
	Notes            string             `json:"notes"`
}

// summaryItem is one selected report of a dispatch; the dashboard sends the report id as com_id
type summaryItem struct {
	ID    flexID `json:"id"`
	ComID flexID `json:"com_id"`
}

type SendReportEmailRequest struct {
	Title     string        `json:"title"`
	Position  string        `json:"position"`
	ReportIDs []flexID      `json:"report_ids"`
	Summary   []summaryItem `json:"summary"`
}

type TechnicianReportRequest struct {
	ReportID    flexID             `json:"report_id" binding:"required"`
	ActionTaken string             `json:"action_taken"`
	StatusAfter *models.PartStatus `json:"status_after"`
	Status      *models.PartStatus `json:"status"`
}

// logRef is one selected log; clients send either the id or the whole log object
type logRef string

func (l *logRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*l = logRef(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*l = logRef(obj.ID)
	return nil
}

type TechnicianEmailRequest struct {
	Title       string   `json:"title"`
	LogIDs      []logRef `json:"log_ids"`
	IssueReport []logRef `json:"issue_report"`
}

// ReportResponse adds the camelCase label of the detected part status
type ReportResponse struct {
	models.ReportWithDetails
	PartStatusKey string `json:"part_status_key"`
}

// AddReport files a manual issue report
func (h *ReportHandler) AddReport(c *gin.Context) {
	var req AddReportRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	in := service.ManualReport{
		ComputerID: uint(req.ComputerID),
		PartName:   req.PartName,
		Issue:      req.IssueDescription,
	}
	if in.PartName == "" {
		in.PartName = req.Item
	}
	if in.Issue == "" {
		in.Issue = req.Notes
	}
	kind, err := models.ParsePartKind(req.PartType)
	if err != nil {
		utils.HandleError(c, apperr.Validation("%v", err))
		return
	}
	in.PartKind = kind
	if req.Status != nil {
		in.Status = *req.Status
	}

	report, err := h.reportService.CreateReport(c.Request.Context(), actor(c), in)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Report added successfully",
		"report":  report,
	})
}

// GetAdminComputerReports lists reports newest first; ?status= filters by state
func (h *ReportHandler) GetAdminComputerReports(c *gin.Context) {
	var states []models.ReportState
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			states = append(states, models.ReportState(strings.TrimSpace(s)))
		}
	}

	reports, err := h.reportService.ListReports(c.Request.Context(), actor(c), states...)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	result := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		result = append(result, ReportResponse{ReportWithDetails: r, PartStatusKey: r.DetectedStatus.Key()})
	}
	utils.ListResponse(c, result)
}

// SendReportEmail dispatches the selected open reports. Reports are marked
// sent only after the email went out.
func (h *ReportHandler) SendReportEmail(c *gin.Context) {
	var req SendReportEmailRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	ids := make([]uint, 0, len(req.ReportIDs)+len(req.Summary))
	for _, id := range req.ReportIDs {
		ids = append(ids, uint(id))
	}
	for _, item := range req.Summary {
		if item.ID != 0 {
			ids = append(ids, uint(item.ID))
		} else {
			ids = append(ids, uint(item.ComID))
		}
	}

	result, err := h.reportService.Dispatch(c.Request.Context(), actor(c), service.DispatchRequest{
		Title:     req.Title,
		Position:  req.Position,
		ReportIDs: ids,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Email sent successfully",
		"sent":       result.Sent,
		"recipients": result.Recipients,
	})
}

// SubmitTechnicianReport logs a repair and applies status_after to the part
func (h *ReportHandler) SubmitTechnicianReport(c *gin.Context) {
	var req TechnicianReportRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	statusAfter := req.StatusAfter
	if statusAfter == nil {
		statusAfter = req.Status
	}
	if statusAfter == nil {
		utils.HandleError(c, apperr.Validation("status_after is required"))
		return
	}

	outcome, err := h.reportService.SubmitTechnicianLog(c.Request.Context(), actor(c), service.TechnicianLogInput{
		ReportID:    uint(req.ReportID),
		ActionTaken: req.ActionTaken,
		StatusAfter: *statusAfter,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Report submitted successfully",
		"log":             outcome.Log,
		"report_status":   outcome.ReportState,
		"part_status":     outcome.PartStatus,
		"part_status_key": outcome.PartStatus.Key(),
	})
}

// GetTechnicianLogs lists technician logs; technicians see their own
func (h *ReportHandler) GetTechnicianLogs(c *gin.Context) {
	logs, err := h.reportService.ListTechnicianLogs(c.Request.Context(), actor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, logs)
}

// GetReportLogs lists the technician logs of one report
func (h *ReportHandler) GetReportLogs(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	logs, err := h.reportService.ReportLogs(c.Request.Context(), actor(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, logs)
}

// TechnicianSendReportEmail emails a batch of technician logs
func (h *ReportHandler) TechnicianSendReportEmail(c *gin.Context) {
	var req TechnicianEmailRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	ids := make([]string, 0, len(req.LogIDs)+len(req.IssueReport))
	for _, ref := range append(req.LogIDs, req.IssueReport...) {
		if ref != "" {
			ids = append(ids, string(ref))
		}
	}

	if err := h.reportService.SendTechnicianLogs(c.Request.Context(), actor(c), service.LogDispatchRequest{
		Title:  req.Title,
		LogIDs: ids,
	}); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Email sent successfully")
}

// DeleteReport removes one report, or every report when the id is ALL
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	raw := c.Param("id")
	if raw == "ALL" {
		deleted, err := h.reportService.DeleteAllReports(c.Request.Context(), actor(c))
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "All reports deleted",
			"deleted": deleted,
		})
		return
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid report id")
		return
	}
	if err := h.reportService.DeleteReport(c.Request.Context(), actor(c), uint(id)); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Report deleted")
}
