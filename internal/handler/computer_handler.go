package handler

import (
	"encoding/json"
	"net/http"

	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/service"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ComputerHandler struct {
	computerService *service.ComputerService
	statusService   *service.StatusService
}

func NewComputerHandler(computerService *service.ComputerService, statusService *service.StatusService) *ComputerHandler {
	return &ComputerHandler{
		computerService: computerService,
		statusService:   statusService,
	}
}

// ComputerRequest is one computer as the dashboard sends it; specs and
// other_parts may be JSON values or JSON-encoded strings
type ComputerRequest struct {
	LabID      flexID          `json:"lab_id"`
	PCName     string          `json:"pc_name"`
	Specs      json.RawMessage `json:"specs"`
	OtherParts json.RawMessage `json:"other_parts"`
}

func (r ComputerRequest) input() (service.ComputerInput, error) {
	in := service.ComputerInput{PCName: r.PCName}
	if err := flexJSON(r.Specs, &in.Specs); err != nil {
		return in, apperr.Validation("specs must be an object of standard parts")
	}
	if err := flexJSON(r.OtherParts, &in.OtherParts); err != nil {
		return in, apperr.Validation("other_parts must be a list of {name, serial}")
	}
	return in, nil
}

// BulkComputerRequest accepts either a generator (prefix, start_number, count)
// or an explicit list under data
type BulkComputerRequest struct {
	LabID       flexID            `json:"lab_id"`
	Prefix      string            `json:"prefix"`
	StartNumber int               `json:"start_number"`
	Count       int               `json:"count"`
	Specs       json.RawMessage   `json:"specs"`
	OtherParts  json.RawMessage   `json:"other_parts"`
	Data        []ComputerRequest `json:"data"`
}

type EditComputerRequest struct {
	PCName     *string         `json:"pc_name"`
	LabID      *flexID         `json:"lab_id"`
	Specs      json.RawMessage `json:"specs"`
	OtherParts json.RawMessage `json:"other_parts"`
}

type BulkDeleteRequest struct {
	IDs []flexID `json:"ids"`
}

type ComputerResponse struct {
	models.ComputerWithLab
	Name string `json:"name"`
}

// GetComputers lists computers, optionally narrowed by ?lab_id=
func (h *ComputerHandler) GetComputers(c *gin.Context) {
	labID, ok := queryID(c, "lab_id")
	if !ok {
		return
	}

	computers, err := h.computerService.ListComputers(c.Request.Context(), actor(c), labID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	result := make([]ComputerResponse, 0, len(computers))
	for _, computer := range computers {
		result = append(result, ComputerResponse{ComputerWithLab: computer, Name: computer.PCName})
	}
	utils.ListResponse(c, result)
}

// EditDataRow is the editor's view of one computer
type EditDataRow struct {
	ID         uint                 `json:"id"`
	PCName     string               `json:"pc_name"`
	Name       string               `json:"name"`
	LabName    string               `json:"lab_name"`
	LabID      uint                 `json:"lab_id"`
	Specs      models.StandardParts `json:"specs"`
	OtherParts []models.CustomPart  `json:"other_parts"`
}

// GetEditData lists every computer with the part metadata the edit form loads
func (h *ComputerHandler) GetEditData(c *gin.Context) {
	computers, err := h.computerService.ListComputers(c.Request.Context(), actor(c), 0)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	rows := make([]EditDataRow, 0, len(computers))
	for _, computer := range computers {
		others := computer.OtherParts.Data()
		if others == nil {
			others = []models.CustomPart{}
		}
		rows = append(rows, EditDataRow{
			ID:         computer.ID,
			PCName:     computer.PCName,
			Name:       computer.PCName,
			LabName:    computer.LabName,
			LabID:      computer.LabID,
			Specs:      computer.Specs.Data().Complete(),
			OtherParts: others,
		})
	}
	utils.ListResponse(c, rows)
}

// GetComputer returns one computer with its part statuses and aggregate severity
func (h *ComputerHandler) GetComputer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	computer, err := h.computerService.GetComputer(ctx, actor(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	states, err := h.statusService.ListStatusesForComputer(ctx, actor(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	rows := make([]StatusRow, 0, len(states))
	statuses := make([]models.PartStatus, 0, len(states))
	for _, st := range states {
		rows = append(rows, statusRow(st))
		statuses = append(statuses, st.Status)
	}
	severity := models.MaxSeverity(statuses...)

	utils.SuccessResponse(c, gin.H{
		"computer":     computer,
		"statuses":     rows,
		"severity":     severity,
		"severity_key": severity.Key(),
		"level":        severity.Severity(),
	})
}

// AddComputer places one computer in a laboratory
func (h *ComputerHandler) AddComputer(c *gin.Context) {
	var req ComputerRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}
	in, err := req.input()
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	computer, err := h.computerService.AddComputer(c.Request.Context(), actor(c), uint(req.LabID), in)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Computer added successfully",
		"computer_id": computer.ID,
		"computer":    computer,
	})
}

// AddComputersBulk creates many computers at once; nothing is created when any name collides
func (h *ComputerHandler) AddComputersBulk(c *gin.Context) {
	var req BulkComputerRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}
	ctx := c.Request.Context()

	var (
		created []*models.Computer
		err     error
	)
	if len(req.Data) > 0 {
		labID := uint(req.LabID)
		inputs := make([]service.ComputerInput, 0, len(req.Data))
		for _, item := range req.Data {
			if labID == 0 {
				labID = uint(item.LabID)
			}
			if item.LabID != 0 && uint(item.LabID) != labID {
				utils.HandleError(c, apperr.Validation("all computers of a bulk request must belong to one laboratory"))
				return
			}
			in, err := item.input()
			if err != nil {
				utils.HandleError(c, err)
				return
			}
			inputs = append(inputs, in)
		}
		created, err = h.computerService.AddComputersList(ctx, actor(c), labID, inputs)
	} else {
		tpl := service.BulkTemplate{
			Prefix:      req.Prefix,
			StartNumber: req.StartNumber,
			Count:       req.Count,
		}
		if err := flexJSON(req.Specs, &tpl.Specs); err != nil {
			utils.HandleError(c, apperr.Validation("specs must be an object of standard parts"))
			return
		}
		if err := flexJSON(req.OtherParts, &tpl.OtherParts); err != nil {
			utils.HandleError(c, apperr.Validation("other_parts must be a list of {name, serial}"))
			return
		}
		created, err = h.computerService.AddComputersBulk(ctx, actor(c), uint(req.LabID), tpl)
	}
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	inserted := make([]gin.H, 0, len(created))
	for _, computer := range created {
		inserted = append(inserted, gin.H{"id": computer.ID, "pc_name": computer.PCName})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"inserted": inserted,
		"count":    len(inserted),
	})
}

// UpdateEditData edits a computer's name, laboratory or declared parts
func (h *ComputerHandler) UpdateEditData(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req EditComputerRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	patch := service.ComputerPatch{PCName: req.PCName}
	if req.LabID != nil {
		labID := uint(*req.LabID)
		patch.LabID = &labID
	}
	if len(req.Specs) > 0 {
		var specs models.StandardParts
		if err := flexJSON(req.Specs, &specs); err != nil {
			utils.HandleError(c, apperr.Validation("specs must be an object of standard parts"))
			return
		}
		patch.Specs = &specs
	}
	if len(req.OtherParts) > 0 {
		others := []models.CustomPart{}
		if err := flexJSON(req.OtherParts, &others); err != nil {
			utils.HandleError(c, apperr.Validation("other_parts must be a list of {name, serial}"))
			return
		}
		patch.OtherParts = &others
	}

	computer, err := h.computerService.EditComputer(c.Request.Context(), actor(c), id, patch)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Computer updated successfully",
		"computer": computer,
	})
}

// DeleteComputer removes a computer with its statuses and reports
func (h *ComputerHandler) DeleteComputer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.computerService.DeleteComputer(c.Request.Context(), actor(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Computer deleted")
}

// DeleteComputersBulk removes many computers; unknown ids are reported as skipped
func (h *ComputerHandler) DeleteComputersBulk(c *gin.Context) {
	var req BulkDeleteRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	ids := make([]uint, 0, len(req.IDs))
	for _, id := range req.IDs {
		ids = append(ids, uint(id))
	}

	result, err := h.computerService.DeleteComputersBulk(c.Request.Context(), actor(c), ids)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deleted": result.Deleted,
		"skipped": result.Skipped,
	})
}
