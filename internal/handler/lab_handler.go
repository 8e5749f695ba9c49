package handler

import (
	"net/http"

	"lab-maintenance-backend/internal/service"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type LabHandler struct {
	labService *service.LabService
}

func NewLabHandler(labService *service.LabService) *LabHandler {
	return &LabHandler{
		labService: labService,
	}
}

type LabRequest struct {
	LabName  *string `json:"lab_name"`
	Location *string `json:"location"`
}

// LabResponse carries both the legacy and the plain field names the dashboard reads
type LabResponse struct {
	LabID    uint   `json:"lab_id"`
	ID       uint   `json:"id"`
	LabName  string `json:"lab_name"`
	Name     string `json:"name"`
	Location string `json:"location"`
	PCCount  int64  `json:"pc_count"`
}

// GetLaboratories lists every laboratory ordered by name with its computer count
func (h *LabHandler) GetLaboratories(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.labService.PCCountByLab(ctx, actor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	pcCount := make(map[uint]int64, len(counts))
	for _, row := range counts {
		pcCount[row.LabID] = row.PCCount
	}

	labs, err := h.labService.ListLabs(ctx, actor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	result := []LabResponse{}
	for lab, err := range labs {
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		result = append(result, LabResponse{
			LabID:    lab.ID,
			ID:       lab.ID,
			LabName:  lab.Name,
			Name:     lab.Name,
			Location: lab.Location,
			PCCount:  pcCount[lab.ID],
		})
	}

	utils.ListResponse(c, result)
}

// AddLaboratory creates a laboratory
func (h *LabHandler) AddLaboratory(c *gin.Context) {
	var req LabRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	var name, location string
	if req.LabName != nil {
		name = *req.LabName
	}
	if req.Location != nil {
		location = *req.Location
	}

	lab, err := h.labService.CreateLab(c.Request.Context(), actor(c), name, location)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, LabResponse{
		LabID:    lab.ID,
		ID:       lab.ID,
		LabName:  lab.Name,
		Name:     lab.Name,
		Location: lab.Location,
	})
}

// EditLab renames or relocates a laboratory
func (h *LabHandler) EditLab(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req LabRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	lab, err := h.labService.RenameOrRelocate(c.Request.Context(), actor(c), id, req.LabName, req.Location)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Lab updated successfully",
		"lab_id":   lab.ID,
		"name":     lab.Name,
		"location": lab.Location,
	})
}

// DeleteLab removes a laboratory by name
func (h *LabHandler) DeleteLab(c *gin.Context) {
	if err := h.labService.DeleteLab(c.Request.Context(), actor(c), c.Param("name")); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Lab deleted")
}

// LabsPCCount returns the number of computers per laboratory
func (h *LabHandler) LabsPCCount(c *gin.Context) {
	counts, err := h.labService.PCCountByLab(c.Request.Context(), actor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, counts)
}
