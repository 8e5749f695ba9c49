package handler

import (
	"net/http"

	"lab-maintenance-backend/internal/service"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AccessoryHandler struct {
	accessoryService *service.AccessoryService
}

func NewAccessoryHandler(accessoryService *service.AccessoryService) *AccessoryHandler {
	return &AccessoryHandler{
		accessoryService: accessoryService,
	}
}

type AccessoryRequest struct {
	LabID    flexID  `json:"lab_id"`
	Name     string  `json:"name"`
	Quantity flexInt `json:"quantity"`
	Notes    string  `json:"notes"`
}

func (r AccessoryRequest) input() service.AccessoryInput {
	return service.AccessoryInput{
		LabID:    uint(r.LabID),
		Name:     r.Name,
		Quantity: int(r.Quantity),
		Notes:    r.Notes,
	}
}

// AddAccessoriesRequest takes one accessory or a list under items
type AddAccessoriesRequest struct {
	AccessoryRequest
	Items []AccessoryRequest `json:"items"`
}

// GetAccessories lists accessories, optionally narrowed by ?lab_id=
func (h *AccessoryHandler) GetAccessories(c *gin.Context) {
	labID, ok := queryID(c, "lab_id")
	if !ok {
		return
	}

	items, err := h.accessoryService.ListAccessories(c.Request.Context(), actor(c), labID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, items)
}

// AddAccessories stores one or more accessories
func (h *AccessoryHandler) AddAccessories(c *gin.Context) {
	var req AddAccessoriesRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	inputs := make([]service.AccessoryInput, 0, len(req.Items)+1)
	if len(req.Items) > 0 {
		for _, item := range req.Items {
			inputs = append(inputs, item.input())
		}
	} else {
		inputs = append(inputs, req.AccessoryRequest.input())
	}

	items, err := h.accessoryService.AddAccessories(c.Request.Context(), actor(c), inputs)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Accessory added successfully",
		"accessories": items,
	})
}

// UpdateAccessory replaces the values of one accessory
func (h *AccessoryHandler) UpdateAccessory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AccessoryRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	item, err := h.accessoryService.UpdateAccessory(c.Request.Context(), actor(c), id, req.input())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Accessory updated successfully",
		"accessory": item,
	})
}

// DeleteAccessory removes one accessory
func (h *AccessoryHandler) DeleteAccessory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.accessoryService.DeleteAccessory(c.Request.Context(), actor(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Accessory deleted successfully")
}
