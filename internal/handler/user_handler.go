package handler

import (
	"net/http"

	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/service"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
	Year     string `json:"year"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Year     *string `json:"year"`
}

type UpdateProfileRequest struct {
	Name            *string `json:"name"`
	Year            *string `json:"year"`
	Profile         *string `json:"profile"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

func userResponses(users []models.User) []service.UserResponse {
	out := make([]service.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, service.NewUserResponse(&users[i]))
	}
	return out
}

// RegisterUser creates an account of a role the caller manages
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.userService.RegisterUser(c.Request.Context(), actor(c), service.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Year:     req.Year,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    service.NewUserResponse(user),
	})
}

// GetUsers lists the accounts the caller may manage
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context(), actor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, userResponses(users))
}

// GetUser returns the caller's own account
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.authService.CurrentUser(c.Request.Context(), actor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser edits a managed account
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actor(c), id, service.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Year:     req.Year,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"user":    service.NewUserResponse(user),
	})
}

// DeleteUser removes a managed account by id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actor(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "User deleted successfully")
}

// DeleteUserByEmail removes a managed account by email
func (h *UserHandler) DeleteUserByEmail(c *gin.Context) {
	if err := h.userService.DeleteUserByEmail(c.Request.Context(), actor(c), c.Param("email")); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "User deleted successfully")
}

// UpdateProfile edits the caller's own account
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := bindBody(c, &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actor(c), service.ProfileUpdate{
		Name:            req.Name,
		Year:            req.Year,
		ProfileImage:    req.Profile,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"user":    service.NewUserResponse(user),
	})
}

// AssignLab scopes a technician to a laboratory
func (h *UserHandler) AssignLab(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	labID, ok := pathID(c, "lab_id")
	if !ok {
		return
	}

	if err := h.userService.AssignLab(c.Request.Context(), actor(c), userID, labID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Laboratory assigned")
}

// UnassignLab removes a technician's laboratory assignment
func (h *UserHandler) UnassignLab(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	labID, ok := pathID(c, "lab_id")
	if !ok {
		return
	}

	if err := h.userService.UnassignLab(c.Request.Context(), actor(c), userID, labID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Laboratory assignment removed")
}

// GetUserLabs lists the laboratories a user is scoped to
func (h *UserHandler) GetUserLabs(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	labs, err := h.userService.UserLabs(c.Request.Context(), actor(c), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, labs)
}
