package handler

import (
	"net/http"
	"strings"

	"lab-maintenance-backend/internal/service"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateDefaultAdminRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(
		refreshCookie,
		token,
		int(utils.GetRefreshTokenExpiry().Seconds()),
		"/",
		"",
		false, // secure (set to true in production with HTTPS)
		true,
	)
}

func clearRefreshCookie(c *gin.Context) {
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
}

func writeTokens(c *gin.Context, resp *service.LoginResponse) {
	setRefreshCookie(c, resp.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"access_token": resp.AccessToken,
		"expires_at":   resp.ExpiresAt,
		"user":         resp.User,
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindBody(c, &req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	writeTokens(c, resp)
}

// Refresh generates a new access token from the refresh cookie
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil || refreshToken == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	resp, err := h.authService.RefreshAccessToken(c.Request.Context(), refreshToken)
	if err != nil {
		clearRefreshCookie(c)
		utils.HandleError(c, err)
		return
	}

	writeTokens(c, resp)
}

// Logout revokes the access token and the refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshCookie)

	if err := h.authService.Logout(c.Request.Context(), currentSession(c), refreshToken); err != nil {
		utils.HandleError(c, err)
		return
	}

	clearRefreshCookie(c)
	utils.MessageResponse(c, "Logged out successfully")
}

// CheckSession reports whether the bearer token still names a live session.
// It answers 200 either way so the client can branch on logged_in.
func (h *AuthHandler) CheckSession(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"logged_in": false})
		return
	}

	sess, err := h.authService.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"logged_in": false})
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), sess.Actor)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"logged_in": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logged_in":  true,
		"user":       user,
		"expires_at": sess.ExpiresAt,
	})
}

// CheckDefaultCredentials tells the client whether to force the credential update flow
func (h *AuthHandler) CheckDefaultCredentials(c *gin.Context) {
	state, err := h.authService.CheckDefaultCredentials(c.Request.Context(), actor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// UpdateDefaultAdmin replaces the placeholder admin credentials
func (h *AuthHandler) UpdateDefaultAdmin(c *gin.Context) {
	var req UpdateDefaultAdminRequest
	if err := bindBody(c, &req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	resp, err := h.authService.UpdateDefaultAdmin(c.Request.Context(), currentSession(c), service.CredentialUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	setRefreshCookie(c, resp.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Admin credentials updated successfully",
		"access_token": resp.AccessToken,
		"expires_at":   resp.ExpiresAt,
		"user":         resp.User,
	})
}
