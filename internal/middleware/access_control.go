package middleware

import (
	"net/http"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/session"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RequireCapability rejects callers whose role lacks any of caps.
// Services check again; this keeps forbidden requests away from body parsing.
func RequireCapability(caps ...access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c.Request.Context())
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		for _, capability := range caps {
			if err := sess.Actor.Require(capability); err != nil {
				utils.HandleError(c, err)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// RequireAnyCapability passes callers holding at least one of caps
func RequireAnyCapability(caps ...access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c.Request.Context())
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		for _, capability := range caps {
			if sess.Actor.Can(capability) {
				c.Next()
				return
			}
		}

		utils.ErrorResponse(c, http.StatusForbidden, "Access denied: your role cannot perform this operation")
		c.Abort()
	}
}
