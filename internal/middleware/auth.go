package middleware

import (
	"context"
	"net/http"
	"strings"

	"lab-maintenance-backend/internal/session"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Authenticator turns a bearer token into a live session
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Session, error)
}

// AuthMiddleware validates the JWT access token from the Authorization header
// and attaches the session to the request context, whose deadline is the
// token expiry
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
			c.Abort()
			return
		}

		sess, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			utils.HandleError(c, err)
			c.Abort()
			return
		}

		ctx, cancel := session.WithSession(c.Request.Context(), sess)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("userID", sess.Actor.UserID)
		c.Set("role", string(sess.Actor.Role))

		c.Next()
	}
}

// CredentialGate blocks sessions that still carry the default admin
// credentials from every route except the listed ones
func CredentialGate(allowed ...string) gin.HandlerFunc {
	open := make(map[string]bool, len(allowed))
	for _, p := range allowed {
		open[p] = true
	}
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c.Request.Context())
		if !ok || !sess.NeedsCredentialUpdate || open[c.FullPath()] {
			c.Next()
			return
		}
		utils.ErrorResponse(c, http.StatusForbidden, "Default credentials must be updated before continuing")
		c.Abort()
	}
}
