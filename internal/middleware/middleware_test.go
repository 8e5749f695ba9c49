package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth map[string]*session.Session

func (s stubAuth) Authenticate(_ context.Context, token string) (*session.Session, error) {
	if sess, ok := s[token]; ok {
		return sess, nil
	}
	return nil, apperr.Unauthorized("invalid or expired token")
}

func newEngine(auth Authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(auth)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		sess, _ := session.FromContext(c.Request.Context())
		c.String(http.StatusOK, string(sess.Actor.Role))
	})
	r.GET("/thing", handlers...)
	r.GET("/open", handlers...)
	return r
}

func get(r http.Handler, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionFor(role models.Role) *session.Session {
	return &session.Session{
		Actor:     access.Actor{UserID: 1, Role: role},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine(stubAuth{"good": sessionFor(models.RoleDean)})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/thing", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/thing", "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/thing", "Bearer bad").Code)

	rec := get(r, "/thing", "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dean", rec.Body.String())
}

func TestRequireCapability(t *testing.T) {
	auth := stubAuth{
		"admin": sessionFor(models.RoleAdmin),
		"tech":  sessionFor(models.RoleTechnician),
	}
	r := newEngine(auth, RequireCapability(access.WriteLab))

	assert.Equal(t, http.StatusOK, get(r, "/thing", "Bearer admin").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/thing", "Bearer tech").Code)
}

func TestRequireAnyCapability(t *testing.T) {
	auth := stubAuth{
		"itsd": sessionFor(models.RoleITSD),
		"tech": sessionFor(models.RoleTechnician),
		"dean": sessionFor(models.RoleDean),
	}
	r := newEngine(auth, RequireAnyCapability(access.WriteReport, access.DispatchReports))

	assert.Equal(t, http.StatusOK, get(r, "/thing", "Bearer itsd").Code)
	assert.Equal(t, http.StatusOK, get(r, "/thing", "Bearer tech").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/thing", "Bearer dean").Code)
}

func TestCredentialGate(t *testing.T) {
	pending := sessionFor(models.RoleAdmin)
	pending.NeedsCredentialUpdate = true
	r := newEngine(stubAuth{"pending": pending, "done": sessionFor(models.RoleAdmin)}, CredentialGate("/open"))

	assert.Equal(t, http.StatusForbidden, get(r, "/thing", "Bearer pending").Code)
	assert.Equal(t, http.StatusOK, get(r, "/open", "Bearer pending").Code)
	assert.Equal(t, http.StatusOK, get(r, "/thing", "Bearer done").Code)
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	r := gin.New()
	r.GET("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, get(r, "/login", "").Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/login", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/login", "").Code)

	// buckets are per client IP
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
