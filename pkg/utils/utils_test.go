package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lab-maintenance-backend/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	InitJWT("access", "refresh", time.Hour, 24*time.Hour)

	issued, err := GenerateAccessToken(TokenSubject{UserID: 4, Role: "dean", Name: "Dee", Email: "dee@example.com", NeedsCredentialUpdate: true})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := ValidateAccessToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(4), claims.UserID)
	assert.Equal(t, "dean", claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.True(t, claims.NeedsCredentialUpdate)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestValidateAccessTokenRejectsOtherSecret(t *testing.T) {
	InitJWT("one", "refresh", time.Hour, time.Hour)
	issued, err := GenerateAccessToken(TokenSubject{UserID: 1, Role: "admin"})
	require.NoError(t, err)

	InitJWT("two", "refresh", time.Hour, time.Hour)
	_, err = ValidateAccessToken(issued.Token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	SetBcryptCost(bcrypt.MinCost)
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, ComparePassword(hash, "s3cret!"))
	assert.False(t, ComparePassword(hash, "other"))
	assert.Len(t, GenerateRandomPassword(), 16)
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{apperr.Validation("lab_name is required"), http.StatusBadRequest, "ValidationError"},
		{apperr.DuplicateName("laboratory %q already exists", "CL 1"), http.StatusConflict, "DuplicateNameError"},
		{apperr.NotFound("computer 9 not found"), http.StatusNotFound, "NotFoundError"},
		{apperr.Forbidden("nope"), http.StatusForbidden, "ForbiddenError"},
		{errors.New("raw"), http.StatusInternalServerError, "InternalError"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		HandleError(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"`+tc.kind+`"`)
		assert.Contains(t, w.Body.String(), `"success":false`)
	}
}

func TestListResponseNeverNull(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ListResponse[string](c, nil)
	assert.Equal(t, "[]", w.Body.String())
}
