package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

func rbacContext(t *testing.T, userType models.UserType, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/users/alu-1", nil)
	c.Request = req
	c.Set(ContextUserKey, &models.JWTClaims{UserID: userID, UserType: userType})
	return c, w
}

func TestRequireTypesAllowsMatchingRole(t *testing.T) {
	c, w := rbacContext(t, models.UserTypeSecretaria, "sec-1")

	RequireTypes(models.UserTypeGestor, models.UserTypeSecretaria)(c)

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireTypesDeniesOtherRole(t *testing.T) {
	c, w := rbacContext(t, models.UserTypeAluno, "alu-9")

	RequireTypes(models.UserTypeGestor, models.UserTypeSecretaria)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireTypesSelfEscape(t *testing.T) {
	c, w := rbacContext(t, models.UserTypeAluno, "alu-1")
	c.Params = gin.Params{{Key: "id", Value: "alu-1"}}

	RequireTypes(models.UserTypeGestor, SelfAccess)(c)

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireTypesSelfEscapeOtherRecord(t *testing.T) {
	c, w := rbacContext(t, models.UserTypeAluno, "alu-1")
	c.Params = gin.Params{{Key: "id", Value: "alu-2"}}

	RequireTypes(models.UserTypeGestor, SelfAccess)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireTypesMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/users", nil)
	c.Request = req

	RequireTypes(models.UserTypeGestor)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
