package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
	"github.com/escola-hub/escola-admin-api/pkg/response"
)

// SelfAccess, passed to RequireTypes, lets a user through when the :id path
// parameter matches their own user id, regardless of role.
const SelfAccess models.UserType = 0

// RequireTypes enforces role-based access control for routes using the
// numeric role codes carried in the token claims.
func RequireTypes(allowed ...models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		allowSelf := false
		for _, t := range allowed {
			if t == SelfAccess {
				allowSelf = true
				continue
			}
			if claims.UserType == t {
				c.Next()
				return
			}
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// Staff returns the roles allowed to manage school records.
func Staff() []models.UserType {
	return []models.UserType{
		models.UserTypeGestor,
		models.UserTypeDiretor,
		models.UserTypeSecretaria,
	}
}
