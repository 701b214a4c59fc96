package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/escola-hub/escola-admin-api/internal/middleware"
	"github.com/escola-hub/escola-admin-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// schoolScopeFromContext returns the school the session is restricted to;
// empty for an unrestricted Gestor session.
func schoolScopeFromContext(c *gin.Context) string {
	return claimsFromContext(c).SchoolScope()
}
