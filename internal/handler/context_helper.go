package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/committee-api/internal/middleware"
	"github.com/noah-isme/committee-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.AdminClaims {
	value, exists := c.Get(middleware.ContextAdminKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.AdminClaims)
	if !ok {
		return nil
	}
	return claims
}
