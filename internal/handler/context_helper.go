package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-schedule-api/internal/middleware"
	"github.com/noah-isme/teacher-schedule-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func teacherIDParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param(middleware.TeacherParam))
}

// institutionFor resolves the institution whose time-slot catalog applies:
// explicit query parameter, then the caller's token, then the configured default.
func institutionFor(c *gin.Context, fallback string) string {
	if id := strings.TrimSpace(c.Query("institution_id")); id != "" {
		return id
	}
	if claims := claimsFromContext(c); claims != nil && claims.InstitutionID != "" {
		return claims.InstitutionID
	}
	return fallback
}
