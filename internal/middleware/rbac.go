package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
	"github.com/noah-isme/teacher-schedule-api/pkg/response"
)

// TeacherParam is the route parameter naming the schedule owner.
const TeacherParam = "teacherId"

// RequireCapability lets the request through when the caller's role grants
// any of caps.
func RequireCapability(caps ...models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, capability := range caps {
			if claims.Role.Can(capability) {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireTeacherScope guards routes under /teachers/:teacherId. Callers holding
// anyCap pass for every teacher; callers holding only ownCap pass when the
// route teacher is the one bound to their token.
func RequireTeacherScope(ownCap, anyCap models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role.Can(anyCap) {
			c.Next()
			return
		}
		if claims.Role.Can(ownCap) && claims.Owns(c.Param(TeacherParam)) {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "schedule belongs to another teacher"))
		c.Abort()
	}
}
