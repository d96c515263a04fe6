package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-schedule-api/internal/dto"
	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
	"github.com/noah-isme/teacher-schedule-api/pkg/response"
)

type catalogService interface {
	ListAssignments(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error)
	ListActivities(ctx context.Context, teacherID string) ([]models.TeacherActivity, error)
	CreateActivity(ctx context.Context, teacherID string, req dto.CreateActivityRequest) (*models.TeacherActivity, error)
	ArchiveActivity(ctx context.Context, teacherID, activityID string) error
}

// CatalogHandler exposes the selectable entries of a teacher.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListAssignments godoc
// @Summary List teaching assignments
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teachers/{teacherId}/assignments [get]
func (h *CatalogHandler) ListAssignments(c *gin.Context) {
	items, err := h.service.ListAssignments(c.Request.Context(), teacherIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// ListActivities godoc
// @Summary List non-teaching activities
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacherId}/activities [get]
func (h *CatalogHandler) ListActivities(c *gin.Context) {
	items, err := h.service.ListActivities(c.Request.Context(), teacherIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// CreateActivity godoc
// @Summary Create activity
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.CreateActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers/{teacherId}/activities [post]
func (h *CatalogHandler) CreateActivity(c *gin.Context) {
	var req dto.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}
	activity, err := h.service.CreateActivity(c.Request.Context(), teacherIDParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// ArchiveActivity godoc
// @Summary Archive activity
// @Description Archived activities stop resolving; cells that reference them are dropped on next load
// @Tags Catalog
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Param activityId path string true "Activity ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{teacherId}/activities/{activityId} [delete]
func (h *CatalogHandler) ArchiveActivity(c *gin.Context) {
	if err := h.service.ArchiveActivity(c.Request.Context(), teacherIDParam(c), c.Param("activityId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
