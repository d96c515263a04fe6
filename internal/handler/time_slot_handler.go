package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
	"github.com/noah-isme/teacher-schedule-api/pkg/response"
)

type timeSlotService interface {
	List(ctx context.Context, institutionID string) ([]models.TimeSlot, error)
}

// TimeSlotHandler serves the institution time-slot catalog.
type TimeSlotHandler struct {
	service            timeSlotService
	defaultInstitution string
}

// NewTimeSlotHandler constructs the handler.
func NewTimeSlotHandler(svc timeSlotService, defaultInstitution string) *TimeSlotHandler {
	return &TimeSlotHandler{service: svc, defaultInstitution: defaultInstitution}
}

// List godoc
// @Summary List time slots
// @Description Ordered hour catalog of an institution, breaks included
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param institution_id query string false "Institution ID (defaults to the caller's institution)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /time-slots [get]
func (h *TimeSlotHandler) List(c *gin.Context) {
	institutionID := institutionFor(c, h.defaultInstitution)
	slots, err := h.service.List(c.Request.Context(), institutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, map[string]interface{}{
		"institution_id": institutionID,
		"total":          len(slots),
	})
}
