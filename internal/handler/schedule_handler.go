package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-schedule-api/internal/dto"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
	"github.com/noah-isme/teacher-schedule-api/pkg/response"
)

type scheduleEditor interface {
	View(ctx context.Context, teacherID string) (*dto.ScheduleView, error)
	SetCell(ctx context.Context, teacherID string, req dto.SetCellRequest) (*dto.CellMutationResult, error)
	ClearCell(ctx context.Context, teacherID string, req dto.ClearCellRequest) (*dto.CellMutationResult, error)
	Save(ctx context.Context, teacherID string) (*dto.SaveScheduleResult, error)
	Discard(ctx context.Context, teacherID string) (*dto.ScheduleView, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, teacherID, format string) (*dto.ExportFile, error)
}

// ScheduleHandler drives the weekly schedule editor of a teacher.
// The institution is resolved from the teacher, so no institution is taken
// from the request.
type ScheduleHandler struct {
	editor   scheduleEditor
	exporter scheduleExporter
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(editor scheduleEditor, exporter scheduleExporter) *ScheduleHandler {
	return &ScheduleHandler{editor: editor, exporter: exporter}
}

// View godoc
// @Summary Get schedule editor state
// @Description Working copy of the weekly grid with its dirty flag and the selectable catalog
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /teachers/{teacherId}/schedule [get]
func (h *ScheduleHandler) View(c *gin.Context) {
	view, err := h.editor.View(c.Request.Context(), teacherIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// SetCell godoc
// @Summary Write a schedule cell
// @Description Toggle mode clears a cell written with the selection it already holds; a null selection always clears
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.SetCellRequest true "Cell payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers/{teacherId}/schedule/cells [put]
func (h *ScheduleHandler) SetCell(c *gin.Context) {
	var req dto.SetCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cell payload"))
		return
	}
	res, err := h.editor.SetCell(c.Request.Context(), teacherIDParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// ClearCell godoc
// @Summary Clear a schedule cell
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Param day query string true "MONDAY..SATURDAY"
// @Param time_slot_id query string true "Time slot ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers/{teacherId}/schedule/cells [delete]
func (h *ScheduleHandler) ClearCell(c *gin.Context) {
	var req dto.ClearCellRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cell query"))
		return
	}
	res, err := h.editor.ClearCell(c.Request.Context(), teacherIDParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Save godoc
// @Summary Save schedule
// @Description Persists the working copy; a clean schedule is not written. Storage failures are retryable.
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /teachers/{teacherId}/schedule/save [post]
func (h *ScheduleHandler) Save(c *gin.Context) {
	res, err := h.editor.Save(c.Request.Context(), teacherIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Discard godoc
// @Summary Discard pending edits
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacherId}/schedule/discard [post]
func (h *ScheduleHandler) Discard(c *gin.Context) {
	view, err := h.editor.Discard(c.Request.Context(), teacherIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Export godoc
// @Summary Export saved schedule
// @Description Renders the persisted schedule as a day by hour grid
// @Tags Schedule
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /teachers/{teacherId}/schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	file, err := h.exporter.Export(c.Request.Context(), teacherIDParam(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
