package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/teacher-schedule-api/internal/dto"
	"github.com/noah-isme/teacher-schedule-api/internal/grid"
	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
	"github.com/noah-isme/teacher-schedule-api/pkg/export"
)

var dayHeaders = map[models.Day]string{
	models.Monday:    "Monday",
	models.Tuesday:   "Tuesday",
	models.Wednesday: "Wednesday",
	models.Thursday:  "Thursday",
	models.Friday:    "Friday",
	models.Saturday:  "Saturday",
}

// ScheduleExportService renders the persisted schedule of a teacher as a
// time slot by weekday table.
type ScheduleExportService struct {
	loader    *scheduleLoader
	renderers map[string]export.Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleExportService wires the exporter with the xlsx, csv and pdf renderers.
func NewScheduleExportService(cells scheduleCellRepository, catalog scheduleCatalog, timeSlots timeSlotCatalog, teachers teacherDirectory, metrics *MetricsService, logger *zap.Logger) *ScheduleExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderers := map[string]export.Renderer{}
	for _, r := range []export.Renderer{export.NewXLSXExporter(), export.NewCSVExporter(), export.NewPDFExporter()} {
		renderers[r.Extension()] = r
	}
	return &ScheduleExportService{
		loader: &scheduleLoader{
			cells:     cells,
			catalog:   catalog,
			timeSlots: timeSlots,
			teachers:  teachers,
			metrics:   metrics,
			logger:    logger,
		},
		renderers: renderers,
		logger:    logger,
		now:       time.Now,
	}
}

// Export renders the persisted schedule in the requested format.
func (s *ScheduleExportService) Export(ctx context.Context, teacherID, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "xlsx"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of xlsx, csv, pdf")
	}
	if strings.TrimSpace(teacherID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}

	cells, catalog, err := s.loader.load(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(scheduleDataset(teacherID, cells, catalog))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
	}

	return &dto.ExportFile{
		Filename:    fmt.Sprintf("schedule-%s-%s.%s", teacherID, s.now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

// scheduleDataset lays the grid out with one row per time slot in catalog
// order and one column per school day.
func scheduleDataset(teacherID string, cells map[grid.Key]models.Selection, catalog *catalogSnapshot) export.Dataset {
	headers := make([]string, 0, len(models.SchoolDays)+1)
	headers = append(headers, "Hour")
	for _, day := range models.SchoolDays {
		headers = append(headers, dayHeaders[day])
	}

	rows := make([][]string, 0, len(catalog.slots))
	for _, slot := range catalog.slots {
		row := make([]string, 0, len(headers))
		row = append(row, slotLabel(slot))
		for _, day := range models.SchoolDays {
			value := ""
			if sel, ok := cells[grid.Key{Day: day, TimeSlotID: slot.ID}]; ok {
				value = catalog.label(sel)
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}

	return export.Dataset{
		Title:   "Weekly schedule " + teacherID,
		Sheet:   "Schedule",
		Headers: headers,
		Rows:    rows,
	}
}

func slotLabel(slot models.TimeSlot) string {
	label := slot.Label
	if slot.StartTime != "" && slot.EndTime != "" {
		label = fmt.Sprintf("%s (%s-%s)", label, slot.StartTime, slot.EndTime)
	}
	if slot.IsBreak {
		label += " [break]"
	}
	return label
}
