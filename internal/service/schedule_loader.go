package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/teacher-schedule-api/internal/grid"
	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
)

type scheduleCellRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ScheduleCell, error)
	ReplaceForTeacher(ctx context.Context, teacherID string, rows []models.ScheduleCell) error
}

type scheduleCatalog interface {
	ListAssignments(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error)
	ListActivities(ctx context.Context, teacherID string) ([]models.TeacherActivity, error)
}

type timeSlotCatalog interface {
	List(ctx context.Context, institutionID string) ([]models.TimeSlot, error)
}

type teacherDirectory interface {
	InstitutionOf(ctx context.Context, teacherID string) (string, error)
}

// catalogSnapshot is the reference data a grid is resolved against.
type catalogSnapshot struct {
	institutionID string

	slots       []models.TimeSlot
	assignments []models.TeacherAssignment
	activities  []models.TeacherActivity

	slotIDs     map[string]struct{}
	assignIndex map[string]models.TeacherAssignment
	activeIndex map[string]models.TeacherActivity
}

func newCatalogSnapshot(slots []models.TimeSlot, assignments []models.TeacherAssignment, activities []models.TeacherActivity) *catalogSnapshot {
	c := &catalogSnapshot{
		slots:       slots,
		assignments: assignments,
		activities:  activities,
		slotIDs:     make(map[string]struct{}, len(slots)),
		assignIndex: make(map[string]models.TeacherAssignment, len(assignments)),
		activeIndex: make(map[string]models.TeacherActivity, len(activities)),
	}
	for _, slot := range slots {
		c.slotIDs[slot.ID] = struct{}{}
	}
	for _, a := range assignments {
		c.assignIndex[a.ID] = a
	}
	for _, a := range activities {
		c.activeIndex[a.ID] = a
	}
	return c
}

func (c *catalogSnapshot) hasSlot(id string) bool {
	_, ok := c.slotIDs[id]
	return ok
}

// resolves reports whether sel points at a live entry of this teacher.
func (c *catalogSnapshot) resolves(sel models.Selection) bool {
	switch sel.Kind {
	case models.EntryAssignment:
		_, ok := c.assignIndex[sel.ID]
		return ok
	case models.EntryActivity:
		_, ok := c.activeIndex[sel.ID]
		return ok
	default:
		return false
	}
}

// label renders a selection for display, falling back to its id.
func (c *catalogSnapshot) label(sel models.Selection) string {
	switch sel.Kind {
	case models.EntryAssignment:
		if a, ok := c.assignIndex[sel.ID]; ok {
			return a.Label()
		}
	case models.EntryActivity:
		if a, ok := c.activeIndex[sel.ID]; ok {
			return a.Name
		}
	}
	return sel.ID
}

// scheduleLoader reads a teacher's persisted grid and its catalogs.
type scheduleLoader struct {
	cells     scheduleCellRepository
	catalog   scheduleCatalog
	timeSlots timeSlotCatalog
	teachers  teacherDirectory
	metrics   *MetricsService
	logger    *zap.Logger
}

func (l *scheduleLoader) loadCatalog(ctx context.Context, teacherID, institutionID string) (*catalogSnapshot, error) {
	slots, err := l.timeSlots.List(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	assignments, err := l.catalog.ListAssignments(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	activities, err := l.catalog.ListActivities(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	catalog := newCatalogSnapshot(slots, assignments, activities)
	catalog.institutionID = institutionID
	return catalog, nil
}

// load returns the persisted mapping with stale rows removed, resolved against
// the catalog of the teacher's own institution. Rows on unknown days or time
// slots, or pointing at assignments and activities that are gone, are dropped
// silently.
func (l *scheduleLoader) load(ctx context.Context, teacherID string) (map[grid.Key]models.Selection, *catalogSnapshot, error) {
	institutionID, err := l.teachers.InstitutionOf(ctx, teacherID)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := l.loadCatalog(ctx, teacherID, institutionID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := l.cells.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to load schedule")
	}

	placed := make([]models.ScheduleCell, 0, len(rows))
	var dropped []models.ScheduleCell
	for _, row := range rows {
		day, ok := models.ParseDay(string(row.DayOfWeek))
		if !ok || !catalog.hasSlot(row.TimeSlotID) {
			dropped = append(dropped, row)
			continue
		}
		row.DayOfWeek = day
		placed = append(placed, row)
	}
	cells, stale := grid.FromRows(placed, catalog.resolves)
	dropped = append(dropped, stale...)

	if len(dropped) > 0 {
		for _, row := range dropped {
			l.logger.Debug("dropping stale schedule cell",
				zap.Error(appErrors.ErrStaleReference),
				zap.String("teacher_id", teacherID),
				zap.String("day", string(row.DayOfWeek)),
				zap.String("time_slot_id", row.TimeSlotID),
			)
		}
		l.metrics.RecordStaleCells(len(dropped))
	}
	return cells, catalog, nil
}
