package grid

import "github.com/noah-isme/teacher-schedule-api/internal/models"

// Resolver reports whether a selection still points at a live catalog entry.
type Resolver func(models.Selection) bool

// FromRows turns persisted rows into a cell mapping. Rows that are malformed,
// duplicate an already loaded key, or fail to resolve are returned as dropped
// instead of being loaded.
func FromRows(rows []models.ScheduleCell, resolve Resolver) (map[Key]models.Selection, []models.ScheduleCell) {
	cells := make(map[Key]models.Selection, len(rows))
	var dropped []models.ScheduleCell
	for _, row := range rows {
		sel, ok := row.Selection()
		if !ok {
			dropped = append(dropped, row)
			continue
		}
		key := Key{Day: row.DayOfWeek, TimeSlotID: row.TimeSlotID}
		if _, dup := cells[key]; dup {
			dropped = append(dropped, row)
			continue
		}
		if resolve != nil && !resolve(sel) {
			dropped = append(dropped, row)
			continue
		}
		cells[key] = sel
	}
	return cells, dropped
}

// ToRows renders a mapping as rows ready to be written, in grid order.
func ToRows(teacherID string, cells map[Key]models.Selection) []models.ScheduleCell {
	entries := Sorted(cells)
	rows := make([]models.ScheduleCell, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.NewScheduleCell(teacherID, e.Day, e.TimeSlotID, e.Selection))
	}
	return rows
}
