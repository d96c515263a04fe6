package models

import (
	"strings"
	"time"
)

// Day is a school day column of the weekly grid.
type Day string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
)

// SchoolDays lists the grid columns in display order.
var SchoolDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var dayIndex = map[Day]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
}

// ParseDay normalises user input into a Day.
func ParseDay(raw string) (Day, bool) {
	d := Day(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := dayIndex[d]
	return d, ok
}

// Index returns the 1-based weekday position, or 0 for unknown days.
func (d Day) Index() int {
	return dayIndex[d]
}

// EntryKind tells which catalog a grid selection points into.
type EntryKind string

const (
	EntryAssignment EntryKind = "ASSIGNMENT"
	EntryActivity   EntryKind = "ACTIVITY"
)

// Valid reports whether the kind is known.
func (k EntryKind) Valid() bool {
	return k == EntryAssignment || k == EntryActivity
}

// Selection references exactly one assignment or activity.
type Selection struct {
	Kind EntryKind `json:"kind" validate:"required,oneof=ASSIGNMENT ACTIVITY"`
	ID   string    `json:"id" validate:"required"`
}

// ScheduleCell is a persisted grid row. Exactly one of AssignmentID and
// ActivityID is set.
type ScheduleCell struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek    Day       `db:"day_of_week" json:"day_of_week"`
	TimeSlotID   string    `db:"time_slot_id" json:"time_slot_id"`
	AssignmentID *string   `db:"assignment_id" json:"assignment_id,omitempty"`
	ActivityID   *string   `db:"activity_id" json:"activity_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Selection returns the reference held by the row, or false when the row is
// malformed (neither or both references set).
func (c ScheduleCell) Selection() (Selection, bool) {
	hasAssignment := c.AssignmentID != nil && *c.AssignmentID != ""
	hasActivity := c.ActivityID != nil && *c.ActivityID != ""
	switch {
	case hasAssignment && !hasActivity:
		return Selection{Kind: EntryAssignment, ID: *c.AssignmentID}, true
	case hasActivity && !hasAssignment:
		return Selection{Kind: EntryActivity, ID: *c.ActivityID}, true
	default:
		return Selection{}, false
	}
}

// NewScheduleCell builds a row for the given selection.
func NewScheduleCell(teacherID string, day Day, timeSlotID string, sel Selection) ScheduleCell {
	cell := ScheduleCell{TeacherID: teacherID, DayOfWeek: day, TimeSlotID: timeSlotID}
	id := sel.ID
	if sel.Kind == EntryActivity {
		cell.ActivityID = &id
	} else {
		cell.AssignmentID = &id
	}
	return cell
}
