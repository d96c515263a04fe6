package models

import "time"

// TeacherRole describes the capacity in which a teacher holds an assignment.
type TeacherRole string

const (
	TeacherRoleHomeroom TeacherRole = "HOMEROOM"
	TeacherRoleSubject  TeacherRole = "SUBJECT"
	TeacherRoleSupport  TeacherRole = "SUPPORT"
)

// TeacherAssignment is a teacher's standing right to occupy grid cells for a
// grade/section, optionally narrowed to a subject area. Administered elsewhere.
type TeacherAssignment struct {
	ID            string       `db:"id" json:"id"`
	TeacherID     string       `db:"teacher_id" json:"teacher_id"`
	Grade         string       `db:"grade" json:"grade"`
	Section       string       `db:"section" json:"section"`
	SubjectAreaID *string      `db:"subject_area_id" json:"subject_area_id,omitempty"`
	TeacherRole   TeacherRole  `db:"teacher_role" json:"teacher_role"`
	Status        EntityStatus `db:"status" json:"status"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}

// Label renders the assignment the way it appears inside a grid cell.
func (a TeacherAssignment) Label() string {
	label := a.Grade + " " + a.Section
	if a.SubjectAreaID != nil && *a.SubjectAreaID != "" {
		label += " · " + *a.SubjectAreaID
	}
	return label
}
