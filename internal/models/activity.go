package models

import "time"

// TeacherActivity is a teacher-private grid label with no grade or section,
// e.g. "Tutoring" or "Break duty".
type TeacherActivity struct {
	ID        string       `db:"id" json:"id"`
	TeacherID string       `db:"teacher_id" json:"teacher_id"`
	Name      string       `db:"name" json:"name"`
	Status    EntityStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}
