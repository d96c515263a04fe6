package models

import "time"

// User represents an application user stored in the users table. Teaching
// staff carry the id of the teacher record whose schedule they own.
type User struct {
	ID            string     `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	FullName      string     `db:"full_name" json:"full_name"`
	Role          UserRole   `db:"role" json:"role"`
	TeacherID     *string    `db:"teacher_id" json:"teacher_id,omitempty"`
	InstitutionID string     `db:"institution_id" json:"institution_id"`
	Active        bool       `db:"active" json:"active"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
