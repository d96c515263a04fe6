package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
)

// TeacherAssignmentRepository reads the assignments a teacher may place on the grid.
// Assignments are administered by another service; this side never writes them.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// ListByTeacher returns active assignments owned by teacher.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	const query = `
SELECT id, teacher_id, grade, section, subject_area_id, teacher_role, status, created_at
FROM teacher_assignments
WHERE teacher_id = $1 AND status = $2
ORDER BY grade ASC, section ASC, created_at ASC`
	assignments := make([]models.TeacherAssignment, 0)
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID, models.StatusActive); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}
