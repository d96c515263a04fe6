package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
)

// ActivityRepository persists teacher activities.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListByTeacher returns active activities in creation order.
func (r *ActivityRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherActivity, error) {
	const query = `SELECT id, teacher_id, name, status, created_at, updated_at
FROM teacher_activities WHERE teacher_id = $1 AND status = $2 ORDER BY created_at ASC, id ASC`
	activities := make([]models.TeacherActivity, 0)
	if err := r.db.SelectContext(ctx, &activities, query, teacherID, models.StatusActive); err != nil {
		return nil, fmt.Errorf("list teacher activities: %w", err)
	}
	return activities, nil
}

// Create inserts a new activity. Names are not unique.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.TeacherActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now
	if activity.Status == "" {
		activity.Status = models.StatusActive
	}

	const query = `INSERT INTO teacher_activities (id, teacher_id, name, status, created_at, updated_at)
VALUES (:id, :teacher_id, :name, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create teacher activity: %w", err)
	}
	return nil
}

// Archive marks an active activity of the teacher as archived. It returns
// sql.ErrNoRows when nothing matched.
func (r *ActivityRepository) Archive(ctx context.Context, teacherID, id string) error {
	const query = `UPDATE teacher_activities SET status = $3, updated_at = $4 WHERE id = $1 AND teacher_id = $2 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, teacherID, models.StatusArchived, time.Now().UTC(), models.StatusActive)
	if err != nil {
		return fmt.Errorf("archive teacher activity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive teacher activity rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
