package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
	"github.com/noah-isme/teacher-schedule-api/pkg/database"
)

// ScheduleCellRepository stores the persisted weekly grid of each teacher.
type ScheduleCellRepository struct {
	db *sqlx.DB
}

// NewScheduleCellRepository constructs the repository.
func NewScheduleCellRepository(db *sqlx.DB) *ScheduleCellRepository {
	return &ScheduleCellRepository{db: db}
}

// ListByTeacher returns every stored row of the teacher, including rows whose
// references no longer resolve.
func (r *ScheduleCellRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ScheduleCell, error) {
	const query = `SELECT id, teacher_id, day_of_week, time_slot_id, assignment_id, activity_id, created_at
FROM schedule_cells WHERE teacher_id = $1 ORDER BY day_of_week ASC, time_slot_id ASC`
	cells := make([]models.ScheduleCell, 0)
	if err := r.db.SelectContext(ctx, &cells, query, teacherID); err != nil {
		return nil, fmt.Errorf("list schedule cells: %w", err)
	}
	return cells, nil
}

// ReplaceForTeacher swaps the teacher's stored grid for rows in one
// transaction. Either every row is written or none is.
func (r *ScheduleCellRepository) ReplaceForTeacher(ctx context.Context, teacherID string, rows []models.ScheduleCell) error {
	now := time.Now().UTC()
	const insert = `INSERT INTO schedule_cells (id, teacher_id, day_of_week, time_slot_id, assignment_id, activity_id, created_at)
VALUES (:id, :teacher_id, :day_of_week, :time_slot_id, :assignment_id, :activity_id, :created_at)`

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_cells WHERE teacher_id = $1`, teacherID); err != nil {
			return fmt.Errorf("clear schedule cells: %w", err)
		}
		for i := range rows {
			row := rows[i]
			row.TeacherID = teacherID
			if row.ID == "" {
				row.ID = uuid.NewString()
			}
			if row.CreatedAt.IsZero() {
				row.CreatedAt = now
			}
			if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
				return fmt.Errorf("insert schedule cell: %w", err)
			}
		}
		return nil
	})
}
