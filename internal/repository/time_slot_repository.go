package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
)

// TimeSlotRepository reads the pedagogical-hour catalog.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs the repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// ListByInstitution returns active slots ordered by their position in the day.
func (r *TimeSlotRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.TimeSlot, error) {
	const query = `SELECT id, institution_id, label, sort_order, start_time, end_time, is_break, status
FROM time_slots WHERE institution_id = $1 AND status = $2 ORDER BY sort_order ASC`
	slots := make([]models.TimeSlot, 0)
	if err := r.db.SelectContext(ctx, &slots, query, institutionID, models.StatusActive); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}
