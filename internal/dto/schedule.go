package dto

import (
	"time"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
)

// SetCellRequest writes one grid cell. A null selection clears the cell.
type SetCellRequest struct {
	Day        string            `json:"day" validate:"required"`
	TimeSlotID string            `json:"time_slot_id" validate:"required"`
	Selection  *models.Selection `json:"selection" validate:"omitempty"`
	Mode       string            `json:"mode" validate:"omitempty,oneof=TOGGLE OVERWRITE toggle overwrite"`
}

// ClearCellRequest empties one grid cell.
type ClearCellRequest struct {
	Day        string `form:"day" json:"day" validate:"required"`
	TimeSlotID string `form:"time_slot_id" json:"time_slot_id" validate:"required"`
}

// CreateActivityRequest adds a teacher-private activity.
type CreateActivityRequest struct {
	Name string `json:"name" validate:"max=120"`
}

// ScheduleCellView is a filled cell resolved for display.
type ScheduleCellView struct {
	Day        models.Day       `json:"day"`
	TimeSlotID string           `json:"time_slot_id"`
	Kind       models.EntryKind `json:"kind"`
	RefID      string           `json:"ref_id"`
	Label      string           `json:"label"`
}

// ScheduleView is the editor state of one teacher.
type ScheduleView struct {
	TeacherID   string                     `json:"teacher_id"`
	Mode        string                     `json:"mode"`
	Dirty       bool                       `json:"dirty"`
	Days        []models.Day               `json:"days"`
	TimeSlots   []models.TimeSlot          `json:"time_slots"`
	Cells       []ScheduleCellView         `json:"cells"`
	Assignments []models.TeacherAssignment `json:"assignments"`
	Activities  []models.TeacherActivity   `json:"activities"`
	LastSavedAt *time.Time                 `json:"last_saved_at,omitempty"`
}

// CellMutationResult reports what a write did. Mode is the placement mode of
// a set and is empty for a clear.
type CellMutationResult struct {
	Outcome string            `json:"outcome"`
	Mode    string            `json:"mode,omitempty"`
	Cell    *ScheduleCellView `json:"cell,omitempty"`
	Dirty   bool              `json:"dirty"`
}

// SaveScheduleResult reports a completed save. Dirty stays true when edits
// arrived while the write was in flight.
type SaveScheduleResult struct {
	TeacherID string    `json:"teacher_id"`
	Saved     bool      `json:"saved"`
	Cells     int       `json:"cells"`
	Dirty     bool      `json:"dirty"`
	SavedAt   time.Time `json:"saved_at"`
}

// ExportFile is a rendered schedule document.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}
