package models

// TimeSlot is a pedagogical hour: a named, ordered block of the school day,
// either a teaching period or a break. Order is unique per institution.
type TimeSlot struct {
	ID            string       `db:"id" json:"id"`
	InstitutionID string       `db:"institution_id" json:"institution_id"`
	Label         string       `db:"label" json:"label"`
	Order         int          `db:"sort_order" json:"order"`
	StartTime     string       `db:"start_time" json:"start_time"`
	EndTime       string       `db:"end_time" json:"end_time"`
	IsBreak       bool         `db:"is_break" json:"is_break"`
	Status        EntityStatus `db:"status" json:"status"`
}
