// Package grid holds the weekly schedule of one teacher: a sparse mapping from
// (day, time slot) to a single assignment or activity, together with the last
// persisted snapshot it is diffed against.
package grid

import (
	"sort"
	"strings"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
)

// Key addresses a grid cell.
type Key struct {
	Day        models.Day
	TimeSlotID string
}

// Mode selects how a write to an occupied cell behaves.
type Mode string

const (
	// ModeToggle clears a cell when it is written with the selection it already holds.
	ModeToggle Mode = "TOGGLE"
	// ModeOverwrite always stores the selection; cells are emptied only by Clear.
	ModeOverwrite Mode = "OVERWRITE"
)

// ParseMode normalises a mode name. Empty input is not a valid mode.
func ParseMode(raw string) (Mode, bool) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(raw))); m {
	case ModeToggle, ModeOverwrite:
		return m, true
	default:
		return "", false
	}
}

// Outcome describes what a single write did to its cell.
type Outcome string

const (
	OutcomeSet         Outcome = "SET"
	OutcomeOverwritten Outcome = "OVERWRITTEN"
	OutcomeCleared     Outcome = "CLEARED"
	OutcomeUnchanged   Outcome = "UNCHANGED"
)

// Entry is a filled cell.
type Entry struct {
	Key
	Selection models.Selection
}

// Schedule is not safe for concurrent use; callers serialise access.
type Schedule struct {
	teacherID string
	cells     map[Key]models.Selection
	snapshot  map[Key]models.Selection
}

// New returns a clean schedule whose working copy and snapshot both equal persisted.
func New(teacherID string, persisted map[Key]models.Selection) *Schedule {
	return &Schedule{
		teacherID: teacherID,
		cells:     clone(persisted),
		snapshot:  clone(persisted),
	}
}

// TeacherID returns the owner of the schedule.
func (s *Schedule) TeacherID() string {
	return s.teacherID
}

// Get returns the selection held by a cell.
func (s *Schedule) Get(day models.Day, timeSlotID string) (models.Selection, bool) {
	sel, ok := s.cells[Key{Day: day, TimeSlotID: timeSlotID}]
	return sel, ok
}

// SetCell applies toggle semantics: nil clears, an empty cell takes the
// selection, the same selection clears, a different selection overwrites.
func (s *Schedule) SetCell(day models.Day, timeSlotID string, sel *models.Selection) Outcome {
	if sel == nil {
		return s.Clear(day, timeSlotID)
	}
	key := Key{Day: day, TimeSlotID: timeSlotID}
	current, occupied := s.cells[key]
	switch {
	case !occupied:
		s.cells[key] = *sel
		return OutcomeSet
	case current == *sel:
		delete(s.cells, key)
		return OutcomeCleared
	default:
		s.cells[key] = *sel
		return OutcomeOverwritten
	}
}

// Assign stores the selection without toggling.
func (s *Schedule) Assign(day models.Day, timeSlotID string, sel models.Selection) Outcome {
	key := Key{Day: day, TimeSlotID: timeSlotID}
	current, occupied := s.cells[key]
	s.cells[key] = sel
	switch {
	case !occupied:
		return OutcomeSet
	case current == sel:
		return OutcomeUnchanged
	default:
		return OutcomeOverwritten
	}
}

// Clear empties a cell regardless of its content.
func (s *Schedule) Clear(day models.Day, timeSlotID string) Outcome {
	key := Key{Day: day, TimeSlotID: timeSlotID}
	if _, occupied := s.cells[key]; !occupied {
		return OutcomeUnchanged
	}
	delete(s.cells, key)
	return OutcomeCleared
}

// Apply dispatches a write according to the edit mode.
func (s *Schedule) Apply(mode Mode, day models.Day, timeSlotID string, sel *models.Selection) Outcome {
	if mode == ModeOverwrite {
		if sel == nil {
			return s.Clear(day, timeSlotID)
		}
		return s.Assign(day, timeSlotID, *sel)
	}
	return s.SetCell(day, timeSlotID, sel)
}

// Dirty reports whether the working copy differs from the snapshot. It is a
// content diff, so edits that cancel out leave the schedule clean.
func (s *Schedule) Dirty() bool {
	return !equal(s.cells, s.snapshot)
}

// Discard restores the working copy to the last snapshot.
func (s *Schedule) Discard() {
	s.cells = clone(s.snapshot)
}

// Cells returns a copy of the working mapping.
func (s *Schedule) Cells() map[Key]models.Selection {
	return clone(s.cells)
}

// Snapshot returns a copy of the last persisted mapping.
func (s *Schedule) Snapshot() map[Key]models.Selection {
	return clone(s.snapshot)
}

// Rebase records saved as the new persisted baseline. Edits made after saved
// was captured stay pending.
func (s *Schedule) Rebase(saved map[Key]models.Selection) {
	s.snapshot = clone(saved)
}

// Len returns the number of filled cells.
func (s *Schedule) Len() int {
	return len(s.cells)
}

// Entries lists filled cells ordered by weekday then time slot id.
func (s *Schedule) Entries() []Entry {
	return Sorted(s.cells)
}

// Sorted orders a mapping by weekday then time slot id.
func Sorted(cells map[Key]models.Selection) []Entry {
	entries := make([]Entry, 0, len(cells))
	for k, sel := range cells {
		entries = append(entries, Entry{Key: k, Selection: sel})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Day.Index() != b.Day.Index() {
			return a.Day.Index() < b.Day.Index()
		}
		return a.TimeSlotID < b.TimeSlotID
	})
	return entries
}

func clone(src map[Key]models.Selection) map[Key]models.Selection {
	dst := make(map[Key]models.Selection, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func equal(a, b map[Key]models.Selection) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if other, ok := b[k]; !ok || other != v {
			return false
		}
	}
	return true
}
