package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
)

type stubCellRepo struct {
	mu         sync.Mutex
	rows       []models.ScheduleCell
	listErr    error
	replaceErr error
	writes     int
	lastCtxErr error
	onReplace  func()
}

func (s *stubCellRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.ScheduleCell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.ScheduleCell, 0, len(s.rows))
	for _, row := range s.rows {
		if row.TeacherID == teacherID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubCellRepo) ReplaceForTeacher(ctx context.Context, teacherID string, rows []models.ScheduleCell) error {
	if s.onReplace != nil {
		s.onReplace()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCtxErr = ctx.Err()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.writes++
	kept := make([]models.ScheduleCell, 0, len(s.rows)+len(rows))
	for _, row := range s.rows {
		if row.TeacherID != teacherID {
			kept = append(kept, row)
		}
	}
	s.rows = append(kept, rows...)
	return nil
}

func (s *stubCellRepo) stored(teacherID string) []models.ScheduleCell {
	rows, _ := s.ListByTeacher(context.Background(), teacherID)
	return rows
}

type stubCatalog struct {
	assignments map[string][]models.TeacherAssignment
	activities  map[string][]models.TeacherActivity
	err         error
}

func (s *stubCatalog) ListAssignments(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.assignments[teacherID], nil
}

func (s *stubCatalog) ListActivities(ctx context.Context, teacherID string) ([]models.TeacherActivity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.activities[teacherID], nil
}

type stubTimeSlots struct {
	mu            sync.Mutex
	slots         []models.TimeSlot
	byInstitution map[string][]models.TimeSlot
	err           error
	calls         int
	institutions  []string
}

func (s *stubTimeSlots) List(ctx context.Context, institutionID string) ([]models.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.institutions = append(s.institutions, institutionID)
	if s.err != nil {
		return nil, s.err
	}
	if s.byInstitution != nil {
		return s.byInstitution[institutionID], nil
	}
	return s.slots, nil
}

func (s *stubTimeSlots) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.institutions...)
}

func (s *stubTimeSlots) ListByInstitution(ctx context.Context, institutionID string) ([]models.TimeSlot, error) {
	return s.List(ctx, institutionID)
}

type stubDirectory struct {
	institutions map[string]string
	err          error
}

func (s *stubDirectory) InstitutionOf(ctx context.Context, teacherID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	institution, ok := s.institutions[teacherID]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return institution, nil
}

func fixtureDirectory() *stubDirectory {
	return &stubDirectory{institutions: map[string]string{"teacher-1": "inst-1", "teacher-2": "inst-1"}}
}

type stubMirror struct {
	mu       sync.Mutex
	enqueued []string
}

func (s *stubMirror) Enqueue(teacherID string) {
	s.mu.Lock()
	s.enqueued = append(s.enqueued, teacherID)
	s.mu.Unlock()
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	raw, ok := m.items[key]
	m.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	m.items = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func strPtr(v string) *string {
	return &v
}

func fixtureSlots() []models.TimeSlot {
	return []models.TimeSlot{
		{ID: "h1", InstitutionID: "inst-1", Label: "1st hour", Order: 1, StartTime: "07:00", EndTime: "07:45", Status: models.StatusActive},
		{ID: "h2", InstitutionID: "inst-1", Label: "2nd hour", Order: 2, StartTime: "07:45", EndTime: "08:30", Status: models.StatusActive},
		{ID: "br", InstitutionID: "inst-1", Label: "Recess", Order: 3, StartTime: "08:30", EndTime: "08:45", IsBreak: true, Status: models.StatusActive},
	}
}

func fixtureCatalog() *stubCatalog {
	return &stubCatalog{
		assignments: map[string][]models.TeacherAssignment{
			"teacher-1": {
				{ID: "asg-a", TeacherID: "teacher-1", Grade: "7", Section: "A", SubjectAreaID: strPtr("Math"), TeacherRole: models.TeacherRoleSubject, Status: models.StatusActive},
				{ID: "asg-b", TeacherID: "teacher-1", Grade: "8", Section: "B", TeacherRole: models.TeacherRoleHomeroom, Status: models.StatusActive},
			},
			"teacher-2": {
				{ID: "asg-other", TeacherID: "teacher-2", Grade: "9", Section: "C", TeacherRole: models.TeacherRoleSubject, Status: models.StatusActive},
			},
		},
		activities: map[string][]models.TeacherActivity{
			"teacher-1": {
				{ID: "act-t", TeacherID: "teacher-1", Name: "Tutoring", Status: models.StatusActive},
			},
		},
	}
}
