package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-schedule-api/internal/dto"
	"github.com/noah-isme/teacher-schedule-api/internal/grid"
	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
)

type mirrorEnqueuer interface {
	Enqueue(teacherID string)
}

// ScheduleEditorConfig governs editing sessions.
type ScheduleEditorConfig struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
	SaveTimeout   time.Duration
	DefaultMode   grid.Mode
}

// ScheduleEditorService owns the in-memory working copy of each teacher's
// weekly grid and writes it back as a single unit on save.
type ScheduleEditorService struct {
	loader    *scheduleLoader
	cells     scheduleCellRepository
	sessions  *sessionStore
	mirror    mirrorEnqueuer
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ScheduleEditorConfig
	now       func() time.Time
}

// NewScheduleEditorService wires the editor. mirror and metrics may be nil.
func NewScheduleEditorService(
	cells scheduleCellRepository,
	catalog scheduleCatalog,
	timeSlots timeSlotCatalog,
	teachers teacherDirectory,
	mirror mirrorEnqueuer,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg ScheduleEditorConfig,
) *ScheduleEditorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	if _, ok := grid.ParseMode(string(cfg.DefaultMode)); !ok {
		cfg.DefaultMode = grid.ModeToggle
	}
	return &ScheduleEditorService{
		loader: &scheduleLoader{
			cells:     cells,
			catalog:   catalog,
			timeSlots: timeSlots,
			teachers:  teachers,
			metrics:   metrics,
			logger:    logger,
		},
		cells:     cells,
		sessions:  newSessionStore(cfg.SessionTTL, nil),
		mirror:    mirror,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// View opens the teacher's session if needed and returns its current state.
func (s *ScheduleEditorService) View(ctx context.Context, teacherID string) (*dto.ScheduleView, error) {
	sess, catalog, err := s.open(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		if catalog, err = s.loader.loadCatalog(ctx, teacherID, sess.institutionID); err != nil {
			return nil, err
		}
	}
	return s.render(teacherID, sess, catalog), nil
}

// SetCell writes one cell of the working copy according to the edit mode.
func (s *ScheduleEditorService) SetCell(ctx context.Context, teacherID string, req dto.SetCellRequest) (*dto.CellMutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cell payload")
	}
	day, ok := models.ParseDay(req.Day)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day must be one of MONDAY to SATURDAY")
	}
	mode := s.cfg.DefaultMode
	if req.Mode != "" {
		mode, _ = grid.ParseMode(req.Mode)
	}

	sess, catalog, err := s.open(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		if catalog, err = s.loader.loadCatalog(ctx, teacherID, sess.institutionID); err != nil {
			return nil, err
		}
	}
	if !catalog.hasSlot(req.TimeSlotID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown time slot")
	}
	if req.Selection != nil && !catalog.resolves(*req.Selection) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "selection is not an active assignment or activity of this teacher")
	}

	sess.mu.Lock()
	outcome := sess.schedule.Apply(mode, day, req.TimeSlotID, req.Selection)
	res := s.mutationResult(sess, catalog, outcome, mode, day, req.TimeSlotID)
	sess.mu.Unlock()

	s.logger.Debug("schedule cell written",
		zap.String("teacher_id", teacherID),
		zap.String("day", string(day)),
		zap.String("time_slot_id", req.TimeSlotID),
		zap.String("mode", string(mode)),
		zap.String("outcome", string(outcome)),
	)
	return res, nil
}

// ClearCell empties one cell regardless of the edit mode.
func (s *ScheduleEditorService) ClearCell(ctx context.Context, teacherID string, req dto.ClearCellRequest) (*dto.CellMutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cell payload")
	}
	day, ok := models.ParseDay(req.Day)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day must be one of MONDAY to SATURDAY")
	}

	sess, _, err := s.open(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	outcome := sess.schedule.Clear(day, req.TimeSlotID)
	res := &dto.CellMutationResult{Outcome: string(outcome), Dirty: sess.schedule.Dirty()}
	sess.mu.Unlock()
	return res, nil
}

// Save persists the working copy. Saves of one teacher run one at a time. The
// write is detached from request cancellation and bounded by the save
// timeout; on failure the session stays dirty and the caller may retry. Edits
// made while the write is in flight stay pending for the next save.
func (s *ScheduleEditorService) Save(ctx context.Context, teacherID string) (*dto.SaveScheduleResult, error) {
	sess, _, err := s.open(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()

	sess.mu.Lock()
	if !sess.schedule.Dirty() {
		res := &dto.SaveScheduleResult{TeacherID: teacherID, Cells: sess.schedule.Len()}
		if sess.lastSavedAt != nil {
			res.SavedAt = *sess.lastSavedAt
		}
		sess.mu.Unlock()
		return res, nil
	}
	pending := sess.schedule.Cells()
	sess.mu.Unlock()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SaveTimeout)
	defer cancel()

	start := time.Now()
	err = s.cells.ReplaceForTeacher(writeCtx, teacherID, grid.ToRows(teacherID, pending))
	s.metrics.ObserveScheduleSave(err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("schedule save failed", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, appErrors.Storage(err, "failed to save schedule")
	}

	savedAt := s.now().UTC()
	sess.mu.Lock()
	sess.schedule.Rebase(pending)
	sess.lastSavedAt = &savedAt
	dirty := sess.schedule.Dirty()
	sess.mu.Unlock()

	if s.mirror != nil {
		s.mirror.Enqueue(teacherID)
	}
	s.logger.Info("schedule saved", zap.String("teacher_id", teacherID), zap.Int("cells", len(pending)), zap.Bool("dirty", dirty))

	return &dto.SaveScheduleResult{
		TeacherID: teacherID,
		Saved:     true,
		Cells:     len(pending),
		Dirty:     dirty,
		SavedAt:   savedAt,
	}, nil
}

// Discard throws away pending edits and returns the restored state. It waits
// for an in-flight save so the restored snapshot is the one just written.
func (s *ScheduleEditorService) Discard(ctx context.Context, teacherID string) (*dto.ScheduleView, error) {
	sess, catalog, err := s.open(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	sess.saveMu.Lock()
	sess.mu.Lock()
	sess.schedule.Discard()
	sess.mu.Unlock()
	sess.saveMu.Unlock()

	if catalog == nil {
		if catalog, err = s.loader.loadCatalog(ctx, teacherID, sess.institutionID); err != nil {
			return nil, err
		}
	}
	return s.render(teacherID, sess, catalog), nil
}

// Run sweeps idle sessions until ctx is done.
func (s *ScheduleEditorService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep evicts idle sessions.
func (s *ScheduleEditorService) Sweep() int {
	evicted, dirty := s.sessions.Sweep()
	if len(dirty) > 0 {
		s.logger.Warn("idle sessions evicted with unsaved edits", zap.Strings("teacher_ids", dirty))
	}
	s.metrics.SetActiveSessions(s.sessions.Len())
	return evicted
}

// open returns the teacher's live session, loading it from storage when none
// exists. The catalog is returned only when it was loaded on the way.
func (s *ScheduleEditorService) open(ctx context.Context, teacherID string) (*editorSession, *catalogSnapshot, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	if sess, ok := s.sessions.Get(teacherID); ok {
		return sess, nil, nil
	}

	persisted, catalog, err := s.loader.load(ctx, teacherID)
	if err != nil {
		return nil, nil, err
	}
	sess := s.sessions.PutIfAbsent(teacherID, &editorSession{
		schedule:      grid.New(teacherID, persisted),
		institutionID: catalog.institutionID,
	})
	s.metrics.SetActiveSessions(s.sessions.Len())
	return sess, catalog, nil
}

// render must not be called with sess.mu held.
func (s *ScheduleEditorService) render(teacherID string, sess *editorSession, catalog *catalogSnapshot) *dto.ScheduleView {
	sess.mu.Lock()
	entries := sess.schedule.Entries()
	dirty := sess.schedule.Dirty()
	var lastSaved *time.Time
	if sess.lastSavedAt != nil {
		ts := *sess.lastSavedAt
		lastSaved = &ts
	}
	sess.mu.Unlock()

	cells := make([]dto.ScheduleCellView, 0, len(entries))
	for _, e := range entries {
		cells = append(cells, cellView(catalog, e.Day, e.TimeSlotID, e.Selection))
	}
	days := make([]models.Day, len(models.SchoolDays))
	copy(days, models.SchoolDays)

	return &dto.ScheduleView{
		TeacherID:   teacherID,
		Mode:        string(s.cfg.DefaultMode),
		Dirty:       dirty,
		Days:        days,
		TimeSlots:   nonNilSlots(catalog.slots),
		Cells:       cells,
		Assignments: nonNilAssignments(catalog.assignments),
		Activities:  nonNilActivities(catalog.activities),
		LastSavedAt: lastSaved,
	}
}

// mutationResult must be called with sess.mu held.
func (s *ScheduleEditorService) mutationResult(sess *editorSession, catalog *catalogSnapshot, outcome grid.Outcome, mode grid.Mode, day models.Day, timeSlotID string) *dto.CellMutationResult {
	res := &dto.CellMutationResult{
		Outcome: string(outcome),
		Mode:    string(mode),
		Dirty:   sess.schedule.Dirty(),
	}
	if sel, ok := sess.schedule.Get(day, timeSlotID); ok {
		view := cellView(catalog, day, timeSlotID, sel)
		res.Cell = &view
	}
	return res
}

func cellView(catalog *catalogSnapshot, day models.Day, timeSlotID string, sel models.Selection) dto.ScheduleCellView {
	return dto.ScheduleCellView{
		Day:        day,
		TimeSlotID: timeSlotID,
		Kind:       sel.Kind,
		RefID:      sel.ID,
		Label:      catalog.label(sel),
	}
}

func nonNilSlots(in []models.TimeSlot) []models.TimeSlot {
	if in == nil {
		return []models.TimeSlot{}
	}
	return in
}

func nonNilAssignments(in []models.TeacherAssignment) []models.TeacherAssignment {
	if in == nil {
		return []models.TeacherAssignment{}
	}
	return in
}

func nonNilActivities(in []models.TeacherActivity) []models.TeacherActivity {
	if in == nil {
		return []models.TeacherActivity{}
	}
	return in
}
