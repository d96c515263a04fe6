package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-schedule-api/internal/dto"
	"github.com/noah-isme/teacher-schedule-api/internal/grid"
	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
)

type editorFixture struct {
	svc     *ScheduleEditorService
	cells   *stubCellRepo
	mirror  *stubMirror
	metrics *MetricsService
}

func newEditorFixture(t *testing.T, rows ...models.ScheduleCell) *editorFixture {
	t.Helper()
	cells := &stubCellRepo{rows: rows}
	mirror := &stubMirror{}
	metrics := NewMetricsService()
	svc := NewScheduleEditorService(cells, fixtureCatalog(), &stubTimeSlots{slots: fixtureSlots()}, fixtureDirectory(), mirror,
		validator.New(), metrics, zap.NewNop(), ScheduleEditorConfig{SessionTTL: time.Hour, SaveTimeout: time.Second})
	return &editorFixture{svc: svc, cells: cells, mirror: mirror, metrics: metrics}
}

func sel(kind models.EntryKind, id string) *models.Selection {
	return &models.Selection{Kind: kind, ID: id}
}

func setReq(day, slot string, s *models.Selection) dto.SetCellRequest {
	return dto.SetCellRequest{Day: day, TimeSlotID: slot, Selection: s}
}

func TestEditorViewDropsStaleRows(t *testing.T) {
	f := newEditorFixture(t,
		models.NewScheduleCell("teacher-1", models.Monday, "h1", models.Selection{Kind: models.EntryAssignment, ID: "asg-a"}),
		models.NewScheduleCell("teacher-1", models.Monday, "h2", models.Selection{Kind: models.EntryAssignment, ID: "deleted"}),
		models.NewScheduleCell("teacher-1", models.Tuesday, "gone-slot", models.Selection{Kind: models.EntryActivity, ID: "act-t"}),
		models.NewScheduleCell("teacher-1", models.Wednesday, "h1", models.Selection{Kind: models.EntryActivity, ID: "act-t"}),
	)

	view, err := f.svc.View(context.Background(), "teacher-1")
	require.NoError(t, err)

	require.Len(t, view.Cells, 2)
	assert.Equal(t, "7 A · Math", view.Cells[0].Label)
	assert.Equal(t, "Tutoring", view.Cells[1].Label)
	assert.False(t, view.Dirty)
	assert.Len(t, view.TimeSlots, 3)
	assert.Len(t, view.Days, 6)
	assert.Equal(t, uint64(2), f.metrics.Snapshot().StaleCellsDropped)
}

func TestEditorViewStorageFailure(t *testing.T) {
	f := newEditorFixture(t)
	f.cells.listErr = errors.New("connection refused")

	_, err := f.svc.View(context.Background(), "teacher-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrStorage)
	assert.True(t, appErrors.FromError(err).Retryable)
}

func TestEditorSetCellToggleTwiceLeavesCleanGrid(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()

	res, err := f.svc.SetCell(ctx, "teacher-1", setReq("monday", "h1", sel(models.EntryAssignment, "asg-a")))
	require.NoError(t, err)
	assert.Equal(t, string(grid.OutcomeSet), res.Outcome)
	require.NotNil(t, res.Cell)
	assert.True(t, res.Dirty)

	res, err = f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-a")))
	require.NoError(t, err)
	assert.Equal(t, string(grid.OutcomeCleared), res.Outcome)
	assert.Nil(t, res.Cell)
	assert.False(t, res.Dirty)
}

func TestEditorSetCellOverwrite(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-a")))
	require.NoError(t, err)
	res, err := f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-b")))
	require.NoError(t, err)

	assert.Equal(t, string(grid.OutcomeOverwritten), res.Outcome)
	require.NotNil(t, res.Cell)
	assert.Equal(t, "asg-b", res.Cell.RefID)
}

func TestEditorOverwriteModeDoesNotToggle(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	req := setReq("FRIDAY", "h2", sel(models.EntryActivity, "act-t"))
	req.Mode = "OVERWRITE"

	_, err := f.svc.SetCell(ctx, "teacher-1", req)
	require.NoError(t, err)
	res, err := f.svc.SetCell(ctx, "teacher-1", req)
	require.NoError(t, err)
	assert.Equal(t, string(grid.OutcomeUnchanged), res.Outcome)
	assert.NotNil(t, res.Cell)

	cleared, err := f.svc.ClearCell(ctx, "teacher-1", dto.ClearCellRequest{Day: "FRIDAY", TimeSlotID: "h2"})
	require.NoError(t, err)
	assert.Equal(t, string(grid.OutcomeCleared), cleared.Outcome)
	assert.Empty(t, cleared.Mode)
	assert.False(t, cleared.Dirty)
}

func TestEditorSetCellRejectsInvalidInput(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()

	cases := map[string]dto.SetCellRequest{
		"sunday":          setReq("SUNDAY", "h1", sel(models.EntryAssignment, "asg-a")),
		"unknown slot":    setReq("MONDAY", "h9", sel(models.EntryAssignment, "asg-a")),
		"foreign":         setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-other")),
		"unknown kind":    setReq("MONDAY", "h1", sel(models.EntryKind("ROOM"), "asg-a")),
		"missing slot id": setReq("MONDAY", "", sel(models.EntryAssignment, "asg-a")),
		"bad mode":        {Day: "MONDAY", TimeSlotID: "h1", Mode: "SWAP"},
	}
	for name, req := range cases {
		_, err := f.svc.SetCell(ctx, "teacher-1", req)
		assert.ErrorIs(t, err, appErrors.ErrValidation, name)
	}
}

func TestEditorBreakSlotsAcceptEntries(t *testing.T) {
	f := newEditorFixture(t)

	res, err := f.svc.SetCell(context.Background(), "teacher-1", setReq("MONDAY", "br", sel(models.EntryActivity, "act-t")))
	require.NoError(t, err)
	assert.Equal(t, string(grid.OutcomeSet), res.Outcome)
}

func TestEditorSaveWritesWholeGridAndEnqueuesMirror(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-a")))
	require.NoError(t, err)
	_, err = f.svc.SetCell(ctx, "teacher-1", setReq("TUESDAY", "h2", sel(models.EntryActivity, "act-t")))
	require.NoError(t, err)

	res, err := f.svc.Save(ctx, "teacher-1")
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, 2, res.Cells)
	assert.False(t, res.Dirty)
	assert.Len(t, f.cells.stored("teacher-1"), 2)
	assert.Equal(t, []string{"teacher-1"}, f.mirror.enqueued)

	view, err := f.svc.Discard(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Len(t, view.Cells, 2, "discard after save keeps the saved grid")
	assert.NotNil(t, view.LastSavedAt)
}

func TestEditorSaveCleanScheduleSkipsWrite(t *testing.T) {
	f := newEditorFixture(t)

	res, err := f.svc.Save(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.False(t, res.Saved)
	assert.Zero(t, f.cells.writes)
	assert.Empty(t, f.mirror.enqueued)
}

func TestEditorSaveFailureKeepsEditsDirty(t *testing.T) {
	f := newEditorFixture(t, models.NewScheduleCell("teacher-1", models.Monday, "h1", models.Selection{Kind: models.EntryAssignment, ID: "asg-a"}))
	ctx := context.Background()

	_, err := f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-b")))
	require.NoError(t, err)

	f.cells.replaceErr = errors.New("disk full")
	_, err = f.svc.Save(ctx, "teacher-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErr.Code)
	assert.True(t, appErr.Retryable)
	assert.Empty(t, f.mirror.enqueued)

	view, err := f.svc.View(ctx, "teacher-1")
	require.NoError(t, err)
	assert.True(t, view.Dirty)
	require.Len(t, view.Cells, 1)
	assert.Equal(t, "asg-b", view.Cells[0].RefID)

	stored := f.cells.stored("teacher-1")
	require.Len(t, stored, 1)
	assert.Equal(t, "asg-a", *stored[0].AssignmentID)

	f.cells.replaceErr = nil
	res, err := f.svc.Save(ctx, "teacher-1")
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.False(t, res.Dirty)
}

func TestEditorSaveSurvivesCancelledRequest(t *testing.T) {
	f := newEditorFixture(t)
	_, err := f.svc.SetCell(context.Background(), "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-a")))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.Save(ctx, "teacher-1")
	require.NoError(t, err)
	assert.NoError(t, f.cells.lastCtxErr)
	assert.Equal(t, 1, f.cells.writes)
}

func TestEditorEditsDuringSaveStayPending(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	_, err := f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-a")))
	require.NoError(t, err)

	f.cells.onReplace = func() {
		f.cells.onReplace = nil
		_, err := f.svc.SetCell(ctx, "teacher-1", setReq("THURSDAY", "h2", sel(models.EntryActivity, "act-t")))
		require.NoError(t, err)
	}

	res, err := f.svc.Save(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cells)
	assert.True(t, res.Dirty)
	assert.Len(t, f.cells.stored("teacher-1"), 1)

	res, err = f.svc.Save(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Cells)
	assert.False(t, res.Dirty)
}

func TestEditorDiscardRestoresPersisted(t *testing.T) {
	f := newEditorFixture(t, models.NewScheduleCell("teacher-1", models.Monday, "h1", models.Selection{Kind: models.EntryAssignment, ID: "asg-a"}))
	ctx := context.Background()

	_, err := f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", nil))
	require.NoError(t, err)
	_, err = f.svc.SetCell(ctx, "teacher-1", setReq("SATURDAY", "h2", sel(models.EntryAssignment, "asg-b")))
	require.NoError(t, err)

	view, err := f.svc.Discard(ctx, "teacher-1")
	require.NoError(t, err)
	assert.False(t, view.Dirty)
	require.Len(t, view.Cells, 1)
	assert.Equal(t, models.Monday, view.Cells[0].Day)
	assert.Equal(t, "asg-a", view.Cells[0].RefID)
}

func TestEditorDiscardWaitsForInFlightSave(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	_, err := f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-a")))
	require.NoError(t, err)

	discarded := make(chan *dto.ScheduleView, 1)
	f.cells.onReplace = func() {
		f.cells.onReplace = nil
		go func() {
			view, err := f.svc.Discard(ctx, "teacher-1")
			assert.NoError(t, err)
			discarded <- view
		}()
		time.Sleep(20 * time.Millisecond)
	}

	res, err := f.svc.Save(ctx, "teacher-1")
	require.NoError(t, err)
	assert.False(t, res.Dirty)

	view := <-discarded
	require.NotNil(t, view)
	assert.False(t, view.Dirty)
	require.Len(t, view.Cells, 1)
	assert.Equal(t, "asg-a", view.Cells[0].RefID)

	view, err = f.svc.View(ctx, "teacher-1")
	require.NoError(t, err)
	assert.False(t, view.Dirty)
	assert.Len(t, view.Cells, 1)
	assert.Len(t, f.cells.stored("teacher-1"), 1)
}

func TestEditorUsesTeacherInstitutionForTimeSlots(t *testing.T) {
	cells := &stubCellRepo{rows: []models.ScheduleCell{
		models.NewScheduleCell("teacher-1", models.Monday, "h1", models.Selection{Kind: models.EntryAssignment, ID: "asg-a"}),
		models.NewScheduleCell("teacher-1", models.Tuesday, "h2", models.Selection{Kind: models.EntryActivity, ID: "act-t"}),
	}}
	slots := &stubTimeSlots{byInstitution: map[string][]models.TimeSlot{
		"inst-1": fixtureSlots(),
		"inst-2": {{ID: "x1", InstitutionID: "inst-2", Label: "Block A", Order: 1, StartTime: "08:00", EndTime: "09:30", Status: models.StatusActive}},
	}}
	svc := NewScheduleEditorService(cells, fixtureCatalog(), slots, fixtureDirectory(), &stubMirror{},
		validator.New(), NewMetricsService(), zap.NewNop(), ScheduleEditorConfig{SessionTTL: time.Hour, SaveTimeout: time.Second})
	ctx := context.Background()

	view, err := svc.View(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Len(t, view.TimeSlots, 3)
	assert.Len(t, view.Cells, 2)

	_, err = svc.SetCell(ctx, "teacher-1", setReq("WEDNESDAY", "h1", sel(models.EntryAssignment, "asg-b")))
	require.NoError(t, err)
	res, err := svc.Save(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Cells)
	assert.Len(t, cells.stored("teacher-1"), 3)

	for _, institution := range slots.requested() {
		assert.Equal(t, "inst-1", institution)
	}
}

func TestEditorUnknownTeacherWithoutDefaultInstitution(t *testing.T) {
	f := newEditorFixture(t)

	_, err := f.svc.View(context.Background(), "teacher-9")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Zero(t, f.svc.sessions.Len())
}

func TestEditorSweepEvictsIdleSessions(t *testing.T) {
	f := newEditorFixture(t)
	clock := &fakeClock{now: time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)}
	f.svc.sessions = newSessionStore(time.Hour, clock.Now)
	ctx := context.Background()

	_, err := f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-a")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.metrics.Snapshot().ActiveSessions)

	clock.Advance(30 * time.Minute)
	assert.Zero(t, f.svc.Sweep())

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, f.svc.Sweep())
	assert.Equal(t, int64(0), f.metrics.Snapshot().ActiveSessions)

	view, err := f.svc.View(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Empty(t, view.Cells)
	assert.False(t, view.Dirty)
}

func TestEditorSessionsAreIsolatedPerTeacher(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetCell(ctx, "teacher-1", setReq("MONDAY", "h1", sel(models.EntryAssignment, "asg-a")))
	require.NoError(t, err)

	view, err := f.svc.View(ctx, "teacher-2")
	require.NoError(t, err)
	assert.Empty(t, view.Cells)
	assert.False(t, view.Dirty)
}
