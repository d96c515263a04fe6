package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-schedule-api/internal/dto"
	"github.com/noah-isme/teacher-schedule-api/pkg/jobs"
)

const mirrorJobType = "schedule_mirror"

type scheduleExporter interface {
	Export(ctx context.Context, teacherID, format string) (*dto.ExportFile, error)
}

type mirrorStorage interface {
	Save(filename string, data []byte) (string, error)
}

type mirrorPayload struct {
	TeacherID string
}

// ScheduleMirrorConfig tunes the mirror worker pool.
type ScheduleMirrorConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// ScheduleMirrorService keeps a spreadsheet copy of every saved schedule.
// Jobs are keyed by teacher so a burst of saves renders the workbook once.
type ScheduleMirrorService struct {
	exporter scheduleExporter
	storage  mirrorStorage
	queue    *jobs.Queue
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewScheduleMirrorService builds the mirror and its queue. Start must be
// called before jobs are processed.
func NewScheduleMirrorService(exporter scheduleExporter, storage mirrorStorage, cfg ScheduleMirrorConfig, metrics *MetricsService, logger *zap.Logger) *ScheduleMirrorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &ScheduleMirrorService{exporter: exporter, storage: storage, metrics: metrics, logger: logger}
	m.queue = jobs.NewQueue("schedule-mirror", m.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return m
}

// MirrorPath is the storage location of a teacher's workbook.
func MirrorPath(teacherID string) string {
	return fmt.Sprintf("schedules/%s.xlsx", teacherID)
}

// Start launches the workers.
func (m *ScheduleMirrorService) Start(ctx context.Context) {
	if m == nil {
		return
	}
	m.queue.Start(ctx)
}

// Stop drains the workers.
func (m *ScheduleMirrorService) Stop() {
	if m == nil {
		return
	}
	m.queue.Stop()
}

// Enqueue schedules a refresh of the teacher's workbook. Failures are logged
// only; the database stays the source of truth.
func (m *ScheduleMirrorService) Enqueue(teacherID string) {
	if m == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    mirrorJobType,
		Key:     teacherID,
		Payload: mirrorPayload{TeacherID: teacherID},
	}
	if err := m.queue.Enqueue(job); err != nil {
		m.logger.Warn("failed to enqueue schedule mirror", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}

// Stats returns processed and failed job counts.
func (m *ScheduleMirrorService) Stats() (processed, failed uint64) {
	if m == nil {
		return 0, 0
	}
	return m.queue.Stats()
}

func (m *ScheduleMirrorService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(mirrorPayload)
	if !ok {
		m.logger.Error("unexpected mirror payload", zap.String("job_id", job.ID))
		return nil
	}

	file, err := m.exporter.Export(ctx, payload.TeacherID, "xlsx")
	if err != nil {
		m.metrics.RecordMirrorJob(false)
		return fmt.Errorf("render mirror workbook: %w", err)
	}
	path, err := m.storage.Save(MirrorPath(payload.TeacherID), file.Payload)
	if err != nil {
		m.metrics.RecordMirrorJob(false)
		return fmt.Errorf("store mirror workbook: %w", err)
	}
	m.metrics.RecordMirrorJob(true)
	m.logger.Debug("schedule mirrored", zap.String("teacher_id", payload.TeacherID), zap.String("path", path))
	return nil
}
