package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-schedule-api/internal/dto"
	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
)

type assignmentRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error)
}

type activityRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherActivity, error)
	Create(ctx context.Context, activity *models.TeacherActivity) error
	Archive(ctx context.Context, teacherID, id string) error
}

// CatalogService exposes the assignments and activities a teacher can place on
// the grid.
type CatalogService struct {
	assignments assignmentRepository
	activities  activityRepository
	cache       *CacheService
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(assignments assignmentRepository, activities activityRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		assignments: assignments,
		activities:  activities,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger,
	}
}

func assignmentCacheKey(teacherID string) string {
	return "assignments:" + teacherID
}

// ListAssignments returns the teacher's active assignments.
func (s *CatalogService) ListAssignments(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	if strings.TrimSpace(teacherID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}

	var assignments []models.TeacherAssignment
	key := assignmentCacheKey(teacherID)
	if s.cache.Get(ctx, key, &assignments) {
		return assignments, nil
	}

	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load assignments")
	}
	s.cache.Set(ctx, key, assignments, s.cacheTTL)
	return assignments, nil
}

// ListActivities returns the teacher's active activities.
func (s *CatalogService) ListActivities(ctx context.Context, teacherID string) ([]models.TeacherActivity, error) {
	if strings.TrimSpace(teacherID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	activities, err := s.activities.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load activities")
	}
	return activities, nil
}

// CreateActivity stores a new activity. Names are trimmed and must not be
// empty; duplicates are allowed and each call yields a distinct id.
func (s *CatalogService) CreateActivity(ctx context.Context, teacherID string, req dto.CreateActivityRequest) (*models.TeacherActivity, error) {
	if strings.TrimSpace(teacherID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity name is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}

	activity := &models.TeacherActivity{
		TeacherID: teacherID,
		Name:      req.Name,
		Status:    models.StatusActive,
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, appErrors.Storage(err, "failed to create activity")
	}
	s.logger.Info("activity created", zap.String("teacher_id", teacherID), zap.String("activity_id", activity.ID))
	return activity, nil
}

// ArchiveActivity retires an activity. Cells that still reference it are
// dropped the next time the schedule is loaded.
func (s *CatalogService) ArchiveActivity(ctx context.Context, teacherID, activityID string) error {
	if strings.TrimSpace(teacherID) == "" || strings.TrimSpace(activityID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "teacher id and activity id are required")
	}
	if err := s.activities.Archive(ctx, teacherID, activityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return appErrors.Storage(err, "failed to archive activity")
	}
	s.logger.Info("activity archived", zap.String("teacher_id", teacherID), zap.String("activity_id", activityID))
	return nil
}
