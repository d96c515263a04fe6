package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/teacher-schedule-api/internal/models"
	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
)

type timeSlotRepository interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]models.TimeSlot, error)
}

// TimeSlotService serves the pedagogical-hour catalog of an institution.
type TimeSlotService struct {
	repo     timeSlotRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewTimeSlotService constructs the service. cache may be nil.
func NewTimeSlotService(repo timeSlotRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *TimeSlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func timeSlotCacheKey(institutionID string) string {
	return "timeslots:" + institutionID
}

// List returns the active slots of the institution ordered by position. An
// empty catalog is valid.
func (s *TimeSlotService) List(ctx context.Context, institutionID string) ([]models.TimeSlot, error) {
	institutionID = strings.TrimSpace(institutionID)
	if institutionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "institution_id is required")
	}

	var slots []models.TimeSlot
	key := timeSlotCacheKey(institutionID)
	if s.cache.Get(ctx, key, &slots) {
		return slots, nil
	}

	slots, err := s.repo.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load time slots")
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Order < slots[j].Order })

	s.cache.Set(ctx, key, slots, s.cacheTTL)
	return slots, nil
}
