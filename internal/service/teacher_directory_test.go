package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
)

type stubInstitutionRepo struct {
	institutions map[string]string
	err          error
}

func (s *stubInstitutionRepo) FindInstitutionByTeacherID(ctx context.Context, teacherID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	institution, ok := s.institutions[teacherID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return institution, nil
}

func TestTeacherDirectoryUsesAccountInstitution(t *testing.T) {
	dir := NewTeacherDirectory(&stubInstitutionRepo{institutions: map[string]string{"teacher-1": " inst-2 "}}, "inst-1", zap.NewNop())

	institution, err := dir.InstitutionOf(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "inst-2", institution)
}

func TestTeacherDirectoryFallsBackToDefault(t *testing.T) {
	repo := &stubInstitutionRepo{institutions: map[string]string{"teacher-2": ""}}
	dir := NewTeacherDirectory(repo, "inst-1", zap.NewNop())

	for _, teacherID := range []string{"teacher-1", "teacher-2"} {
		institution, err := dir.InstitutionOf(context.Background(), teacherID)
		require.NoError(t, err, teacherID)
		assert.Equal(t, "inst-1", institution, teacherID)
	}
}

func TestTeacherDirectoryUnknownTeacherWithoutDefault(t *testing.T) {
	dir := NewTeacherDirectory(&stubInstitutionRepo{}, "", zap.NewNop())

	_, err := dir.InstitutionOf(context.Background(), "teacher-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTeacherDirectoryStorageFailure(t *testing.T) {
	dir := NewTeacherDirectory(&stubInstitutionRepo{err: errors.New("connection reset")}, "inst-1", zap.NewNop())

	_, err := dir.InstitutionOf(context.Background(), "teacher-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrStorage)
}
