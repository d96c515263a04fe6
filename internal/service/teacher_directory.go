package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/teacher-schedule-api/pkg/errors"
)

type teacherInstitutionRepository interface {
	FindInstitutionByTeacherID(ctx context.Context, teacherID string) (string, error)
}

// TeacherDirectory resolves the institution a teacher's schedule belongs to.
// The answer depends only on the teacher, never on the caller.
type TeacherDirectory struct {
	repo               teacherInstitutionRepository
	defaultInstitution string
	logger             *zap.Logger
}

// NewTeacherDirectory constructs the directory. defaultInstitution serves
// teachers without an account or whose account has no institution.
func NewTeacherDirectory(repo teacherInstitutionRepository, defaultInstitution string, logger *zap.Logger) *TeacherDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherDirectory{repo: repo, defaultInstitution: strings.TrimSpace(defaultInstitution), logger: logger}
}

// InstitutionOf returns the teacher's institution.
func (d *TeacherDirectory) InstitutionOf(ctx context.Context, teacherID string) (string, error) {
	institutionID, err := d.repo.FindInstitutionByTeacherID(ctx, teacherID)
	switch {
	case err == nil && strings.TrimSpace(institutionID) != "":
		return strings.TrimSpace(institutionID), nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return "", appErrors.Storage(err, "failed to resolve teacher")
	}
	if d.defaultInstitution != "" {
		return d.defaultInstitution, nil
	}
	d.logger.Debug("teacher has no institution", zap.String("teacher_id", teacherID))
	return "", appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
}
