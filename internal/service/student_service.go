package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/labdesk/lab-ledger-api/internal/models"
	"github.com/labdesk/lab-ledger-api/pkg/database"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// RegisterStudentRequest holds the admin form payload for registering
// a student.
type RegisterStudentRequest struct {
	Name       string `form:"name" validate:"required"`
	RegNo      string `form:"reg_no" validate:"required"`
	Department string `form:"dept" validate:"required"`
}

// StudentService handles the student roster.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the roster ordered by name.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Register adds a student to the roster. Register numbers are stored
// uppercased so kiosk lookups are case-insensitive.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.RegNo = normalizeRegNo(req.RegNo)
	req.Department = strings.TrimSpace(req.Department)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "All fields are required.")
	}

	student := &models.Student{
		Name:       req.Name,
		RegNo:      req.RegNo,
		Department: req.Department,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if database.IsUniqueViolation(err, "reg_no") {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey,
				fmt.Sprintf("Register Number '%s' already exists.", req.RegNo))
		}
		s.logger.Error("student create failed", zap.String("reg_no", req.RegNo), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register student")
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("student registered", zap.String("reg_no", student.RegNo), zap.String("dept", student.Department))
	return student, nil
}

// Delete removes a student along with every ledger entry they own and
// returns the removed record.
func (s *StudentService) Delete(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("student delete failed", zap.Int64("student_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("student deleted", zap.Int64("student_id", id), zap.String("reg_no", student.RegNo))
	return student, nil
}

func (s *StudentService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
