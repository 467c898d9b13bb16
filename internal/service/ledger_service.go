package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/labdesk/lab-ledger-api/internal/models"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
)

// dashboardCachePattern matches every cached dashboard payload. Mutations
// invalidate the whole family rather than chasing individual keys.
const dashboardCachePattern = "dash:*"

type ledgerStudentRepository interface {
	FindByRegNo(ctx context.Context, regNo string) (*models.Student, error)
}

type ledgerEntryRepository interface {
	Create(ctx context.Context, entry *models.Entry) (*models.CheckInConflict, error)
	CloseOpen(ctx context.Context, studentID int64, date, timeOut string) (int64, error)
}

// CheckInRequest carries the kiosk form fields for a check-in.
type CheckInRequest struct {
	RegNo    string `form:"reg_no"`
	SystemNo string `form:"system_no"`
}

// CheckOutRequest carries the kiosk form fields for a check-out.
type CheckOutRequest struct {
	RegNo string `form:"reg_no"`
}

// CheckInResult describes a successful check-in.
type CheckInResult struct {
	Student  models.Student
	SystemNo string
	TimeIn   string
	Date     string
}

// CheckOutResult describes a successful check-out.
type CheckOutResult struct {
	Student models.Student
	TimeOut string
	Date    string
}

// LedgerService implements the lab's occupancy rules: one student per
// workstation, one open entry per student, all scoped to the current day.
type LedgerService struct {
	students ledgerStudentRepository
	entries  ledgerEntryRepository
	cache    *CacheService
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
	labName  string
}

// NewLedgerService constructs the ledger service.
func NewLedgerService(students ledgerStudentRepository, entries ledgerEntryRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, labName string) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if labName == "" {
		labName = "Computer Lab"
	}
	return &LedgerService{
		students: students,
		entries:  entries,
		cache:    cache,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
		labName:  labName,
	}
}

// CheckIn assigns a workstation to the student for the current day.
func (s *LedgerService) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	result, err := s.checkIn(ctx, req)
	if s.metrics != nil {
		s.metrics.RecordCheckIn(outcomeFor(err))
	}
	return result, err
}

func (s *LedgerService) checkIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	regNo := normalizeRegNo(req.RegNo)
	systemNo := strings.TrimSpace(req.SystemNo)
	if err := s.validate.Var(regNo, "required"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please enter a Register Number.")
	}
	if err := s.validate.Var(systemNo, "required"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please enter a System Number.")
	}

	student, err := s.students.FindByRegNo(ctx, regNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Register Number '%s' not found. Please contact admin.", regNo))
		}
		s.logger.Error("check-in lookup failed", zap.String("reg_no", regNo), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	at := s.now()
	entry := &models.Entry{
		StudentID: student.ID,
		LabName:   s.labName,
		SystemNo:  systemNo,
		TimeIn:    at.Format("15:04:05"),
		Date:      at.Format("2006-01-02"),
	}

	conflict, err := s.entries.Create(ctx, entry)
	if err != nil {
		s.logger.Error("check-in insert failed", zap.String("reg_no", regNo), zap.String("system_no", systemNo), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if conflict != nil {
		return nil, s.conflictError(student, systemNo, conflict)
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("student checked in",
		zap.String("reg_no", student.RegNo),
		zap.String("system_no", systemNo),
		zap.String("date", entry.Date),
	)
	return &CheckInResult{Student: *student, SystemNo: systemNo, TimeIn: entry.TimeIn, Date: entry.Date}, nil
}

func (s *LedgerService) conflictError(student *models.Student, systemNo string, conflict *models.CheckInConflict) error {
	switch conflict.Kind {
	case models.ConflictWorkstation:
		occupant := conflict.Occupant.StudentName
		if occupant == "" {
			occupant = "another student"
		}
		return appErrors.Clone(appErrors.ErrWorkstationOccupied,
			fmt.Sprintf("System %s is already occupied by %s. Please choose another system.", systemNo, occupant))
	case models.ConflictStudentInside:
		if conflict.Occupant.SystemNo != "" {
			return appErrors.Clone(appErrors.ErrAlreadyCheckedIn,
				fmt.Sprintf("%s is already inside the lab on System %s!", student.Name, conflict.Occupant.SystemNo))
		}
		return appErrors.Clone(appErrors.ErrAlreadyCheckedIn,
			fmt.Sprintf("%s is already inside the lab!", student.Name))
	default:
		return appErrors.Clone(appErrors.ErrInternal, "")
	}
}

// CheckOut closes the student's open entry for the current day.
func (s *LedgerService) CheckOut(ctx context.Context, req CheckOutRequest) (*CheckOutResult, error) {
	result, err := s.checkOut(ctx, req)
	if s.metrics != nil {
		s.metrics.RecordCheckOut(outcomeFor(err))
	}
	return result, err
}

func (s *LedgerService) checkOut(ctx context.Context, req CheckOutRequest) (*CheckOutResult, error) {
	regNo := normalizeRegNo(req.RegNo)
	if err := s.validate.Var(regNo, "required"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please enter a Register Number.")
	}

	student, err := s.students.FindByRegNo(ctx, regNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Register Number '%s' not found.", regNo))
		}
		s.logger.Error("check-out lookup failed", zap.String("reg_no", regNo), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	at := s.now()
	date := at.Format("2006-01-02")
	timeOut := at.Format("15:04:05")

	closed, err := s.entries.CloseOpen(ctx, student.ID, date, timeOut)
	if err != nil {
		s.logger.Error("check-out update failed", zap.String("reg_no", regNo), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if closed == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoOpenEntry,
			fmt.Sprintf("No open entry found for %s today. Please check in first.", student.Name))
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("student checked out",
		zap.String("reg_no", student.RegNo),
		zap.String("date", date),
	)
	return &CheckOutResult{Student: *student, TimeOut: timeOut, Date: date}, nil
}

func (s *LedgerService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func normalizeRegNo(regNo string) string {
	return strings.ToUpper(strings.TrimSpace(regNo))
}

// outcomeFor maps a service error to its metrics label.
func outcomeFor(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	switch appErrors.FromError(err).Code {
	case appErrors.ErrWorkstationOccupied.Code:
		return OutcomeWorkstationOccupied
	case appErrors.ErrAlreadyCheckedIn.Code:
		return OutcomeAlreadyCheckedIn
	case appErrors.ErrNoOpenEntry.Code:
		return OutcomeNoOpenEntry
	case appErrors.ErrNotFound.Code:
		return OutcomeNotFound
	case appErrors.ErrValidation.Code:
		return OutcomeValidation
	default:
		return OutcomeError
	}
}
