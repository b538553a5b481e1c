package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campussports/sportsdesk-api/internal/models"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.Attendance) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	Stats(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceStats, error)
}

// AttendanceService implements per-day attendance marking and reads.
type AttendanceService struct {
	repo      attendanceRepository
	students  transactionStudentRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(repo attendanceRepository, students transactionStudentRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, students: students, audit: audit, validator: validate, logger: logger}
}

// Mark records or overwrites a student's attendance for the given day.
// Coaches may only mark students of their own sport.
func (s *AttendanceService) Mark(ctx context.Context, claims *models.JWTClaims, input models.MarkAttendanceInput) (*models.Attendance, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !input.Status.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Present or Absent")
	}

	student, err := s.students.FindByID(ctx, input.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !CanAccessSport(claims, student.Sport) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to mark this student's attendance")
	}

	record := &models.Attendance{
		StudentID:    student.ID,
		Sport:        student.Sport,
		Date:         input.Date.UTC().Truncate(24 * time.Hour),
		Status:       input.Status,
		MarkedByID:   claims.UserID,
		MarkedByRole: claims.Role,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.recordMark(ctx, claims.UserID, record.ID)
	return record, nil
}

// List returns the attendance register. Coaches are scoped to their sport.
func (s *AttendanceService) List(ctx context.Context, claims *models.JWTClaims, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	if claims.Role == models.RoleCoach {
		filter.Sport = claims.Sport
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Stats aggregates present/absent counts for the filtered period. Coaches are
// scoped to their sport.
func (s *AttendanceService) Stats(ctx context.Context, claims *models.JWTClaims, filter models.AttendanceFilter) (*models.AttendanceStats, error) {
	if claims.Role == models.RoleCoach {
		filter.Sport = claims.Sport
	}
	stats, err := s.repo.Stats(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	return stats, nil
}

func (s *AttendanceService) recordMark(ctx context.Context, userID, recordID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionAttendanceMark,
		Resource:   "attendance",
		ResourceID: &recordID,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record attendance audit entry", zap.Error(err))
	}
}
