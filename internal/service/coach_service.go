package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campussports/sportsdesk-api/internal/models"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
)

type coachRepository interface {
	FindByID(ctx context.Context, id string) (*models.Coach, error)
	Exists(ctx context.Context, email, microsoftID string) (bool, error)
	Create(ctx context.Context, coach *models.Coach) error
	Update(ctx context.Context, coach *models.Coach) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter models.CoachFilter) ([]models.Coach, int, error)
	DistinctSports(ctx context.Context) ([]string, error)
}

type coachStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

// CoachService implements admin-side coach management and the coach roster.
type CoachService struct {
	repo      coachRepository
	students  coachStudentRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCoachService constructs a CoachService instance.
func NewCoachService(repo coachRepository, students coachStudentRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *CoachService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CoachService{repo: repo, students: students, audit: audit, validator: validate, logger: logger}
}

// Create registers a new coach with a bcrypt-hashed step-up password.
func (s *CoachService) Create(ctx context.Context, adminID string, input models.CreateCoachInput) (*models.Coach, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coach payload")
	}

	exists, err := s.repo.Exists(ctx, input.Email, input.MicrosoftID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check coach uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a coach with this email or identity already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	coach := &models.Coach{
		Name:         input.Name,
		Email:        input.Email,
		Sport:        input.Sport,
		PasswordHash: string(hash),
		MicrosoftID:  input.MicrosoftID,
	}
	if err := s.repo.Create(ctx, coach); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create coach")
	}

	s.recordChange(ctx, adminID, models.AuditActionCoachCreate, coach.ID)
	return coach, nil
}

// Update modifies a coach's profile, rehashing the password when provided.
func (s *CoachService) Update(ctx context.Context, adminID, id string, input models.UpdateCoachInput) (*models.Coach, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coach payload")
	}

	coach, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coach not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coach")
	}

	if input.Name != nil {
		coach.Name = *input.Name
	}
	if input.Email != nil {
		coach.Email = *input.Email
	}
	if input.Sport != nil {
		coach.Sport = *input.Sport
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		coach.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, coach); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coach")
	}

	s.recordChange(ctx, adminID, models.AuditActionCoachUpdate, coach.ID)
	return coach, nil
}

// Delete removes a coach account.
func (s *CoachService) Delete(ctx context.Context, adminID, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete coach")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "coach not found")
	}
	s.recordChange(ctx, adminID, models.AuditActionCoachDelete, id)
	return nil
}

// List returns coaches matching the filter.
func (s *CoachService) List(ctx context.Context, filter models.CoachFilter) ([]models.Coach, *models.Pagination, error) {
	coaches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coaches")
	}
	return coaches, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Roster lists students visible to the caller. Coaches are scoped to their
// own sport.
func (s *CoachService) Roster(ctx context.Context, claims *models.JWTClaims, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if claims.Role == models.RoleCoach {
		filter.Sport = claims.Sport
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Sports lists the distinct sports coaches are assigned to.
func (s *CoachService) Sports(ctx context.Context) ([]string, error) {
	sports, err := s.repo.DistinctSports(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sports")
	}
	return sports, nil
}

func (s *CoachService) recordChange(ctx context.Context, adminID, action, coachID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   "coach",
		ResourceID: &coachID,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record coach audit entry", zap.Error(err))
	}
}
