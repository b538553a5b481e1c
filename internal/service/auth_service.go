package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campussports/sportsdesk-api/internal/models"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
)

type graphClient interface {
	Me(ctx context.Context, accessToken string) (*models.GraphProfile, error)
}

type authStudentRepository interface {
	FindByMicrosoftID(ctx context.Context, microsoftID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type authCoachRepository interface {
	FindByMicrosoftID(ctx context.Context, microsoftID string) (*models.Coach, error)
}

type authAdminRepository interface {
	FindByMicrosoftID(ctx context.Context, microsoftID string) (*models.Admin, error)
}

type auditWriter interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// AuthConfig defines configuration for session credential issuance.
type AuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
}

// AuthService resolves external identities to application users and issues
// session credentials.
//
// Identity lookup is ordered: a Microsoft id registered as both a student and
// a coach resolves as the student. Coaches and admins must additionally pass
// a password check before a token is issued.
type AuthService struct {
	graph     graphClient
	students  authStudentRepository
	coaches   authCoachRepository
	admins    authAdminRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(graph graphClient, students authStudentRepository, coaches authCoachRepository, admins authAdminRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		graph:     graph,
		students:  students,
		coaches:   coaches,
		admins:    admins,
		audit:     audit,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// LoginWithProvider exchanges a provider access token for an application
// session. Unknown identities with a derivable roll number are auto-enrolled
// as students; coaches and admins get a requires-verification response
// instead of a token.
func (s *AuthService) LoginWithProvider(ctx context.Context, req models.ProviderLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	profile, err := s.graph.Me(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}

	if student, err := s.students.FindByMicrosoftID(ctx, profile.ID); err == nil {
		return s.studentSession(ctx, student)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student identity")
	}

	if coach, err := s.coaches.FindByMicrosoftID(ctx, profile.ID); err == nil {
		return &models.LoginResponse{User: coachAuthUser(coach), RequiresVerification: true}, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve coach identity")
	}

	if admin, err := s.admins.FindByMicrosoftID(ctx, profile.ID); err == nil {
		return &models.LoginResponse{User: adminAuthUser(admin), RequiresVerification: true}, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve admin identity")
	}

	return s.enrollStudent(ctx, profile)
}

// enrollStudent registers a first-time student whose email yields a roll
// number. Identities without one are rejected as unregistered.
func (s *AuthService) enrollStudent(ctx context.Context, profile *models.GraphProfile) (*models.LoginResponse, error) {
	rollNumber := ExtractRollNumber(profile.Email())
	if rollNumber == "" {
		unregistered := appErrors.Clone(appErrors.ErrUnregisteredUser, "account is not registered for this service")
		return nil, unregistered.WithDetails(models.UnregisteredIdentity{
			Name:        profile.DisplayName,
			Email:       profile.Email(),
			MicrosoftID: profile.ID,
		})
	}

	student := &models.Student{
		Name:        profile.DisplayName,
		RollNumber:  rollNumber,
		Email:       profile.Email(),
		Sport:       InferSport(profile.JobTitle, profile.Department, profile.OfficeLocation),
		MicrosoftID: profile.ID,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}

	s.logger.Info("enrolled new student",
		zap.String("student_id", student.ID),
		zap.String("roll_number", student.RollNumber),
		zap.String("sport", student.Sport))

	return s.studentSession(ctx, student)
}

func (s *AuthService) studentSession(ctx context.Context, student *models.Student) (*models.LoginResponse, error) {
	user := models.AuthUser{
		ID:          student.ID,
		Name:        student.Name,
		Email:       student.Email,
		Role:        models.RoleStudent,
		Sport:       student.Sport,
		MicrosoftID: student.MicrosoftID,
	}
	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	s.recordLogin(ctx, user.ID, models.AuditActionLogin)
	return &models.LoginResponse{User: user, Token: token}, nil
}

// VerifyRole completes a coach or admin login by checking the account
// password and issuing the session token.
func (s *AuthService) VerifyRole(ctx context.Context, req models.VerifyRoleRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}

	var user models.AuthUser
	var passwordHash string

	switch req.Role {
	case models.RoleCoach:
		coach, err := s.coaches.FindByMicrosoftID(ctx, req.MicrosoftID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrInvalidCredential, "invalid credentials")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve coach identity")
		}
		user = coachAuthUser(coach)
		passwordHash = coach.PasswordHash
	case models.RoleAdmin:
		admin, err := s.admins.FindByMicrosoftID(ctx, req.MicrosoftID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrInvalidCredential, "invalid credentials")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve admin identity")
		}
		user = adminAuthUser(admin)
		passwordHash = admin.PasswordHash
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be Coach or Admin")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredential, "invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	s.recordLogin(ctx, user.ID, models.AuditActionRoleVerify)
	return &models.LoginResponse{User: user, Token: token}, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if !claims.Role.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) generateToken(user models.AuthUser) (string, error) {
	now := time.Now().UTC()
	claims := models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Sport:  user.Sport,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return signed, nil
}

func (s *AuthService) recordLogin(ctx context.Context, userID, action string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:   &userID,
		Action:   action,
		Resource: "session",
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record login audit entry", zap.Error(err))
	}
}

func coachAuthUser(coach *models.Coach) models.AuthUser {
	return models.AuthUser{
		ID:          coach.ID,
		Name:        coach.Name,
		Email:       coach.Email,
		Role:        models.RoleCoach,
		Sport:       coach.Sport,
		MicrosoftID: coach.MicrosoftID,
	}
}

func adminAuthUser(admin *models.Admin) models.AuthUser {
	return models.AuthUser{
		ID:          admin.ID,
		Name:        admin.Name,
		Email:       admin.Email,
		Role:        models.RoleAdmin,
		MicrosoftID: admin.MicrosoftID,
	}
}
