package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campussports/sportsdesk-api/pkg/export"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
)

type certificateRenderer interface {
	Render(data export.CertificateData) ([]byte, error)
}

type openTransactionChecker interface {
	HasOpenTransactions(ctx context.Context, studentID string) (bool, error)
}

// NoDuesStatus reports a student's clearance position.
type NoDuesStatus struct {
	StudentID string `json:"student_id"`
	Cleared   bool   `json:"cleared"`
}

// NoDuesCertificate is a rendered clearance document.
type NoDuesCertificate struct {
	Data     []byte
	Filename string
}

// NoDuesService issues clearance certificates to students with no equipment
// outstanding.
type NoDuesService struct {
	students     transactionStudentRepository
	transactions openTransactionChecker
	renderer     certificateRenderer
	logger       *zap.Logger
	now          func() time.Time
}

// NewNoDuesService constructs a NoDuesService instance.
func NewNoDuesService(students transactionStudentRepository, transactions openTransactionChecker, renderer certificateRenderer, logger *zap.Logger) *NoDuesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewCertificateRenderer("")
	}
	return &NoDuesService{
		students:     students,
		transactions: transactions,
		renderer:     renderer,
		logger:       logger,
		now:          time.Now,
	}
}

// Status reports whether the student is cleared of equipment dues.
func (s *NoDuesService) Status(ctx context.Context, studentID string) (*NoDuesStatus, error) {
	open, err := s.transactions.HasOpenTransactions(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &NoDuesStatus{StudentID: studentID, Cleared: !open}, nil
}

// Certificate renders a no-dues PDF for the student. Students holding any
// open equipment transaction are refused.
func (s *NoDuesService) Certificate(ctx context.Context, studentID string) (*NoDuesCertificate, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	open, err := s.transactions.HasOpenTransactions(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, appErrors.Clone(appErrors.ErrOpenTransaction, "certificate unavailable while equipment is outstanding")
	}

	reference := uuid.NewString()
	payload, err := s.renderer.Render(export.CertificateData{
		StudentName: student.Name,
		RollNumber:  student.RollNumber,
		Sport:       student.Sport,
		ReferenceID: reference,
		IssuedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	s.logger.Info("issued no-dues certificate",
		zap.String("student_id", student.ID),
		zap.String("reference", reference))
	return &NoDuesCertificate{
		Data:     payload,
		Filename: "no_dues_" + student.RollNumber + ".pdf",
	}, nil
}
