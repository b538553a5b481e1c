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

	"github.com/campussports/sportsdesk-api/internal/models"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
)

type transactionRepository interface {
	Create(ctx context.Context, txn *models.EquipmentTransaction) error
	FindByID(ctx context.Context, id string) (*models.EquipmentTransaction, error)
	SweepOverdue(ctx context.Context, studentID string, now time.Time) (int64, error)
	CountOpenForStudent(ctx context.Context, studentID string) (int, error)
	MarkTaken(ctx context.Context, id, studentID string, takenAt time.Time) (bool, error)
	MarkReturned(ctx context.Context, id, studentID string, returnedAt time.Time) (bool, error)
	Approve(ctx context.Context, id, approverID string, approverRole models.UserRole, now time.Time) (bool, error)
	Reject(ctx context.Context, id, approverID string, approverRole models.UserRole, notes string, now time.Time) (bool, error)
	ListForStudent(ctx context.Context, studentID string, filter models.TransactionFilter) ([]models.EquipmentTransaction, int, error)
	PendingReturns(ctx context.Context, sport string, page, pageSize int) ([]models.LogbookEntry, int, error)
	Logbook(ctx context.Context, filter models.TransactionFilter) ([]models.LogbookEntry, int, error)
	Facets(ctx context.Context) (*models.LogbookFacets, error)
}

type transactionStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// TransactionService implements the equipment borrow lifecycle.
//
// Overdue detection is lazy: reads that surface transaction state first sweep
// Taken records past their due date into Overdue, so clients always observe a
// consistent status without a background scheduler.
type TransactionService struct {
	repo      transactionRepository
	students  transactionStudentRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTransactionService constructs a TransactionService instance.
func NewTransactionService(repo transactionRepository, students transactionStudentRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TransactionService{
		repo:      repo,
		students:  students,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Request creates a new borrow request for the student. A student with any
// open transaction (Taken, ReturnedPendingApproval or Overdue) may not
// request again until it is closed.
func (s *TransactionService) Request(ctx context.Context, studentID string, input models.EquipmentRequestInput) (*models.EquipmentTransaction, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid equipment request")
	}
	now := s.now().UTC()
	if !input.DueDate.After(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due date must be in the future")
	}

	if _, err := s.repo.SweepOverdue(ctx, studentID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh overdue state")
	}

	open, err := s.repo.CountOpenForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open transactions")
	}
	if open > 0 {
		return nil, appErrors.Clone(appErrors.ErrOpenTransaction, "")
	}

	txn := &models.EquipmentTransaction{
		StudentID: studentID,
		Equipment: input.Equipment,
		Quantity:  input.Quantity,
		DueDate:   input.DueDate.UTC(),
		Status:    models.StatusRequested,
		Notes:     input.Notes,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment request")
	}

	s.logger.Info("equipment requested",
		zap.String("transaction_id", txn.ID),
		zap.String("student_id", studentID),
		zap.String("equipment", txn.Equipment))
	return txn, nil
}

// MarkTaken records that the student picked up the equipment of a Requested
// transaction they own.
func (s *TransactionService) MarkTaken(ctx context.Context, id, studentID string) (*models.EquipmentTransaction, error) {
	updated, err := s.repo.MarkTaken(ctx, id, studentID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark equipment taken")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no matching request found")
	}
	return s.fetch(ctx, id)
}

// MarkReturned records that the student handed back equipment from a Taken or
// Overdue transaction they own, pending approval.
func (s *TransactionService) MarkReturned(ctx context.Context, id, studentID string) (*models.EquipmentTransaction, error) {
	now := s.now().UTC()
	if _, err := s.repo.SweepOverdue(ctx, studentID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh overdue state")
	}
	updated, err := s.repo.MarkReturned(ctx, id, studentID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark equipment returned")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no matching borrowed equipment found")
	}
	return s.fetch(ctx, id)
}

// ListMine lists the calling student's own transactions.
func (s *TransactionService) ListMine(ctx context.Context, studentID string, filter models.TransactionFilter) ([]models.EquipmentTransaction, *models.Pagination, error) {
	if _, err := s.repo.SweepOverdue(ctx, studentID, s.now().UTC()); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh overdue state")
	}
	txns, total, err := s.repo.ListForStudent(ctx, studentID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transactions")
	}
	return txns, paginationFor(filter.Page, filter.PageSize, total), nil
}

// PendingReturns lists transactions awaiting approval. Coaches only see
// students of their own sport.
func (s *TransactionService) PendingReturns(ctx context.Context, claims *models.JWTClaims, page, pageSize int) ([]models.LogbookEntry, *models.Pagination, error) {
	sport := ""
	if claims.Role == models.RoleCoach {
		sport = claims.Sport
	}
	entries, total, err := s.repo.PendingReturns(ctx, sport, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending returns")
	}
	return entries, paginationFor(page, pageSize, total), nil
}

// ApproveReturn closes a pending return as accepted. Coaches may only
// approve returns from students of their sport.
func (s *TransactionService) ApproveReturn(ctx context.Context, id string, claims *models.JWTClaims) (*models.EquipmentTransaction, error) {
	txn, err := s.authorizeReview(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Approve(ctx, txn.ID, claims.UserID, claims.Role, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve return")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "return is no longer pending approval")
	}

	s.recordReview(ctx, claims.UserID, models.AuditActionReturnApprove, txn.ID)
	return s.fetch(ctx, id)
}

// RejectReturn closes a pending return as rejected, appending the reason to
// the transaction notes, and reopens the loan as a fresh Taken record so the
// student remains accountable for the equipment. The reason is optional.
func (s *TransactionService) RejectReturn(ctx context.Context, id string, claims *models.JWTClaims, input models.RejectReturnInput) (*models.EquipmentTransaction, error) {
	txn, err := s.authorizeReview(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "No reason provided"
	}
	notes := fmt.Sprintf("Rejection reason: %s", reason)
	if txn.Notes != nil && *txn.Notes != "" {
		notes = fmt.Sprintf("%s\n%s", *txn.Notes, notes)
	}

	updated, err := s.repo.Reject(ctx, txn.ID, claims.UserID, claims.Role, notes, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject return")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "return is no longer pending approval")
	}

	reopenedNotes := fmt.Sprintf("Return rejected. Reason: %s", reason)
	reopened := &models.EquipmentTransaction{
		StudentID: txn.StudentID,
		Equipment: txn.Equipment,
		Quantity:  txn.Quantity,
		TakenAt:   txn.TakenAt,
		DueDate:   txn.DueDate,
		Status:    models.StatusTaken,
		Notes:     &reopenedNotes,
	}
	if err := s.repo.Create(ctx, reopened); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen loan after rejection")
	}

	s.logger.Info("return rejected, loan reopened",
		zap.String("rejected_id", txn.ID),
		zap.String("reopened_id", reopened.ID),
		zap.String("student_id", txn.StudentID))
	s.recordReview(ctx, claims.UserID, models.AuditActionReturnReject, txn.ID)
	return s.fetch(ctx, id)
}

// Logbook lists all transactions with student details for staff callers.
// Coaches are forced onto their own sport regardless of the requested filter.
func (s *TransactionService) Logbook(ctx context.Context, claims *models.JWTClaims, filter models.TransactionFilter) ([]models.LogbookEntry, *models.Pagination, error) {
	if claims.Role == models.RoleCoach {
		filter.Sport = claims.Sport
	}
	if _, err := s.repo.SweepOverdue(ctx, "", s.now().UTC()); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh overdue state")
	}
	entries, total, err := s.repo.Logbook(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list logbook")
	}
	return entries, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Facets returns the distinct filter values present in the logbook.
func (s *TransactionService) Facets(ctx context.Context) (*models.LogbookFacets, error) {
	facets, err := s.repo.Facets(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect logbook facets")
	}
	return facets, nil
}

// HasOpenTransactions reports whether the student currently holds equipment,
// sweeping overdue state first.
func (s *TransactionService) HasOpenTransactions(ctx context.Context, studentID string) (bool, error) {
	if _, err := s.repo.SweepOverdue(ctx, studentID, s.now().UTC()); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh overdue state")
	}
	open, err := s.repo.CountOpenForStudent(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open transactions")
	}
	return open > 0, nil
}

// authorizeReview loads a transaction and checks that the caller may approve
// or reject its return.
func (s *TransactionService) authorizeReview(ctx context.Context, id string, claims *models.JWTClaims) (*models.EquipmentTransaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transaction not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transaction")
	}

	student, err := s.students.FindByID(ctx, txn.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !CanAccessStudent(claims, student) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to review this student's returns")
	}
	return txn, nil
}

func (s *TransactionService) fetch(ctx context.Context, id string) (*models.EquipmentTransaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transaction")
	}
	return txn, nil
}

func (s *TransactionService) recordReview(ctx context.Context, userID, action, txnID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "equipment_transaction",
		ResourceID: &txnID,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record review audit entry", zap.Error(err))
	}
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
