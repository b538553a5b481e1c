package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campussports/sportsdesk-api/internal/models"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
)

type txnRepoStub struct {
	txns            map[string]*models.EquipmentTransaction
	openCount       int
	sweptStudents   []string
	lastRejectNotes string
	lastLogbook     models.TransactionFilter
	created         []*models.EquipmentTransaction
}

func newTxnRepoStub() *txnRepoStub {
	return &txnRepoStub{txns: map[string]*models.EquipmentTransaction{}}
}

func (r *txnRepoStub) Create(ctx context.Context, txn *models.EquipmentTransaction) error {
	if txn.ID == "" {
		txn.ID = fmt.Sprintf("txn-%d", len(r.txns)+1)
	}
	r.txns[txn.ID] = txn
	r.created = append(r.created, txn)
	return nil
}

func (r *txnRepoStub) FindByID(ctx context.Context, id string) (*models.EquipmentTransaction, error) {
	txn, ok := r.txns[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return txn, nil
}

func (r *txnRepoStub) SweepOverdue(ctx context.Context, studentID string, now time.Time) (int64, error) {
	r.sweptStudents = append(r.sweptStudents, studentID)
	var swept int64
	for _, txn := range r.txns {
		if txn.Status == models.StatusTaken && txn.DueDate.Before(now) {
			if studentID == "" || txn.StudentID == studentID {
				txn.Status = models.StatusOverdue
				swept++
			}
		}
	}
	return swept, nil
}

func (r *txnRepoStub) CountOpenForStudent(ctx context.Context, studentID string) (int, error) {
	return r.openCount, nil
}

func (r *txnRepoStub) MarkTaken(ctx context.Context, id, studentID string, takenAt time.Time) (bool, error) {
	txn, ok := r.txns[id]
	if !ok || txn.StudentID != studentID || txn.Status != models.StatusRequested {
		return false, nil
	}
	txn.Status = models.StatusTaken
	txn.TakenAt = &takenAt
	return true, nil
}

func (r *txnRepoStub) MarkReturned(ctx context.Context, id, studentID string, returnedAt time.Time) (bool, error) {
	txn, ok := r.txns[id]
	if !ok || txn.StudentID != studentID {
		return false, nil
	}
	if txn.Status != models.StatusTaken && txn.Status != models.StatusOverdue {
		return false, nil
	}
	txn.Status = models.StatusReturnedPendingApproval
	txn.ReturnedAt = &returnedAt
	return true, nil
}

func (r *txnRepoStub) Approve(ctx context.Context, id, approverID string, approverRole models.UserRole, now time.Time) (bool, error) {
	txn, ok := r.txns[id]
	if !ok || txn.Status != models.StatusReturnedPendingApproval {
		return false, nil
	}
	txn.Status = models.StatusApproved
	txn.ApprovedBy = &approverID
	txn.ApprovedByRole = &approverRole
	return true, nil
}

func (r *txnRepoStub) Reject(ctx context.Context, id, approverID string, approverRole models.UserRole, notes string, now time.Time) (bool, error) {
	txn, ok := r.txns[id]
	if !ok || txn.Status != models.StatusReturnedPendingApproval {
		return false, nil
	}
	txn.Status = models.StatusRejected
	txn.Notes = &notes
	r.lastRejectNotes = notes
	return true, nil
}

func (r *txnRepoStub) ListForStudent(ctx context.Context, studentID string, filter models.TransactionFilter) ([]models.EquipmentTransaction, int, error) {
	var out []models.EquipmentTransaction
	for _, txn := range r.txns {
		if txn.StudentID == studentID {
			out = append(out, *txn)
		}
	}
	return out, len(out), nil
}

func (r *txnRepoStub) PendingReturns(ctx context.Context, sport string, page, pageSize int) ([]models.LogbookEntry, int, error) {
	return nil, 0, nil
}

func (r *txnRepoStub) Logbook(ctx context.Context, filter models.TransactionFilter) ([]models.LogbookEntry, int, error) {
	r.lastLogbook = filter
	return nil, 0, nil
}

func (r *txnRepoStub) Facets(ctx context.Context) (*models.LogbookFacets, error) {
	return &models.LogbookFacets{Statuses: models.AllStatuses()}, nil
}

type txnStudentStub struct {
	students map[string]*models.Student
}

func (s *txnStudentStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := s.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func newTransactionServiceForTest(repo *txnRepoStub, students *txnStudentStub) (*TransactionService, *auditStub) {
	if students == nil {
		students = &txnStudentStub{students: map[string]*models.Student{}}
	}
	audit := &auditStub{}
	svc := NewTransactionService(repo, students, audit, validator.New(), zap.NewNop())
	return svc, audit
}

func TestTransactionRequestSuccess(t *testing.T) {
	repo := newTxnRepoStub()
	svc, _ := newTransactionServiceForTest(repo, nil)

	txn, err := svc.Request(context.Background(), "s1", models.EquipmentRequestInput{
		Equipment: "Basketball",
		Quantity:  2,
		DueDate:   time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, txn.Status)
	assert.Equal(t, "s1", txn.StudentID)
	assert.Contains(t, repo.sweptStudents, "s1")
}

func TestTransactionRequestBlockedByOpenTransaction(t *testing.T) {
	repo := newTxnRepoStub()
	repo.openCount = 1
	svc, _ := newTransactionServiceForTest(repo, nil)

	_, err := svc.Request(context.Background(), "s1", models.EquipmentRequestInput{
		Equipment: "Basketball",
		Quantity:  1,
		DueDate:   time.Now().Add(48 * time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOpenTransaction.Code, appErrors.FromError(err).Code)
}

func TestTransactionRequestPastDueDate(t *testing.T) {
	repo := newTxnRepoStub()
	svc, _ := newTransactionServiceForTest(repo, nil)

	_, err := svc.Request(context.Background(), "s1", models.EquipmentRequestInput{
		Equipment: "Basketball",
		Quantity:  1,
		DueDate:   time.Now().Add(-time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTransactionMarkTaken(t *testing.T) {
	repo := newTxnRepoStub()
	repo.txns["txn-1"] = &models.EquipmentTransaction{ID: "txn-1", StudentID: "s1", Status: models.StatusRequested}
	svc, _ := newTransactionServiceForTest(repo, nil)

	txn, err := svc.MarkTaken(context.Background(), "txn-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTaken, txn.Status)
	assert.NotNil(t, txn.TakenAt)
}

func TestTransactionMarkTakenWrongOwner(t *testing.T) {
	repo := newTxnRepoStub()
	repo.txns["txn-1"] = &models.EquipmentTransaction{ID: "txn-1", StudentID: "s1", Status: models.StatusRequested}
	svc, _ := newTransactionServiceForTest(repo, nil)

	_, err := svc.MarkTaken(context.Background(), "txn-1", "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTransactionMarkReturned(t *testing.T) {
	repo := newTxnRepoStub()
	repo.txns["txn-1"] = &models.EquipmentTransaction{
		ID:        "txn-1",
		StudentID: "s1",
		Status:    models.StatusTaken,
		DueDate:   time.Now().Add(time.Hour),
	}
	svc, _ := newTransactionServiceForTest(repo, nil)

	txn, err := svc.MarkReturned(context.Background(), "txn-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturnedPendingApproval, txn.Status)
	assert.NotNil(t, txn.ReturnedAt)
}

func TestTransactionMarkReturnedAfterOverdueSweep(t *testing.T) {
	repo := newTxnRepoStub()
	repo.txns["txn-1"] = &models.EquipmentTransaction{
		ID:        "txn-1",
		StudentID: "s1",
		Status:    models.StatusTaken,
		DueDate:   time.Now().Add(-time.Hour),
	}
	svc, _ := newTransactionServiceForTest(repo, nil)

	txn, err := svc.MarkReturned(context.Background(), "txn-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturnedPendingApproval, txn.Status)
}

func TestTransactionApproveReturn(t *testing.T) {
	repo := newTxnRepoStub()
	repo.txns["txn-1"] = &models.EquipmentTransaction{ID: "txn-1", StudentID: "s1", Status: models.StatusReturnedPendingApproval}
	students := &txnStudentStub{students: map[string]*models.Student{
		"s1": {ID: "s1", Sport: "Basketball"},
	}}
	svc, audit := newTransactionServiceForTest(repo, students)

	claims := &models.JWTClaims{UserID: "c1", Role: models.RoleCoach, Sport: "Basketball"}
	txn, err := svc.ApproveReturn(context.Background(), "txn-1", claims)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, txn.Status)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionReturnApprove, audit.entries[0].Action)
}

func TestTransactionApproveReturnWrongSport(t *testing.T) {
	repo := newTxnRepoStub()
	repo.txns["txn-1"] = &models.EquipmentTransaction{ID: "txn-1", StudentID: "s1", Status: models.StatusReturnedPendingApproval}
	students := &txnStudentStub{students: map[string]*models.Student{
		"s1": {ID: "s1", Sport: "Basketball"},
	}}
	svc, _ := newTransactionServiceForTest(repo, students)

	claims := &models.JWTClaims{UserID: "c1", Role: models.RoleCoach, Sport: "Tennis"}
	_, err := svc.ApproveReturn(context.Background(), "txn-1", claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTransactionRejectReturnReopensLoan(t *testing.T) {
	takenAt := time.Now().Add(-72 * time.Hour)
	dueDate := time.Now().Add(24 * time.Hour)
	existing := "handle scuffed at issue"
	repo := newTxnRepoStub()
	repo.txns["txn-1"] = &models.EquipmentTransaction{
		ID:        "txn-1",
		StudentID: "s1",
		Equipment: "Tennis Racket",
		Quantity:  1,
		TakenAt:   &takenAt,
		DueDate:   dueDate,
		Status:    models.StatusReturnedPendingApproval,
		Notes:     &existing,
	}
	students := &txnStudentStub{students: map[string]*models.Student{
		"s1": {ID: "s1", Sport: "Tennis"},
	}}
	svc, audit := newTransactionServiceForTest(repo, students)

	claims := &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	_, err := svc.RejectReturn(context.Background(), "txn-1", claims, models.RejectReturnInput{Reason: "strings snapped"})
	require.NoError(t, err)

	assert.Equal(t, "handle scuffed at issue\nRejection reason: strings snapped", repo.lastRejectNotes)
	assert.Equal(t, models.StatusRejected, repo.txns["txn-1"].Status)

	require.Len(t, repo.created, 1)
	reopened := repo.created[0]
	assert.Equal(t, models.StatusTaken, reopened.Status)
	assert.Equal(t, "s1", reopened.StudentID)
	assert.Equal(t, "Tennis Racket", reopened.Equipment)
	assert.Equal(t, dueDate, reopened.DueDate)
	require.NotNil(t, reopened.Notes)
	assert.Equal(t, "Return rejected. Reason: strings snapped", *reopened.Notes)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionReturnReject, audit.entries[0].Action)
}

func TestTransactionRejectReturnDefaultsReason(t *testing.T) {
	repo := newTxnRepoStub()
	repo.txns["txn-1"] = &models.EquipmentTransaction{ID: "txn-1", StudentID: "s1", Status: models.StatusReturnedPendingApproval}
	students := &txnStudentStub{students: map[string]*models.Student{
		"s1": {ID: "s1", Sport: "Tennis"},
	}}
	svc, _ := newTransactionServiceForTest(repo, students)

	claims := &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	_, err := svc.RejectReturn(context.Background(), "txn-1", claims, models.RejectReturnInput{Reason: "  "})
	require.NoError(t, err)

	assert.Equal(t, "Rejection reason: No reason provided", repo.lastRejectNotes)
	require.Len(t, repo.created, 1)
	require.NotNil(t, repo.created[0].Notes)
	assert.Equal(t, "Return rejected. Reason: No reason provided", *repo.created[0].Notes)
}

func TestTransactionLogbookPinsCoachSport(t *testing.T) {
	repo := newTxnRepoStub()
	svc, _ := newTransactionServiceForTest(repo, nil)

	claims := &models.JWTClaims{UserID: "c1", Role: models.RoleCoach, Sport: "Hockey"}
	_, _, err := svc.Logbook(context.Background(), claims, models.TransactionFilter{Sport: "Basketball"})
	require.NoError(t, err)
	assert.Equal(t, "Hockey", repo.lastLogbook.Sport)
	assert.Contains(t, repo.sweptStudents, "")
}

func TestTransactionHasOpenTransactions(t *testing.T) {
	repo := newTxnRepoStub()
	repo.openCount = 2
	svc, _ := newTransactionServiceForTest(repo, nil)

	open, err := svc.HasOpenTransactions(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, open)
	assert.Equal(t, []string{"s1"}, repo.sweptStudents)
}
