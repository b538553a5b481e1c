package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campussports/sportsdesk-api/internal/middleware"
	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/internal/service"
)

type txnRepoFake struct {
	txns      map[string]*models.EquipmentTransaction
	openCount int
}

func newTxnRepoFake() *txnRepoFake {
	return &txnRepoFake{txns: map[string]*models.EquipmentTransaction{}}
}

func (r *txnRepoFake) Create(ctx context.Context, txn *models.EquipmentTransaction) error {
	if txn.ID == "" {
		txn.ID = fmt.Sprintf("txn-%d", len(r.txns)+1)
	}
	r.txns[txn.ID] = txn
	return nil
}

func (r *txnRepoFake) FindByID(ctx context.Context, id string) (*models.EquipmentTransaction, error) {
	txn, ok := r.txns[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return txn, nil
}

func (r *txnRepoFake) SweepOverdue(ctx context.Context, studentID string, now time.Time) (int64, error) {
	return 0, nil
}

func (r *txnRepoFake) CountOpenForStudent(ctx context.Context, studentID string) (int, error) {
	return r.openCount, nil
}

func (r *txnRepoFake) MarkTaken(ctx context.Context, id, studentID string, takenAt time.Time) (bool, error) {
	txn, ok := r.txns[id]
	if !ok || txn.StudentID != studentID || txn.Status != models.StatusRequested {
		return false, nil
	}
	txn.Status = models.StatusTaken
	txn.TakenAt = &takenAt
	return true, nil
}

func (r *txnRepoFake) MarkReturned(ctx context.Context, id, studentID string, returnedAt time.Time) (bool, error) {
	return false, nil
}

func (r *txnRepoFake) Approve(ctx context.Context, id, approverID string, approverRole models.UserRole, now time.Time) (bool, error) {
	return false, nil
}

func (r *txnRepoFake) Reject(ctx context.Context, id, approverID string, approverRole models.UserRole, notes string, now time.Time) (bool, error) {
	return false, nil
}

func (r *txnRepoFake) ListForStudent(ctx context.Context, studentID string, filter models.TransactionFilter) ([]models.EquipmentTransaction, int, error) {
	return nil, 0, nil
}

func (r *txnRepoFake) PendingReturns(ctx context.Context, sport string, page, pageSize int) ([]models.LogbookEntry, int, error) {
	return nil, 0, nil
}

func (r *txnRepoFake) Logbook(ctx context.Context, filter models.TransactionFilter) ([]models.LogbookEntry, int, error) {
	return nil, 0, nil
}

func (r *txnRepoFake) Facets(ctx context.Context) (*models.LogbookFacets, error) {
	return &models.LogbookFacets{Statuses: models.AllStatuses()}, nil
}

type auditFake struct{}

func (auditFake) Create(ctx context.Context, entry *models.AuditLog) error { return nil }

func newTransactionHandlerForTest(repo *txnRepoFake) *TransactionHandler {
	students := studentFinderStub{students: map[string]*models.Student{}}
	svc := service.NewTransactionService(repo, students, auditFake{}, validator.New(), zap.NewNop())
	return NewTransactionHandler(svc)
}

func postJSON(t *testing.T, claims *models.JWTClaims, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, claims)
	return c, rec
}

func TestTransactionHandlerRequestCreated(t *testing.T) {
	repo := newTxnRepoFake()
	handler := newTransactionHandlerForTest(repo)
	dueDate := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	body := fmt.Sprintf(`{"equipment":"Basketball","quantity":2,"due_date":%q}`, dueDate)
	c, rec := postJSON(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, "/equipment/requests", body)

	handler.Request(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data models.EquipmentTransaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "s1", envelope.Data.StudentID)
	assert.Equal(t, models.StatusRequested, envelope.Data.Status)
}

func TestTransactionHandlerRequestMalformedBody(t *testing.T) {
	handler := newTransactionHandlerForTest(newTxnRepoFake())
	c, rec := postJSON(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, "/equipment/requests", `{"equipment":`)

	handler.Request(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionHandlerRequestOpenConflict(t *testing.T) {
	repo := newTxnRepoFake()
	repo.openCount = 1
	handler := newTransactionHandlerForTest(repo)
	dueDate := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	body := fmt.Sprintf(`{"equipment":"Basketball","quantity":1,"due_date":%q}`, dueDate)
	c, rec := postJSON(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, "/equipment/requests", body)

	handler.Request(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransactionHandlerTake(t *testing.T) {
	repo := newTxnRepoFake()
	repo.txns["txn-1"] = &models.EquipmentTransaction{ID: "txn-1", StudentID: "s1", Status: models.StatusRequested}
	handler := newTransactionHandlerForTest(repo)

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/equipment/txn-1/take", nil)
	c.Params = gin.Params{{Key: "id", Value: "txn-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

	handler.Take(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.EquipmentTransaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusTaken, envelope.Data.Status)
}
