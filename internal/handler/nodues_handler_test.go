package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campussports/sportsdesk-api/internal/middleware"
	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/internal/service"
	"github.com/campussports/sportsdesk-api/pkg/export"
)

type studentFinderStub struct {
	students map[string]*models.Student
}

func (s studentFinderStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := s.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

type openCheckStub struct {
	open map[string]bool
}

func (o openCheckStub) HasOpenTransactions(ctx context.Context, studentID string) (bool, error) {
	return o.open[studentID], nil
}

type certStub struct{}

func (certStub) Render(data export.CertificateData) ([]byte, error) {
	return []byte("%PDF-stub"), nil
}

func newNoDuesHandlerForTest(open map[string]bool) *NoDuesHandler {
	students := studentFinderStub{students: map[string]*models.Student{
		"s1": {ID: "s1", Name: "Jordan", RollNumber: "210405", Sport: "Basketball"},
	}}
	svc := service.NewNoDuesService(students, openCheckStub{open: open}, certStub{}, zap.NewNop())
	return NewNoDuesHandler(svc)
}

func noDuesContext(t *testing.T, claims *models.JWTClaims, paramID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/"+paramID+"/no-dues", nil)
	c.Params = gin.Params{{Key: "id", Value: paramID}}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func TestNoDuesStatusStudentSelf(t *testing.T) {
	handler := newNoDuesHandlerForTest(map[string]bool{})
	c, rec := noDuesContext(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, "s1")

	handler.Status(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data service.NoDuesStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Cleared)
	assert.Equal(t, "s1", envelope.Data.StudentID)
}

func TestNoDuesStatusStudentCannotTargetOthers(t *testing.T) {
	handler := newNoDuesHandlerForTest(map[string]bool{})
	c, rec := noDuesContext(t, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, "s2")

	handler.Status(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNoDuesStatusUnauthenticated(t *testing.T) {
	handler := newNoDuesHandlerForTest(map[string]bool{})
	c, rec := noDuesContext(t, nil, "s1")

	handler.Status(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNoDuesCertificateSuccess(t *testing.T) {
	handler := newNoDuesHandlerForTest(map[string]bool{})
	c, rec := noDuesContext(t, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, "s1")

	handler.Certificate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "no_dues_210405.pdf")
}

func TestNoDuesCertificateRefusedWhileOpen(t *testing.T) {
	handler := newNoDuesHandlerForTest(map[string]bool{"s1": true})
	c, rec := noDuesContext(t, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, "s1")

	handler.Certificate(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
