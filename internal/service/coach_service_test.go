package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campussports/sportsdesk-api/internal/models"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
)

type coachRepoStub struct {
	coaches    map[string]*models.Coach
	exists     bool
	sports     []string
	lastFilter models.CoachFilter
}

func newCoachRepoStub() *coachRepoStub {
	return &coachRepoStub{coaches: map[string]*models.Coach{}}
}

func (r *coachRepoStub) FindByID(ctx context.Context, id string) (*models.Coach, error) {
	coach, ok := r.coaches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return coach, nil
}

func (r *coachRepoStub) Exists(ctx context.Context, email, microsoftID string) (bool, error) {
	return r.exists, nil
}

func (r *coachRepoStub) Create(ctx context.Context, coach *models.Coach) error {
	coach.ID = "coach-new"
	r.coaches[coach.ID] = coach
	return nil
}

func (r *coachRepoStub) Update(ctx context.Context, coach *models.Coach) error {
	r.coaches[coach.ID] = coach
	return nil
}

func (r *coachRepoStub) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := r.coaches[id]; !ok {
		return false, nil
	}
	delete(r.coaches, id)
	return true, nil
}

func (r *coachRepoStub) List(ctx context.Context, filter models.CoachFilter) ([]models.Coach, int, error) {
	r.lastFilter = filter
	var out []models.Coach
	for _, coach := range r.coaches {
		out = append(out, *coach)
	}
	return out, len(out), nil
}

func (r *coachRepoStub) DistinctSports(ctx context.Context) ([]string, error) {
	return r.sports, nil
}

type rosterStub struct {
	lastFilter models.StudentFilter
}

func (r *rosterStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	r.lastFilter = filter
	return nil, 0, nil
}

func newCoachServiceForTest(repo *coachRepoStub, roster *rosterStub) (*CoachService, *auditStub) {
	if roster == nil {
		roster = &rosterStub{}
	}
	audit := &auditStub{}
	svc := NewCoachService(repo, roster, audit, validator.New(), zap.NewNop())
	return svc, audit
}

func TestCoachCreateHashesPassword(t *testing.T) {
	repo := newCoachRepoStub()
	svc, audit := newCoachServiceForTest(repo, nil)

	coach, err := svc.Create(context.Background(), "a1", models.CreateCoachInput{
		Name:        "Pat",
		Email:       "pat@college.edu",
		Sport:       "Football",
		Password:    "supersecret",
		MicrosoftID: "ms-pat",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", coach.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(coach.PasswordHash), []byte("supersecret")))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionCoachCreate, audit.entries[0].Action)
}

func TestCoachCreateDuplicate(t *testing.T) {
	repo := newCoachRepoStub()
	repo.exists = true
	svc, _ := newCoachServiceForTest(repo, nil)

	_, err := svc.Create(context.Background(), "a1", models.CreateCoachInput{
		Name:        "Pat",
		Email:       "pat@college.edu",
		Sport:       "Football",
		Password:    "supersecret",
		MicrosoftID: "ms-pat",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCoachCreateShortPassword(t *testing.T) {
	repo := newCoachRepoStub()
	svc, _ := newCoachServiceForTest(repo, nil)

	_, err := svc.Create(context.Background(), "a1", models.CreateCoachInput{
		Name:        "Pat",
		Email:       "pat@college.edu",
		Sport:       "Football",
		Password:    "short",
		MicrosoftID: "ms-pat",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCoachUpdatePatchesFields(t *testing.T) {
	repo := newCoachRepoStub()
	repo.coaches["c1"] = &models.Coach{ID: "c1", Name: "Pat", Email: "pat@college.edu", Sport: "Football", PasswordHash: "old-hash"}
	svc, _ := newCoachServiceForTest(repo, nil)

	sport := "Rugby"
	coach, err := svc.Update(context.Background(), "a1", "c1", models.UpdateCoachInput{Sport: &sport})
	require.NoError(t, err)
	assert.Equal(t, "Rugby", coach.Sport)
	assert.Equal(t, "Pat", coach.Name)
	assert.Equal(t, "old-hash", coach.PasswordHash)
}

func TestCoachUpdateRehashesPassword(t *testing.T) {
	repo := newCoachRepoStub()
	repo.coaches["c1"] = &models.Coach{ID: "c1", Name: "Pat", PasswordHash: "old-hash"}
	svc, _ := newCoachServiceForTest(repo, nil)

	password := "newsecret123"
	coach, err := svc.Update(context.Background(), "a1", "c1", models.UpdateCoachInput{Password: &password})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(coach.PasswordHash), []byte(password)))
}

func TestCoachUpdateNotFound(t *testing.T) {
	repo := newCoachRepoStub()
	svc, _ := newCoachServiceForTest(repo, nil)

	_, err := svc.Update(context.Background(), "a1", "ghost", models.UpdateCoachInput{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCoachDelete(t *testing.T) {
	repo := newCoachRepoStub()
	repo.coaches["c1"] = &models.Coach{ID: "c1"}
	svc, audit := newCoachServiceForTest(repo, nil)

	require.NoError(t, svc.Delete(context.Background(), "a1", "c1"))
	assert.NotContains(t, repo.coaches, "c1")
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionCoachDelete, audit.entries[0].Action)

	err := svc.Delete(context.Background(), "a1", "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCoachRosterPinsCoachSport(t *testing.T) {
	repo := newCoachRepoStub()
	roster := &rosterStub{}
	svc, _ := newCoachServiceForTest(repo, roster)

	claims := &models.JWTClaims{UserID: "c1", Role: models.RoleCoach, Sport: "Golf"}
	_, _, err := svc.Roster(context.Background(), claims, models.StudentFilter{Sport: "Tennis"})
	require.NoError(t, err)
	assert.Equal(t, "Golf", roster.lastFilter.Sport)
}

func TestCoachSports(t *testing.T) {
	repo := newCoachRepoStub()
	repo.sports = []string{"Basketball", "Tennis"}
	svc, _ := newCoachServiceForTest(repo, nil)

	sports, err := svc.Sports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Basketball", "Tennis"}, sports)
}
