package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campussports/sportsdesk-api/internal/models"
)

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "roll_number", "email", "sport", "microsoft_id", "created_at", "updated_at"}).
		AddRow("s1", "Jordan", "210405", "210405@college.edu", "Basketball", "ms-1", time.Now(), time.Now())
}

func TestStudentRepositoryFindByMicrosoftID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT .* FROM students WHERE microsoft_id = \\$1 LIMIT 1").
		WithArgs("ms-1").
		WillReturnRows(studentRows())

	student, err := repo.FindByMicrosoftID(context.Background(), "ms-1")
	require.NoError(t, err)
	assert.Equal(t, "210405", student.RollNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByMicrosoftIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT .* FROM students WHERE microsoft_id = \\$1 LIMIT 1").
		WithArgs("ms-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByMicrosoftID(context.Background(), "ms-missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{
		Name:        "Jordan",
		RollNumber:  "210405",
		Email:       "210405@college.edu",
		Sport:       "Basketball",
		MicrosoftID: "ms-1",
	}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListWithSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT .* FROM students WHERE 1=1 AND sport = \\$1 AND \\(LOWER\\(name\\) LIKE \\$2 OR LOWER\\(roll_number\\) LIKE \\$2 OR LOWER\\(email\\) LIKE \\$2\\) ORDER BY name ASC LIMIT 20 OFFSET 0").
		WithArgs("Basketball", "%jordan%").
		WillReturnRows(studentRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM students WHERE 1=1").
		WithArgs("Basketball", "%jordan%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Sport: "Basketball", Search: "Jordan"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
