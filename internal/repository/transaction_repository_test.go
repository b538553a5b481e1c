package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campussports/sportsdesk-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTransactionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)

	mock.ExpectExec("INSERT INTO equipment_transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	txn := &models.EquipmentTransaction{
		StudentID: "s1",
		Equipment: "Basketball",
		Quantity:  1,
		DueDate:   time.Now().Add(48 * time.Hour),
		Status:    models.StatusRequested,
	}
	require.NoError(t, repo.Create(context.Background(), txn))
	assert.NotEmpty(t, txn.ID)
	assert.False(t, txn.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositorySweepOverdueGlobal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE equipment_transactions SET status = \\$1, updated_at = \\$2 WHERE status = \\$3 AND due_date < \\$2").
		WithArgs(models.StatusOverdue, now, models.StatusTaken).
		WillReturnResult(sqlmock.NewResult(0, 3))

	swept, err := repo.SweepOverdue(context.Background(), "", now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), swept)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositorySweepOverdueScoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE equipment_transactions .* AND student_id = \\$4").
		WithArgs(models.StatusOverdue, now, models.StatusTaken, "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	swept, err := repo.SweepOverdue(context.Background(), "s1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryCountOpenForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM equipment_transactions WHERE student_id = \\$1 AND status IN \\(\\$2, \\$3, \\$4\\)").
		WithArgs("s1", models.StatusTaken, models.StatusReturnedPendingApproval, models.StatusOverdue).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountOpenForStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryMarkTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)
	takenAt := time.Now().UTC()

	mock.ExpectExec("UPDATE equipment_transactions SET status = \\$1, taken_at = \\$2, updated_at = \\$2 WHERE id = \\$3 AND student_id = \\$4 AND status = \\$5").
		WithArgs(models.StatusTaken, takenAt, "txn-1", "s1", models.StatusRequested).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.MarkTaken(context.Background(), "txn-1", "s1", takenAt)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryMarkTakenNoMatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)
	takenAt := time.Now().UTC()

	mock.ExpectExec("UPDATE equipment_transactions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.MarkTaken(context.Background(), "txn-1", "someone-else", takenAt)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryApprove(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE equipment_transactions SET status = \\$1, approved_by = \\$2, approved_by_role = \\$3, updated_at = \\$4 WHERE id = \\$5 AND status = \\$6").
		WithArgs(models.StatusApproved, "c1", models.RoleCoach, now, "txn-1", models.StatusReturnedPendingApproval).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.Approve(context.Background(), "txn-1", "c1", models.RoleCoach, now)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryReject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE equipment_transactions SET status = \\$1, approved_by = \\$2, approved_by_role = \\$3, notes = \\$4, updated_at = \\$5 WHERE id = \\$6 AND status = \\$7").
		WithArgs(models.StatusRejected, "a1", models.RoleAdmin, "Rejection reason: damaged", now, "txn-1", models.StatusReturnedPendingApproval).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.Reject(context.Background(), "txn-1", "a1", models.RoleAdmin, "Rejection reason: damaged", now)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryLogbookFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)

	columns := []string{
		"id", "student_id", "equipment", "quantity", "taken_at", "due_date", "returned_at",
		"status", "approved_by", "approved_by_role", "notes", "created_at", "updated_at",
		"student_name", "roll_number", "sport",
	}
	now := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow("txn-1", "s1", "Basketball", 1, nil, now.Add(48*time.Hour), nil,
			models.StatusTaken, nil, nil, nil, now, now, "Jordan", "210405", "Basketball")

	mock.ExpectQuery("SELECT .* FROM equipment_transactions t JOIN students s ON s.id = t.student_id WHERE 1=1 AND s.sport = \\$1 AND t.status = \\$2 ORDER BY t.created_at DESC LIMIT 20 OFFSET 0").
		WithArgs("Basketball", models.StatusTaken).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM equipment_transactions t JOIN students s").
		WithArgs("Basketball", models.StatusTaken).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	entries, total, err := repo.Logbook(context.Background(), models.TransactionFilter{
		Sport:  "Basketball",
		Status: models.StatusTaken,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Jordan", entries[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryStatusCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransactionRepository(db)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM equipment_transactions GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("Taken", 4).
			AddRow("Overdue", 1))

	counts, err := repo.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.StatusTaken])
	assert.Equal(t, 1, counts[models.StatusOverdue])
	assert.NoError(t, mock.ExpectationsWereMet())
}
