package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campussports/sportsdesk-api/internal/models"
)

const transactionColumns = `id, student_id, equipment, quantity, taken_at, due_date, returned_at, status, approved_by, approved_by_role, notes, created_at, updated_at`

// TransactionRepository manages equipment transaction persistence.
//
// Status transitions are guarded updates: the expected current status is part
// of the WHERE clause, and callers learn from the affected-row count whether
// the transition actually happened. Two concurrent writers can never move the
// same record through the same transition twice.
type TransactionRepository struct {
	db *sqlx.DB
}

// NewTransactionRepository constructs a TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new equipment transaction.
func (r *TransactionRepository) Create(ctx context.Context, txn *models.EquipmentTransaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now
	const query = `INSERT INTO equipment_transactions (id, student_id, equipment, quantity, taken_at, due_date, returned_at, status, approved_by, approved_by_role, notes, created_at, updated_at)
        VALUES (:id, :student_id, :equipment, :quantity, :taken_at, :due_date, :returned_at, :status, :approved_by, :approved_by_role, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, txn); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// FindByID fetches a transaction by ID.
func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*models.EquipmentTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment_transactions WHERE id = $1 LIMIT 1`, transactionColumns)
	var txn models.EquipmentTransaction
	if err := r.db.GetContext(ctx, &txn, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find transaction by id: %w", err)
	}
	return &txn, nil
}

// SweepOverdue flips every Taken record whose due date has passed to Overdue.
// When studentID is non-empty the sweep is scoped to that student. Returns the
// number of rows flipped.
func (r *TransactionRepository) SweepOverdue(ctx context.Context, studentID string, now time.Time) (int64, error) {
	query := `UPDATE equipment_transactions SET status = $1, updated_at = $2 WHERE status = $3 AND due_date < $2`
	args := []interface{}{models.StatusOverdue, now.UTC(), models.StatusTaken}
	if studentID != "" {
		query += " AND student_id = $4"
		args = append(args, studentID)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep overdue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep overdue rows affected: %w", err)
	}
	return affected, nil
}

// CountOpenForStudent returns how many transactions the student has in an
// open status (Taken, ReturnedPendingApproval or Overdue).
func (r *TransactionRepository) CountOpenForStudent(ctx context.Context, studentID string) (int, error) {
	open := models.OpenStatuses()
	placeholders := make([]string, len(open))
	args := []interface{}{studentID}
	for i, s := range open {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, s)
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM equipment_transactions WHERE student_id = $1 AND status IN (%s)`, strings.Join(placeholders, ", "))
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count open transactions: %w", err)
	}
	return count, nil
}

// MarkTaken moves a Requested transaction owned by the student to Taken,
// recording pickup time. Returns false when no matching row was updated.
func (r *TransactionRepository) MarkTaken(ctx context.Context, id, studentID string, takenAt time.Time) (bool, error) {
	const query = `UPDATE equipment_transactions SET status = $1, taken_at = $2, updated_at = $2 WHERE id = $3 AND student_id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, models.StatusTaken, takenAt.UTC(), id, studentID, models.StatusRequested)
	if err != nil {
		return false, fmt.Errorf("mark taken: %w", err)
	}
	return rowUpdated(res, "mark taken")
}

// MarkReturned moves a Taken or Overdue transaction owned by the student to
// ReturnedPendingApproval, recording the return time.
func (r *TransactionRepository) MarkReturned(ctx context.Context, id, studentID string, returnedAt time.Time) (bool, error) {
	const query = `UPDATE equipment_transactions SET status = $1, returned_at = $2, updated_at = $2 WHERE id = $3 AND student_id = $4 AND status IN ($5, $6)`
	res, err := r.db.ExecContext(ctx, query, models.StatusReturnedPendingApproval, returnedAt.UTC(), id, studentID, models.StatusTaken, models.StatusOverdue)
	if err != nil {
		return false, fmt.Errorf("mark returned: %w", err)
	}
	return rowUpdated(res, "mark returned")
}

// Approve moves a pending-approval transaction to Approved and stamps the
// approver identity.
func (r *TransactionRepository) Approve(ctx context.Context, id, approverID string, approverRole models.UserRole, now time.Time) (bool, error) {
	const query = `UPDATE equipment_transactions SET status = $1, approved_by = $2, approved_by_role = $3, updated_at = $4 WHERE id = $5 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, models.StatusApproved, approverID, approverRole, now.UTC(), id, models.StatusReturnedPendingApproval)
	if err != nil {
		return false, fmt.Errorf("approve return: %w", err)
	}
	return rowUpdated(res, "approve return")
}

// Reject moves a pending-approval transaction to Rejected, replacing the
// notes with the caller-composed value and stamping the approver identity.
func (r *TransactionRepository) Reject(ctx context.Context, id, approverID string, approverRole models.UserRole, notes string, now time.Time) (bool, error) {
	const query = `UPDATE equipment_transactions SET status = $1, approved_by = $2, approved_by_role = $3, notes = $4, updated_at = $5 WHERE id = $6 AND status = $7`
	res, err := r.db.ExecContext(ctx, query, models.StatusRejected, approverID, approverRole, notes, now.UTC(), id, models.StatusReturnedPendingApproval)
	if err != nil {
		return false, fmt.Errorf("reject return: %w", err)
	}
	return rowUpdated(res, "reject return")
}

// ListForStudent returns a student's own transactions, newest first.
func (r *TransactionRepository) ListForStudent(ctx context.Context, studentID string, filter models.TransactionFilter) ([]models.EquipmentTransaction, int, error) {
	baseQuery := `FROM equipment_transactions WHERE student_id = $1`
	args := []interface{}{studentID}

	if filter.Status != "" {
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	page, pageSize := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", transactionColumns, baseQuery, pageSize, offset)

	var txns []models.EquipmentTransaction
	if err := r.db.SelectContext(ctx, &txns, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list student transactions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count student transactions: %w", err)
	}
	return txns, total, nil
}

// PendingReturns lists transactions awaiting approval, optionally scoped to a
// sport for coach callers.
func (r *TransactionRepository) PendingReturns(ctx context.Context, sport string, page, pageSize int) ([]models.LogbookEntry, int, error) {
	filter := models.TransactionFilter{Status: models.StatusReturnedPendingApproval, Sport: sport, Page: page, PageSize: pageSize}
	return r.Logbook(ctx, filter)
}

// Logbook returns transactions joined with student identity, filtered by the
// typed filter and ordered newest first.
func (r *TransactionRepository) Logbook(ctx context.Context, filter models.TransactionFilter) ([]models.LogbookEntry, int, error) {
	baseQuery := `FROM equipment_transactions t JOIN students s ON s.id = t.student_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("t.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Student != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.name) LIKE $%d OR LOWER(s.roll_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Student)+"%")
	}
	if filter.Sport != "" {
		conditions = append(conditions, fmt.Sprintf("s.sport = $%d", len(args)+1))
		args = append(args, filter.Sport)
	}
	if filter.Equipment != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(t.equipment) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Equipment)+"%")
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("t.created_at >= $%d", len(args)+1))
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("t.created_at <= $%d", len(args)+1))
		args = append(args, filter.EndDate.UTC())
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	selectColumns := `t.id, t.student_id, t.equipment, t.quantity, t.taken_at, t.due_date, t.returned_at, t.status, t.approved_by, t.approved_by_role, t.notes, t.created_at, t.updated_at,
        s.name AS student_name, s.roll_number, s.sport`
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d", selectColumns, baseQuery, pageSize, offset)

	var entries []models.LogbookEntry
	if err := r.db.SelectContext(ctx, &entries, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list logbook: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count logbook: %w", err)
	}
	return entries, total, nil
}

// Facets collects the distinct sports, equipment names and statuses present
// in the logbook, used by clients to build filter controls.
func (r *TransactionRepository) Facets(ctx context.Context) (*models.LogbookFacets, error) {
	facets := &models.LogbookFacets{Statuses: models.AllStatuses()}

	if err := r.db.SelectContext(ctx, &facets.Sports, `SELECT DISTINCT s.sport FROM equipment_transactions t JOIN students s ON s.id = t.student_id ORDER BY s.sport ASC`); err != nil {
		return nil, fmt.Errorf("logbook sport facets: %w", err)
	}
	if err := r.db.SelectContext(ctx, &facets.EquipmentTypes, `SELECT DISTINCT equipment FROM equipment_transactions ORDER BY equipment ASC`); err != nil {
		return nil, fmt.Errorf("logbook equipment facets: %w", err)
	}
	return facets, nil
}

// StatusCounts aggregates transaction counts per status.
func (r *TransactionRepository) StatusCounts(ctx context.Context) (map[models.TransactionStatus]int, error) {
	rows := []struct {
		Status models.TransactionStatus `db:"status"`
		Count  int                      `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM equipment_transactions GROUP BY status`); err != nil {
		return nil, fmt.Errorf("transaction status counts: %w", err)
	}
	counts := make(map[models.TransactionStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Count returns the total number of transactions.
func (r *TransactionRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM equipment_transactions`); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return total, nil
}

// SportActivity aggregates per-sport transaction volume with active and
// overdue breakdowns.
func (r *TransactionRepository) SportActivity(ctx context.Context) ([]models.SportActivity, error) {
	const query = `SELECT s.sport,
        COUNT(*) AS count,
        COUNT(*) FILTER (WHERE t.status IN ($1, $2)) AS active,
        COUNT(*) FILTER (WHERE t.status = $3) AS overdue
        FROM equipment_transactions t JOIN students s ON s.id = t.student_id
        GROUP BY s.sport ORDER BY count DESC`
	var activity []models.SportActivity
	if err := r.db.SelectContext(ctx, &activity, query, models.StatusTaken, models.StatusReturnedPendingApproval, models.StatusOverdue); err != nil {
		return nil, fmt.Errorf("sport activity: %w", err)
	}
	return activity, nil
}

// ActivityTrends aggregates daily request, pickup and return volumes since
// the given day.
func (r *TransactionRepository) ActivityTrends(ctx context.Context, since time.Time) ([]models.ActivityTrend, error) {
	const query = `SELECT d.day::text AS date,
        COALESCE(req.count, 0) AS requests,
        COALESCE(tak.count, 0) AS taken,
        COALESCE(ret.count, 0) AS returned
        FROM generate_series($1::date, CURRENT_DATE, '1 day') AS d(day)
        LEFT JOIN (SELECT created_at::date AS day, COUNT(*) AS count FROM equipment_transactions GROUP BY 1) req ON req.day = d.day
        LEFT JOIN (SELECT taken_at::date AS day, COUNT(*) AS count FROM equipment_transactions WHERE taken_at IS NOT NULL GROUP BY 1) tak ON tak.day = d.day
        LEFT JOIN (SELECT returned_at::date AS day, COUNT(*) AS count FROM equipment_transactions WHERE returned_at IS NOT NULL GROUP BY 1) ret ON ret.day = d.day
        ORDER BY d.day ASC`
	var trends []models.ActivityTrend
	if err := r.db.SelectContext(ctx, &trends, query, since.UTC().Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("activity trends: %w", err)
	}
	return trends, nil
}

// Recent returns the most recent logbook entries.
func (r *TransactionRepository) Recent(ctx context.Context, limit int) ([]models.LogbookEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT t.id, t.student_id, t.equipment, t.quantity, t.taken_at, t.due_date, t.returned_at, t.status, t.approved_by, t.approved_by_role, t.notes, t.created_at, t.updated_at,
        s.name AS student_name, s.roll_number, s.sport
        FROM equipment_transactions t JOIN students s ON s.id = t.student_id
        ORDER BY t.updated_at DESC LIMIT %d`, limit)
	var entries []models.LogbookEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return entries, nil
}

func rowUpdated(res sql.Result, op string) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return affected > 0, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
