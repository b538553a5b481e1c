package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campussports/sportsdesk-api/internal/models"
)

// AttendanceRepository manages attendance persistence. A student has at most
// one record per calendar day, enforced by a unique index on
// (student_id, date).
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts an attendance record or, when one already exists for the
// same student and day, overwrites its status and marker.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	record.Date = record.Date.UTC().Truncate(24 * time.Hour)

	const query = `INSERT INTO attendance (id, student_id, sport, date, status, marked_by_id, marked_by_role, created_at, updated_at)
        VALUES (:id, :student_id, :sport, :date, :status, :marked_by_id, :marked_by_role, :created_at, :updated_at)
        ON CONFLICT (student_id, date) DO UPDATE SET
            status = EXCLUDED.status,
            sport = EXCLUDED.sport,
            marked_by_id = EXCLUDED.marked_by_id,
            marked_by_role = EXCLUDED.marked_by_role,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// List returns attendance records joined with student identity, filtered and
// ordered by date descending then student name.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	baseQuery := `FROM attendance a JOIN students s ON s.id = a.student_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Sport != "" {
		conditions = append(conditions, fmt.Sprintf("a.sport = $%d", len(args)+1))
		args = append(args, filter.Sport)
	}
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("a.date = $%d", len(args)+1))
		args = append(args, filter.Date.UTC().Truncate(24*time.Hour))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, filter.StartDate.UTC().Truncate(24*time.Hour))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, filter.EndDate.UTC().Truncate(24*time.Hour))
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	selectColumns := `a.id, a.student_id, a.sport, a.date, a.status, a.marked_by_id, a.marked_by_role, a.created_at, a.updated_at,
        s.name AS student_name, s.roll_number`
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY a.date DESC, s.name ASC LIMIT %d OFFSET %d", selectColumns, baseQuery, pageSize, offset)

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return records, total, nil
}

// Stats aggregates present and absent counts over the filtered records.
func (r *AttendanceRepository) Stats(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceStats, error) {
	baseQuery := `FROM attendance a WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Sport != "" {
		conditions = append(conditions, fmt.Sprintf("a.sport = $%d", len(args)+1))
		args = append(args, filter.Sport)
	}
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("a.date = $%d", len(args)+1))
		args = append(args, filter.Date.UTC().Truncate(24*time.Hour))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, filter.StartDate.UTC().Truncate(24*time.Hour))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, filter.EndDate.UTC().Truncate(24*time.Hour))
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT COUNT(*) AS total_records,
        COUNT(*) FILTER (WHERE a.status = '%s') AS present_count,
        COUNT(*) FILTER (WHERE a.status = '%s') AS absent_count %s`,
		models.AttendancePresent, models.AttendanceAbsent, baseQuery)

	var stats models.AttendanceStats
	if err := r.db.GetContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("attendance stats: %w", err)
	}
	return &stats, nil
}
