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

// CoachRepository manages persistence for coach records.
type CoachRepository struct {
	db *sqlx.DB
}

// NewCoachRepository constructs a CoachRepository.
func NewCoachRepository(db *sqlx.DB) *CoachRepository {
	return &CoachRepository{db: db}
}

// FindByID fetches a coach by ID.
func (r *CoachRepository) FindByID(ctx context.Context, id string) (*models.Coach, error) {
	const query = `SELECT id, name, email, sport, password_hash, microsoft_id, created_at, updated_at FROM coaches WHERE id = $1 LIMIT 1`
	var coach models.Coach
	if err := r.db.GetContext(ctx, &coach, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find coach by id: %w", err)
	}
	return &coach, nil
}

// FindByMicrosoftID fetches a coach by external identity id.
func (r *CoachRepository) FindByMicrosoftID(ctx context.Context, microsoftID string) (*models.Coach, error) {
	const query = `SELECT id, name, email, sport, password_hash, microsoft_id, created_at, updated_at FROM coaches WHERE microsoft_id = $1 LIMIT 1`
	var coach models.Coach
	if err := r.db.GetContext(ctx, &coach, query, microsoftID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find coach by microsoft id: %w", err)
	}
	return &coach, nil
}

// Exists checks whether a coach with the given email or external id is
// already registered.
func (r *CoachRepository) Exists(ctx context.Context, email, microsoftID string) (bool, error) {
	const query = `SELECT 1 FROM coaches WHERE email = $1 OR microsoft_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email, microsoftID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check coach exists: %w", err)
	}
	return true, nil
}

// Create inserts a new coach record.
func (r *CoachRepository) Create(ctx context.Context, coach *models.Coach) error {
	if coach.ID == "" {
		coach.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if coach.CreatedAt.IsZero() {
		coach.CreatedAt = now
	}
	coach.UpdatedAt = now
	const query = `INSERT INTO coaches (id, name, email, sport, password_hash, microsoft_id, created_at, updated_at)
        VALUES (:id, :name, :email, :sport, :password_hash, :microsoft_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, coach); err != nil {
		return fmt.Errorf("create coach: %w", err)
	}
	return nil
}

// Update modifies an existing coach.
func (r *CoachRepository) Update(ctx context.Context, coach *models.Coach) error {
	coach.UpdatedAt = time.Now().UTC()
	const query = `UPDATE coaches SET name = :name, email = :email, sport = :sport, password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, coach); err != nil {
		return fmt.Errorf("update coach: %w", err)
	}
	return nil
}

// Delete removes a coach record, reporting whether a row was deleted.
func (r *CoachRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coaches WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete coach: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete coach rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns coaches matching the provided filters with total count.
func (r *CoachRepository) List(ctx context.Context, filter models.CoachFilter) ([]models.Coach, int, error) {
	baseQuery := `FROM coaches WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Sport != "" {
		conditions = append(conditions, fmt.Sprintf("sport = $%d", len(args)+1))
		args = append(args, filter.Sport)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, name, email, sport, password_hash, microsoft_id, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var coaches []models.Coach
	if err := r.db.SelectContext(ctx, &coaches, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list coaches: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count coaches: %w", err)
	}

	return coaches, total, nil
}

// DistinctSports lists the sports coaches are assigned to.
func (r *CoachRepository) DistinctSports(ctx context.Context) ([]string, error) {
	var sports []string
	if err := r.db.SelectContext(ctx, &sports, `SELECT DISTINCT sport FROM coaches ORDER BY sport ASC`); err != nil {
		return nil, fmt.Errorf("distinct coach sports: %w", err)
	}
	return sports, nil
}
