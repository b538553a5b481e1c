package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campussports/sportsdesk-api/internal/models"
)

// AdminRepository provides read access to administrator accounts.
// Admins are seeded out-of-band (see scripts/seed-admin).
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByID fetches an admin by ID.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	const query = `SELECT id, name, email, password_hash, microsoft_id, created_at, updated_at FROM admins WHERE id = $1 LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// FindByMicrosoftID fetches an admin by external identity id.
func (r *AdminRepository) FindByMicrosoftID(ctx context.Context, microsoftID string) (*models.Admin, error) {
	const query = `SELECT id, name, email, password_hash, microsoft_id, created_at, updated_at FROM admins WHERE microsoft_id = $1 LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, microsoftID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by microsoft id: %w", err)
	}
	return &admin, nil
}
