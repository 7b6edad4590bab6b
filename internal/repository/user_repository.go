package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// UserRepository provides read access to portal accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, identifier, full_name, email, avatar_url, is_admin, created_at, updated_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// RecipientsForAudience returns the students addressed by audience. "All" selects every student.
// A student's segment is the identifier without its three character suffix.
func (r *UserRepository) RecipientsForAudience(ctx context.Context, audience string) ([]models.Recipient, error) {
	const query = `SELECT email, full_name FROM users
WHERE is_admin = FALSE
AND email <> ''
AND ($1 = 'All' OR (LENGTH(identifier) > 3 AND LEFT(identifier, LENGTH(identifier) - 3) = $1))
ORDER BY email`
	var recipients []models.Recipient
	if err := r.db.SelectContext(ctx, &recipients, query, audience); err != nil {
		return nil, fmt.Errorf("list recipients for %s: %w", audience, err)
	}
	return recipients, nil
}
