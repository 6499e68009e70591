package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// UserRepository resolves notification recipients. Accounts are managed
// elsewhere; this side only reads them.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns an active account. Deactivated accounts read as
// sql.ErrNoRows so nobody messages them.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `
		SELECT id, email, phone, full_name, role, active, created_at
		FROM users
		WHERE id = $1 AND active`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &user, nil
}
