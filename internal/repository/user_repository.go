package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-portal-api/internal/models"
)

const loginAccountQuery = `SELECT u.id, u.email, u.password_hash, u.full_name, u.role, u.college_id, u.active, u.last_login,
u.created_at, u.updated_at, s.id AS student_id, s.college_id AS student_college_id
FROM users u LEFT JOIN students s ON s.user_id = u.id
WHERE LOWER(u.email) = LOWER($1) LIMIT 1`

// UserRepository reads login accounts for the auth flow.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindLoginAccount resolves an email to its account and, for students, the owning profile.
// Unknown emails return sql.ErrNoRows.
func (r *UserRepository) FindLoginAccount(ctx context.Context, email string) (*models.LoginAccount, error) {
	var account models.LoginAccount
	if err := r.db.GetContext(ctx, &account, loginAccountQuery, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find login account: %w", err)
	}
	return &account, nil
}

// UpdateLastLogin stamps a successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1 AND active = TRUE`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
