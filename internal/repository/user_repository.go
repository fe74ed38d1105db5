package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/uniead-br/sigaa-sync/internal/models"
)

// UserRepository resolves local accounts by the identities SIGAA reports:
// the CPF national id for teachers (stored in a configurable profile field)
// and the login for learners.
type UserRepository struct {
	db       *sqlx.DB
	cpfField string
}

// NewUserRepository constructs the repository with the designated CPF
// profile-field name.
func NewUserRepository(db *sqlx.DB, cpfField string) *UserRepository {
	return &UserRepository{db: db, cpfField: cpfField}
}

// FindByCPF matches a user by the exact national id. Callers zero-pad the CPF
// to 11 digits first; that is the catalog's canonical format.
func (r *UserRepository) FindByCPF(ctx context.Context, cpf string) (*models.User, error) {
	const query = `SELECT id, username, full_name, created_at FROM users WHERE profile->>$1 = $2`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, r.cpfField, cpf); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByLogin matches a user by username.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	const query = `SELECT id, username, full_name, created_at FROM users WHERE username = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, login); err != nil {
		return nil, err
	}
	return &user, nil
}
