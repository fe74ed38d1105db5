package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryFindByCPF(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db, "cpf")

	rows := sqlmock.NewRows([]string{"id", "username", "full_name", "created_at"}).
		AddRow("usr-1", "ana", "Ana Souza", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, full_name, created_at FROM users WHERE profile->>$1 = $2")).
		WithArgs("cpf", "00000000191").
		WillReturnRows(rows)

	user, err := repo.FindByCPF(context.Background(), "00000000191")
	require.NoError(t, err)
	require.Equal(t, "ana", user.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByCPFMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db, "cpf")

	mock.ExpectQuery("FROM users WHERE profile").
		WithArgs("cpf", "99999999999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByCPF(context.Background(), "99999999999")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByLogin(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db, "cpf")

	rows := sqlmock.NewRows([]string{"id", "username", "full_name", "created_at"}).
		AddRow("usr-2", "aluno1", "João Silva", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, full_name, created_at FROM users WHERE username = $1")).
		WithArgs("aluno1").
		WillReturnRows(rows)

	user, err := repo.FindByLogin(context.Background(), "aluno1")
	require.NoError(t, err)
	require.Equal(t, "usr-2", user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
