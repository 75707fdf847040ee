package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(q("INSERT INTO users (email, display_name) VALUES (?, ?)")).
		WithArgs("ana@lab.test", "Ana").
		WillReturnResult(sqlmock.NewResult(42, 1))
	id, err := repo.Create(context.Background(), "  Ana@Lab.test ", " Ana ")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	_, err = repo.Create(context.Background(), "ana@lab.test", "")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CreatePostgres(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	repo := NewUserRepo(sqlx.NewDb(raw, "postgres"))

	mock.ExpectQuery(q("INSERT INTO users (email, display_name) VALUES ($1, $2) RETURNING id")).
		WithArgs("bo@lab.test", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	id, err := repo.Create(context.Background(), "bo@lab.test", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	mock.ExpectQuery(q("INSERT INTO users")).WillReturnError(&pq.Error{Code: "23505"})
	_, err = repo.Create(context.Background(), "bo@lab.test", "")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)
	cols := []string{"id", "email", "display_name"}

	mock.ExpectQuery(q("SELECT id, email, display_name FROM users WHERE email = ?")).
		WithArgs("ana@lab.test").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(42, "ana@lab.test", "Ana"))
	u, err := repo.GetByEmail(context.Background(), "ANA@lab.test")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), u.ID)
	assert.Equal(t, "Ana", u.DisplayName)

	mock.ExpectQuery(q("SELECT id, email, display_name FROM users WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
