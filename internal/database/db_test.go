package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medialab/equipment-booking/internal/config"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DBConfig
		want    string
		wantErr bool
	}{
		{
			name: "mysql with password",
			cfg:  config.DBConfig{Driver: "mysql", User: "lab", Pass: "pw", Host: "db", Port: "3306", Name: "equipment"},
			want: "lab:pw@tcp(db:3306)/equipment?charset=utf8mb4&parseTime=true&loc=UTC&multiStatements=false",
		},
		{
			name: "mysql without password",
			cfg:  config.DBConfig{Driver: "mysql", User: "lab", Host: "db", Port: "3306", Name: "equipment"},
			want: "lab@tcp(db:3306)/equipment?charset=utf8mb4&parseTime=true&loc=UTC&multiStatements=false",
		},
		{
			name: "postgres",
			cfg:  config.DBConfig{Driver: "postgres", User: "lab", Pass: "p w", Host: "db", Port: "5432", Name: "equipment", SSLMode: "disable"},
			want: "postgres://lab:p%20w@db:5432/equipment?sslmode=disable&timezone=UTC",
		},
		{
			name:    "unknown driver",
			cfg:     config.DBConfig{Driver: "sqlite"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DSN(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchema_BothDialects(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres"} {
		stmts, err := Schema(driver)
		require.NoError(t, err, driver)
		require.NotEmpty(t, stmts)
		joined := ""
		for _, s := range stmts {
			assert.NotContains(t, s, ";")
			joined += s + "\n"
		}
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS holds")
		assert.Contains(t, joined, "uq_holds_user")
		assert.Contains(t, joined, "uq_reservations_slot")
	}

	_, err := Schema("sqlite")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")

	stmts, err := Schema("postgres")
	require.NoError(t, err)
	for range stmts {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "mysql")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("access denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate statement 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}
