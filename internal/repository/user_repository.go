package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/medialab/equipment-booking/internal/model"
)

// UserRepo manages the users table.  The session provider owns
// authentication; this table only carries the contact details that
// reminders need.
type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a user and returns its id.  A duplicate email yields
// ErrConflict.
func (r *UserRepo) Create(ctx context.Context, email, displayName string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	if r.db.DriverName() == "postgres" {
		var id uint64
		err := r.db.QueryRowxContext(ctx,
			"INSERT INTO users (email, display_name) VALUES ($1, $2) RETURNING id",
			email, displayName).Scan(&id)
		if err != nil {
			if isDuplicate(err) {
				return 0, ErrConflict
			}
			return 0, err
		}
		return id, nil
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, display_name) VALUES (?, ?)", email, displayName)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, "SELECT id, email, display_name FROM users WHERE email = ?", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.get(ctx, "SELECT id, email, display_name FROM users WHERE id = ?", id)
}

func (r *UserRepo) get(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	if err := r.db.GetContext(ctx, &u, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
