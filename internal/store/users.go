package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"shelfkeeper/m/domain"
)

const userColumns = `id, username, email, password, role, is_active, date_joined`

// CreateUser inserts the user and fills in its ID.
func (q *Queries) CreateUser(ctx context.Context, user *domain.User) error {
	query := q.rebind(`INSERT INTO users (username, email, password, role, is_active, date_joined)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	err := sqlx.GetContext(ctx, q.ext, &user.ID, query,
		user.Username, user.Email, user.Password, user.Role, user.IsActive, user.DateJoined)
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return q.getUser(ctx, `id = ?`, id)
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return q.getUser(ctx, `username = ?`, username)
}

func (q *Queries) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	var user domain.User
	query := q.rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)
	if err := sqlx.GetContext(ctx, q.ext, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// UsernameTaken reports whether the username is already registered.
func (q *Queries) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`, username)
}

func (q *Queries) EmailTaken(ctx context.Context, email string) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)`, email)
}

func (q *Queries) SetUserActive(ctx context.Context, username string, active bool) error {
	res, err := q.ext.ExecContext(ctx, q.rebind(`UPDATE users SET is_active = ? WHERE username = ?`), active, username)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := sqlx.GetContext(ctx, q.ext, &found, q.rebind(query), args...); err != nil {
		return false, fmt.Errorf("exists query: %w", err)
	}
	return found, nil
}

// requireRow returns ErrNotFound when an UPDATE or DELETE touched no row.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
