// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/domain/auth"
	"bibliolab/internal/infrastructure/storage/postgres"
	"bibliolab/internal/infrastructure/storage/postgres/entity_repo"
)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	*entity_repo.BaseRepo[*auth.User]
}

var _ auth.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{
		BaseRepo: entity_repo.NewBaseRepo(txManager, entity_repo.Config[*auth.User]{
			Table:        "auth_users",
			EntityName:   "user",
			Searchable:   []string{"username", "email"},
			Filterable:   []string{"username", "email", "is_active", "is_admin", "last_login_at"},
			Sortable:     []string{"username", "last_login_at"},
			DefaultOrder: "username,created_at",
			New:          func() *auth.User { return &auth.User{} },
		}),
	}
}

// GetByUsername retrieves an active user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.FindOne(ctx, r.activeBy("username", username), username)
}

// GetByEmail retrieves an active user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.FindOne(ctx, r.activeBy("lower(email)", strings.ToLower(email)), email)
}

func (r *UserRepo) activeBy(col string, value string) squirrel.SelectBuilder {
	return r.SelectBuilder().
		Where(squirrel.Eq{"deleted": false}).
		Where(squirrel.Expr(col+" = ?", value)).
		Limit(1)
}

// Exists reports whether username or email is taken by any record, deleted included.
func (r *UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	sql, args, err := r.takenQuery(username, email).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return true, nil
}

func (r *UserRepo) takenQuery(username, email string) squirrel.SelectBuilder {
	return r.Builder().
		Select("1").
		From("auth_users").
		Where(squirrel.Or{
			squirrel.Eq{"username": username},
			squirrel.Expr("lower(email) = ?", strings.ToLower(email)),
		}).
		Limit(1)
}

// RecordLogin writes the login bookkeeping columns without touching updated_at.
func (r *UserRepo) RecordLogin(ctx context.Context, user *auth.User) error {
	sql, args, err := r.loginQuery(user).ToSql()
	if err != nil {
		return fmt.Errorf("build login update: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID.String())
	}
	return nil
}

func (r *UserRepo) loginQuery(user *auth.User) squirrel.UpdateBuilder {
	return r.Builder().
		Update("auth_users").
		Set("last_login_at", user.LastLoginAt).
		Set("failed_login_attempts", user.FailedLoginAttempts).
		Set("locked_until", user.LockedUntil).
		Where(squirrel.Eq{"id": user.ID})
}
