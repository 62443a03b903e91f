package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"bibliolab/internal/core/apperror"
)

// PostgreSQL error codes translated to application errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MapError translates driver errors into the application taxonomy.
// Errors it does not recognize are wrapped with op.
func MapError(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewDuplicate(entity, uniqueField(pgErr), "").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewConflict(fmt.Sprintf("%s is referenced by other records or references a missing one", entity)).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgCheckViolation:
			return apperror.NewValidation(fmt.Sprintf("%s violates a storage constraint", entity)).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		}
	}
	return fmt.Errorf("%s %s: %w", op, entity, err)
}

// uniqueField guesses the column from constraint names like cat_books_isbn_key.
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if f, ok := uniqueConstraintFields[pgErr.ConstraintName]; ok {
		return f
	}
	return "value"
}

var uniqueConstraintFields = map[string]string{
	"cat_books_isbn_key":      "isbn",
	"cat_books_slug_key":      "slug",
	"cat_genres_name_key":     "name",
	"ppl_persons_email_key":   "email",
	"auth_users_username_key": "username",
	"auth_users_email_key":    "email",
	"rd_profiles_user_id_key": "user_id",
}
