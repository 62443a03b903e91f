package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"bibliolab/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	dup := MapError(&pgconn.PgError{Code: "23505", ConstraintName: "cat_books_isbn_key"}, "book", "insert")
	appErr, ok := apperror.AsAppError(dup)
	if assert.True(t, ok) {
		assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
		assert.Equal(t, "isbn", appErr.Details["field"])
	}

	fk := MapError(&pgconn.PgError{Code: "23503"}, "author", "delete")
	assert.True(t, apperror.HasCode(fk, apperror.CodeConflict))
	assert.Equal(t, 409, apperror.GetHTTPStatus(fk))

	check := MapError(&pgconn.PgError{Code: "23514"}, "book", "update")
	assert.True(t, apperror.HasCode(check, apperror.CodeValidation))

	plain := MapError(errors.New("connection reset"), "book", "update")
	assert.False(t, apperror.IsAppError(plain))
	assert.EqualError(t, plain, "update book: connection reset")

	assert.NoError(t, MapError(nil, "book", "update"))
}
