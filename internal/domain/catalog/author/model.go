// Package author provides the Author catalog.
package author

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
)

// Name length bounds.
const (
	MinNameLength = 2
	MaxNameLength = 100
)

// Author writes books.
type Author struct {
	entity.BaseEntity
	entity.Owned

	Name string `db:"name"`
	Bio  string `db:"bio"`

	// Aggregates computed by the repository from active books; never written.
	BooksCount        int      `db:"books_count" persist:"-"`
	AverageBookRating *float64 `db:"average_book_rating" persist:"-"`
}

// NewAuthor creates an author stamped at now.
func NewAuthor(name, bio string, now time.Time) *Author {
	return &Author{
		BaseEntity: entity.NewBaseEntity(now),
		Name:       strings.TrimSpace(name),
		Bio:        bio,
	}
}

// Validate implements entity.Validatable.
func (a *Author) Validate(_ context.Context) error {
	n := utf8.RuneCountInString(strings.TrimSpace(a.Name))
	if n < MinNameLength {
		return apperror.NewFieldValidation("name", "name must be at least 2 characters")
	}
	if n > MaxNameLength {
		return apperror.NewFieldValidation("name", "name must be at most 100 characters")
	}
	return a.CheckInvariant()
}
