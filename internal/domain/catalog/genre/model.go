// Package genre provides the genre lookup table used to classify books.
package genre

import (
	"context"
	"strings"
	"unicode/utf8"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
)

// MaxNameLength is the column width of cat_genres.name.
const MaxNameLength = 100

// Genre is a plain lookup row. It has no lifecycle metadata.
type Genre struct {
	ID   id.ID  `db:"id"`
	Name string `db:"name"`
}

// NewGenre creates a genre with a fresh id.
func NewGenre(name string) *Genre {
	return &Genre{ID: id.New(), Name: strings.TrimSpace(name)}
}

// Validate implements entity.Validatable.
func (g *Genre) Validate(_ context.Context) error {
	n := utf8.RuneCountInString(strings.TrimSpace(g.Name))
	if n == 0 {
		return apperror.NewFieldValidation("name", "genre name is required")
	}
	if n > MaxNameLength {
		return apperror.NewFieldValidation("name", "genre name must be at most 100 characters")
	}
	return nil
}
