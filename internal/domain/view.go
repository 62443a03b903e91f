package domain

import (
	"strings"

	"bibliolab/internal/core/apperror"
)

// View selects which records of a table are visible to a read.
type View string

const (
	// ViewDefault hides soft-deleted records.
	ViewDefault View = "default"
	// ViewAll returns every record regardless of deletion state.
	ViewAll View = "all"
	// ViewDeleted returns only soft-deleted records.
	ViewDeleted View = "deleted"
)

// ParseView converts a query parameter into a View. Empty means ViewDefault.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewDefault:
		return ViewDefault, nil
	case ViewAll:
		return ViewAll, nil
	case ViewDeleted:
		return ViewDeleted, nil
	}
	return "", apperror.NewFieldValidation("view", "view must be one of: default, all, deleted").
		WithDetail("value", s)
}

// Includes reports whether a record with the given deletion flag is visible in v.
func (v View) Includes(deleted bool) bool {
	switch v {
	case ViewAll:
		return true
	case ViewDeleted:
		return deleted
	default:
		return !deleted
	}
}
