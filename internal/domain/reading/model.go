// Package reading provides per-user reading profiles: favorite genres,
// reading history and book recommendations.
package reading

import (
	"time"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/catalog/genre"
)

// Limits applied when a profile is presented.
const (
	HistoryPreviewSize  = 10
	RecommendationLimit = 5
	MinHistoryRating    = 1
	MaxHistoryRating    = 5
)

// Profile is the reading profile of one user. It is created on first access.
type Profile struct {
	ID        id.ID     `db:"id"`
	UserID    id.ID     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// HistoryEntry records that the profile owner read a book.
type HistoryEntry struct {
	ID        id.ID     `db:"id"`
	ProfileID id.ID     `db:"profile_id"`
	BookID    id.ID     `db:"book_id"`
	DateRead  time.Time `db:"date_read"`
	Rating    int       `db:"rating"`

	BookTitle string `db:"book_title" persist:"-"`
}

// Validate checks the rating scale and the read date.
func (h *HistoryEntry) Validate(today time.Time) error {
	if id.IsNil(h.BookID) {
		return apperror.NewFieldValidation("book_id", "book is required")
	}
	if h.DateRead.IsZero() {
		return apperror.NewFieldValidation("date_read", "date read is required")
	}
	if h.DateRead.After(today) {
		return apperror.NewFieldValidation("date_read", "date read cannot be in the future")
	}
	if h.Rating < MinHistoryRating || h.Rating > MaxHistoryRating {
		return apperror.NewFieldValidation("rating", "rating must be between 1 and 5")
	}
	return nil
}

// Recommendation is a scored book suggestion for a profile.
type Recommendation struct {
	ID        id.ID     `db:"id"`
	ProfileID id.ID     `db:"profile_id"`
	BookID    id.ID     `db:"book_id"`
	Score     float64   `db:"score"`
	CreatedAt time.Time `db:"created_at"`

	BookTitle string `db:"book_title" persist:"-"`
}

// Overview is a profile with its favorite genres and latest history.
type Overview struct {
	Profile        *Profile
	FavoriteGenres []*genre.Genre
	RecentHistory  []*HistoryEntry
}
