// Package book provides the Book catalog, its genre links and named queries.
package book

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/types"
)

var (
	titleRE = regexp.MustCompile(`^[A-Za-z0-9\s\-_,\.;:()]+$`)
	isbnRE  = regexp.MustCompile(`^\d{13}$`)
)

// Field bounds.
const (
	MaxTitleLength     = 100
	MinPublicationYear = 2000
	MaxPublicationYear = 2100
	MaxRating          = 5.0

	// NewReleaseWindow is how long after publication a book counts as new.
	NewReleaseWindow = 30 * 24 * time.Hour
)

// Book is a published title by one author.
type Book struct {
	entity.BaseEntity
	entity.Owned

	Title           string      `db:"title"`
	Slug            string      `db:"slug"`
	AuthorID        id.ID       `db:"author_id"`
	PublicationDate time.Time   `db:"publication_date"`
	ISBN            string      `db:"isbn"`
	Price           types.Money `db:"price"`
	Pages           int         `db:"pages"`
	Rating          float64     `db:"rating"`
	Description     string      `db:"description"`
	AverageRating   float64     `db:"average_rating"`

	// Joined for presentation; never written.
	AuthorName string   `db:"author_name" persist:"-"`
	Genres     []string `db:"genres" persist:"-"`

	// GenreIDs, when non-nil, replaces the genre links on create or update.
	GenreIDs []id.ID `db:"-"`
}

// Validate implements entity.Validatable.
func (b *Book) Validate(_ context.Context) error {
	if err := ValidateTitle(b.Title); err != nil {
		return err
	}
	if id.IsNil(b.AuthorID) {
		return apperror.NewFieldValidation("author", "author is required")
	}
	if y := b.PublicationDate.Year(); y < MinPublicationYear || y > MaxPublicationYear {
		return apperror.NewFieldValidation("publication_date",
			fmt.Sprintf("Year must be between %d and %d.", MinPublicationYear, MaxPublicationYear))
	}
	if err := ValidateISBN(b.ISBN); err != nil {
		return err
	}
	if b.Price.LessThan(types.MinPrice) {
		return apperror.NewFieldValidation("price", "Price must be greater than 0.")
	}
	if b.Price.GreaterThan(types.MaxPrice) {
		return apperror.NewFieldValidation("price", "Price must not exceed 9999.99.")
	}
	if b.Pages <= 0 {
		return apperror.NewFieldValidation("pages", "pages must be a positive number")
	}
	if b.Rating < 0 || b.Rating > MaxRating {
		return apperror.NewFieldValidation("rating", "Rating must be between 0 and 5.0.")
	}
	if b.AverageRating < 0 || b.AverageRating > MaxRating {
		return apperror.NewFieldValidation("average_rating", "Average rating must be between 0 and 5.0.")
	}
	return b.CheckInvariant()
}

// ValidatePublicationNotPast rejects publication dates before today.
// It applies only when a book is created.
func (b *Book) ValidatePublicationNotPast(today time.Time) error {
	if types.DateOf(b.PublicationDate).Before(types.DateOf(today)) {
		return apperror.NewFieldValidation("publication_date",
			fmt.Sprintf("%s is in the past. Publication date must be in the future.", types.FormatDate(b.PublicationDate)))
	}
	return nil
}

// IsNewRelease reports whether the book was published within the last 30 days.
func (b *Book) IsNewRelease(now time.Time) bool {
	return types.DateOf(now).Sub(types.DateOf(b.PublicationDate)) <= NewReleaseWindow
}

// ValidateTitle checks the title alphabet and length.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperror.NewFieldValidation("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperror.NewFieldValidation("title", "title must be at most 100 characters")
	}
	if !titleRE.MatchString(title) {
		return apperror.NewFieldValidation("title",
			"Title must contain only letters, numbers, spaces, and basic punctuation.")
	}
	return nil
}

// ValidateISBN checks for exactly 13 digits.
func ValidateISBN(isbn string) error {
	if !isbnRE.MatchString(isbn) {
		return apperror.NewFieldValidation("isbn",
			fmt.Sprintf("%s is not a valid ISBN. It must be a 13-digit number.", isbn))
	}
	return nil
}

// IsValidTitle reports whether title passes ValidateTitle.
func IsValidTitle(title string) bool { return ValidateTitle(title) == nil }

// IsValidISBN reports whether isbn passes ValidateISBN.
func IsValidISBN(isbn string) bool { return isbnRE.MatchString(isbn) }
