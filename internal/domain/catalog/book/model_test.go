package book

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/types"
)

func validBook() *Book {
	return &Book{
		BaseEntity:      entity.NewBaseEntity(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Title:           "Go in Practice: 2nd ed.",
		AuthorID:        id.New(),
		PublicationDate: time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC),
		ISBN:            "9781234567897",
		Price:           types.MustMoney("29.99"),
		Pages:           320,
		Rating:          4.5,
	}
}

func TestBook_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Book)
		field  string
	}{
		{"valid", func(*Book) {}, ""},
		{"empty title", func(b *Book) { b.Title = " " }, "title"},
		{"title with symbols", func(b *Book) { b.Title = "Hello!" }, "title"},
		{"long title", func(b *Book) { b.Title = string(make([]byte, 101)) }, "title"},
		{"missing author", func(b *Book) { b.AuthorID = id.Nil() }, "author"},
		{"year too early", func(b *Book) { b.PublicationDate = time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC) }, "publication_date"},
		{"year too late", func(b *Book) { b.PublicationDate = time.Date(2101, 1, 1, 0, 0, 0, 0, time.UTC) }, "publication_date"},
		{"short isbn", func(b *Book) { b.ISBN = "123456789012" }, "isbn"},
		{"isbn letters", func(b *Book) { b.ISBN = "97812345678X7" }, "isbn"},
		{"zero price", func(b *Book) { b.Price = types.MustMoney("0") }, "price"},
		{"huge price", func(b *Book) { b.Price = types.MustMoney("10000") }, "price"},
		{"no pages", func(b *Book) { b.Pages = 0 }, "pages"},
		{"rating above five", func(b *Book) { b.Rating = 5.1 }, "rating"},
		{"negative average", func(b *Book) { b.AverageRating = -1 }, "average_rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBook()
			tt.mutate(b)
			err := b.Validate(context.Background())
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestBook_ValidatePublicationNotPast(t *testing.T) {
	today := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
	b := validBook()

	b.PublicationDate = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, b.ValidatePublicationNotPast(today))

	b.PublicationDate = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	assert.Error(t, b.ValidatePublicationNotPast(today))
}

func TestBook_IsNewRelease(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	b := validBook()

	b.PublicationDate = now.AddDate(0, 0, -30)
	assert.True(t, b.IsNewRelease(now))

	b.PublicationDate = now.AddDate(0, 0, -31)
	assert.False(t, b.IsNewRelease(now))

	b.PublicationDate = now.AddDate(0, 0, 10)
	assert.True(t, b.IsNewRelease(now))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Go in Practice":          "go-in-practice",
		"  Leading and trailing ": "leading-and-trailing",
		"A, B; C (2nd ed.)":       "a-b-c-2nd-ed",
		"snake_case - title":      "snake_case-title",
		"----":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}
