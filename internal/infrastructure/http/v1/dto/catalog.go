package dto

import (
	"time"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain/catalog/author"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/catalog/genre"
)

// --- Authors ---

// AuthorFields is the field table of authors.
var AuthorFields = WithLifecycle(Fields[*author.Author]{
	"name":                func(a *author.Author, _ RenderContext) any { return a.Name },
	"bio":                 func(a *author.Author, _ RenderContext) any { return a.Bio },
	"created_by":          func(a *author.Author, _ RenderContext) any { return optionalID(a.CreatedBy) },
	"books_count":         func(a *author.Author, _ RenderContext) any { return a.BooksCount },
	"average_book_rating": func(a *author.Author, _ RenderContext) any { return a.AverageBookRating },
})

// AuthorRequest is the body of author create and update calls.
type AuthorRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
	Bio  string `json:"bio"`
}

// ToEntity converts the request to a new author.
func (r *AuthorRequest) ToEntity(now time.Time) *author.Author {
	return author.NewAuthor(r.Name, r.Bio, now)
}

// ApplyTo overwrites the editable attributes of a.
func (r *AuthorRequest) ApplyTo(a *author.Author) error {
	a.Name = r.Name
	a.Bio = r.Bio
	return nil
}

// --- Books ---

// BookFields is the field table of books.
var BookFields = WithLifecycle(Fields[*book.Book]{
	"title":            func(b *book.Book, _ RenderContext) any { return b.Title },
	"slug":             func(b *book.Book, _ RenderContext) any { return b.Slug },
	"author":           func(b *book.Book, _ RenderContext) any { return b.AuthorID.String() },
	"author_name":      func(b *book.Book, _ RenderContext) any { return b.AuthorName },
	"publication_date": func(b *book.Book, _ RenderContext) any { return types.FormatDate(b.PublicationDate) },
	"isbn":             func(b *book.Book, _ RenderContext) any { return b.ISBN },
	"price":            func(b *book.Book, _ RenderContext) any { return b.Price.StringFixed(2) },
	"pages":            func(b *book.Book, _ RenderContext) any { return b.Pages },
	"rating":           func(b *book.Book, _ RenderContext) any { return b.Rating },
	"description":      func(b *book.Book, _ RenderContext) any { return b.Description },
	"average_rating":   func(b *book.Book, _ RenderContext) any { return b.AverageRating },
	"created_by":       func(b *book.Book, _ RenderContext) any { return optionalID(b.CreatedBy) },
	"is_new_release":   func(b *book.Book, rc RenderContext) any { return b.IsNewRelease(rc.Now) },
	"genres": func(b *book.Book, _ RenderContext) any {
		if b.Genres == nil {
			return []string{}
		}
		return b.Genres
	},
})

// CreateBookRequest is the body of POST /books.
type CreateBookRequest struct {
	Title           string       `json:"title" binding:"required,max=100,booktitle"`
	Slug            string       `json:"slug" binding:"max=100"`
	Author          string       `json:"author" binding:"required,uuid"`
	PublicationDate string       `json:"publication_date" binding:"required"`
	ISBN            string       `json:"isbn" binding:"required,isbn13"`
	Price           *types.Money `json:"price" binding:"required"`
	Pages           int          `json:"pages" binding:"required,gt=0"`
	Rating          float64      `json:"rating" binding:"gte=0,lte=5"`
	Description     string       `json:"description"`
	AverageRating   float64      `json:"average_rating" binding:"gte=0,lte=5"`
	Genres          []string     `json:"genres" binding:"omitempty,dive,uuid"`
}

// ToEntity converts the request to a new book.
func (r *CreateBookRequest) ToEntity(now time.Time) (*book.Book, error) {
	authorID, err := id.Parse(r.Author)
	if err != nil {
		return nil, apperror.NewFieldValidation("author", "author must be a valid id")
	}
	published, err := parseDateField("publication_date", r.PublicationDate)
	if err != nil {
		return nil, err
	}
	genreIDs, err := ParseIDs("genres", r.Genres)
	if err != nil {
		return nil, err
	}

	b := &book.Book{
		Title:           r.Title,
		Slug:            r.Slug,
		AuthorID:        authorID,
		PublicationDate: published,
		ISBN:            r.ISBN,
		Price:           types.RoundPrice(*r.Price),
		Pages:           r.Pages,
		Rating:          r.Rating,
		Description:     r.Description,
		AverageRating:   r.AverageRating,
		GenreIDs:        genreIDs,
	}
	b.BaseEntity = entity.NewBaseEntity(now)
	return b, nil
}

// UpdateBookRequest is the body of PATCH and PUT /books/:id. Absent fields keep their value.
type UpdateBookRequest struct {
	Title           *string      `json:"title" binding:"omitempty,max=100,booktitle"`
	Slug            *string      `json:"slug" binding:"omitempty,max=100"`
	Author          *string      `json:"author" binding:"omitempty,uuid"`
	PublicationDate *string      `json:"publication_date"`
	ISBN            *string      `json:"isbn" binding:"omitempty,isbn13"`
	Price           *types.Money `json:"price"`
	Pages           *int         `json:"pages" binding:"omitempty,gt=0"`
	Rating          *float64     `json:"rating" binding:"omitempty,gte=0,lte=5"`
	Description     *string      `json:"description"`
	AverageRating   *float64     `json:"average_rating" binding:"omitempty,gte=0,lte=5"`
	Genres          *[]string    `json:"genres"`
}

// ApplyTo writes the present fields onto b.
func (r *UpdateBookRequest) ApplyTo(b *book.Book) error {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Slug != nil {
		b.Slug = *r.Slug
	}
	if r.Author != nil {
		authorID, err := id.Parse(*r.Author)
		if err != nil {
			return apperror.NewFieldValidation("author", "author must be a valid id")
		}
		b.AuthorID = authorID
	}
	if r.PublicationDate != nil {
		published, err := parseDateField("publication_date", *r.PublicationDate)
		if err != nil {
			return err
		}
		b.PublicationDate = published
	}
	if r.ISBN != nil {
		b.ISBN = *r.ISBN
	}
	if r.Price != nil {
		b.Price = types.RoundPrice(*r.Price)
	}
	if r.Pages != nil {
		b.Pages = *r.Pages
	}
	if r.Rating != nil {
		b.Rating = *r.Rating
	}
	if r.Description != nil {
		b.Description = *r.Description
	}
	if r.AverageRating != nil {
		b.AverageRating = *r.AverageRating
	}
	if r.Genres != nil {
		genreIDs, err := ParseIDs("genres", *r.Genres)
		if err != nil {
			return err
		}
		if genreIDs == nil {
			genreIDs = []id.ID{}
		}
		b.GenreIDs = genreIDs
	}
	return nil
}

// SetGenresRequest is the body of PUT /books/:id/genres.
type SetGenresRequest struct {
	Genres []string `json:"genres" binding:"dive,uuid"`
}

// --- Genres ---

// GenreResponse is one genre row.
type GenreResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewGenreResponse converts a genre.
func NewGenreResponse(g *genre.Genre) GenreResponse {
	return GenreResponse{ID: g.ID.String(), Name: g.Name}
}

// NewGenreResponses converts a genre list.
func NewGenreResponses(items []*genre.Genre) []GenreResponse {
	out := make([]GenreResponse, len(items))
	for i, g := range items {
		out[i] = NewGenreResponse(g)
	}
	return out
}

// CreateGenreRequest is the body of POST /genres.
type CreateGenreRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}
