package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain/catalog/author"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/catalog/genre"
	"bibliolab/internal/domain/filter"
	"bibliolab/internal/infrastructure/http/v1/dto"
)

// --- Books ---

// BookHandler serves books and their named queries.
type BookHandler struct {
	*LifecycleHandler[*book.Book, dto.CreateBookRequest, dto.UpdateBookRequest]
	service *book.Service
}

var bookFilters = QueryFilters{
	IDEquals("author", "author_id"),
	MoneyBound("min_price", "price", filter.GreaterOrEqual),
	MoneyBound("max_price", "price", filter.LessOrEqual),
	Year("publication_year", "publication_date"),
}

// NewBookHandler creates a new book handler.
func NewBookHandler(base *BaseHandler, service *book.Service) *BookHandler {
	lh := NewLifecycleHandler(base, LifecycleHandlerConfig[*book.Book, dto.CreateBookRequest, dto.UpdateBookRequest]{
		Service:    service,
		EntityName: "book",
		Fields:     dto.BookFields,
		Filters:    bookFilters,
		MapCreate: func(req *dto.CreateBookRequest, now time.Time) (*book.Book, error) {
			return req.ToEntity(now)
		},
		Update: func(ctx context.Context, bookID id.ID, req *dto.UpdateBookRequest) (*book.Book, error) {
			return service.Update(ctx, bookID, req.ApplyTo)
		},
	})
	return &BookHandler{LifecycleHandler: lh, service: service}
}

// Popular handles GET /books/popular?min_rating=
func (h *BookHandler) Popular(c *gin.Context) {
	h.Accessed(c, "book.popular")

	minRating, ok := h.QueryFloat(c, "min_rating", book.DefaultPopularMinRating)
	if !ok {
		return
	}
	items, err := h.service.Popular(c.Request.Context(), minRating)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondItems(c, items)
}

// Recent handles GET /books/recent
func (h *BookHandler) Recent(c *gin.Context) {
	h.Accessed(c, "book.recent")

	page, f, ok := h.Page(c)
	if !ok {
		return
	}
	result, err := h.service.Recent(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondPage(c, page, result)
}

// ByPriceRange handles GET /books/by-price-range?min_price=&max_price=
func (h *BookHandler) ByPriceRange(c *gin.Context) {
	h.Accessed(c, "book.by_price_range")

	raw, ok := h.RequiredQuery(c, "min_price", "max_price")
	if !ok {
		return
	}
	minPrice, err := types.NewMoneyFromString(raw[0])
	if err != nil {
		h.Error(c, apperror.NewFieldValidation("min_price", "Invalid price values. Must be numbers."))
		return
	}
	maxPrice, err := types.NewMoneyFromString(raw[1])
	if err != nil {
		h.Error(c, apperror.NewFieldValidation("max_price", "Invalid price values. Must be numbers."))
		return
	}

	items, err := h.service.ByPriceRange(c.Request.Context(), minPrice, maxPrice)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondItems(c, items)
}

// TopRated handles GET /books/top-rated
func (h *BookHandler) TopRated(c *gin.Context) {
	h.Accessed(c, "book.top_rated")

	items, err := h.service.TopRated(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondItems(c, items)
}

// ByGenre handles GET /books/by-genre?genre=
func (h *BookHandler) ByGenre(c *gin.Context) {
	h.Accessed(c, "book.by_genre")

	items, err := h.service.ByGenre(c.Request.Context(), c.Query("genre"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondItems(c, items)
}

// SetGenres handles PUT /books/:id/genres
func (h *BookHandler) SetGenres(c *gin.Context) {
	h.Accessed(c, "book.set_genres")
	ctx := c.Request.Context()

	bookID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetGenresRequest
	if !h.BindJSON(c, &req) {
		return
	}
	genreIDs, err := dto.ParseIDs("genres", req.Genres)
	if err != nil {
		h.Error(c, err)
		return
	}

	b, err := h.service.SetGenres(ctx, bookID, genreIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.Fields().Render(h.reload(ctx, b), nil, h.RenderContext()))
}

// --- Authors ---

// AuthorHandler serves authors and their named queries.
type AuthorHandler struct {
	*LifecycleHandler[*author.Author, dto.AuthorRequest, dto.AuthorRequest]
	service *author.Service
	books   *BookHandler
}

var authorFilters = QueryFilters{
	Exact("name", "name"),
	IntBound("min_books", "books_count", filter.GreaterOrEqual),
}

// NewAuthorHandler creates a new author handler. books renders GET /authors/:id/books.
func NewAuthorHandler(base *BaseHandler, service *author.Service, books *BookHandler) *AuthorHandler {
	lh := NewLifecycleHandler(base, LifecycleHandlerConfig[*author.Author, dto.AuthorRequest, dto.AuthorRequest]{
		Service:    service,
		EntityName: "author",
		Fields:     dto.AuthorFields,
		Filters:    authorFilters,
		MapCreate: func(req *dto.AuthorRequest, now time.Time) (*author.Author, error) {
			return req.ToEntity(now), nil
		},
		Update: func(ctx context.Context, authorID id.ID, req *dto.AuthorRequest) (*author.Author, error) {
			return service.Update(ctx, authorID, req.ApplyTo)
		},
	})
	return &AuthorHandler{LifecycleHandler: lh, service: service, books: books}
}

// Books handles GET /authors/:id/books
func (h *AuthorHandler) Books(c *gin.Context) {
	h.Accessed(c, "author.books")

	authorID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	items, err := h.books.service.ByAuthor(c.Request.Context(), authorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.books.RespondItems(c, items)
}

// Prolific handles GET /authors/prolific?book_count=
func (h *AuthorHandler) Prolific(c *gin.Context) {
	h.Accessed(c, "author.prolific")

	minBooks, ok := h.QueryInt(c, "book_count", author.DefaultProlificBookCount)
	if !ok {
		return
	}
	page, f, ok := h.Page(c)
	if !ok {
		return
	}
	f.OrderBy = "-books_count,name"

	result, err := h.service.Prolific(c.Request.Context(), minBooks, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondPage(c, page, result)
}

// --- Genres ---

// GenreHandler serves the genre lookup table.
type GenreHandler struct {
	*BaseHandler
	service *genre.Service
}

// NewGenreHandler creates a new genre handler.
func NewGenreHandler(base *BaseHandler, service *genre.Service) *GenreHandler {
	return &GenreHandler{BaseHandler: base, service: service}
}

// List handles GET /genres
func (h *GenreHandler) List(c *gin.Context) {
	h.Accessed(c, "genre.list")

	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": dto.NewGenreResponses(items), "count": len(items)})
}

// Create handles POST /genres (admin)
func (h *GenreHandler) Create(c *gin.Context) {
	h.Accessed(c, "genre.create")

	var req dto.CreateGenreRequest
	if !h.BindJSON(c, &req) {
		return
	}
	g, err := h.service.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewGenreResponse(g))
}
