package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/domaintest"
	"bibliolab/internal/domain/filter"
	"bibliolab/internal/infrastructure/http/v1/dto"
	"bibliolab/internal/infrastructure/http/v1/middleware"
)

func queryContext(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Equal(t, field, appErr.Details["field"])
}

func TestBookFilters_Price(t *testing.T) {
	items, err := bookFilters.Items(queryContext("min_price=15&max_price=49.99"))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "price", items[0].Field)
	assert.Equal(t, filter.GreaterOrEqual, items[0].Operator)
	assert.True(t, types.MustMoney("15").Equal(items[0].Value.(types.Money)))

	assert.Equal(t, filter.LessOrEqual, items[1].Operator)
	assert.True(t, types.MustMoney("49.99").Equal(items[1].Value.(types.Money)))

	invalid := []struct {
		query string
		field string
	}{
		{"min_price=cheap", "min_price"},
		{"max_price=1e", "max_price"},
		{"min_price=15,00", "min_price"},
	}
	for _, tt := range invalid {
		_, err := bookFilters.Items(queryContext(tt.query))
		assertFieldError(t, err, tt.field)
	}
}

func TestBookFilters_PublicationYearAndAuthor(t *testing.T) {
	author := id.New()
	items, err := bookFilters.Items(queryContext("publication_year=2026&author=" + author.String()))
	require.NoError(t, err)
	assert.Equal(t, []filter.Item{
		filter.Eq("author_id", author),
		{Field: "publication_date", Operator: filter.YearEquals, Value: 2026},
	}, items)

	_, err = bookFilters.Items(queryContext("publication_year=twenty"))
	assertFieldError(t, err, "publication_year")

	_, err = bookFilters.Items(queryContext("author=not-a-uuid"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
}

func TestQueryFilters_BlankParamsAreIgnored(t *testing.T) {
	items, err := bookFilters.Items(queryContext("min_price=&publication_year=%20"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAuthorFilters_MinBooks(t *testing.T) {
	items, err := authorFilters.Items(queryContext("min_books=3&name=Le%20Guin"))
	require.NoError(t, err)
	assert.Equal(t, []filter.Item{
		filter.Eq("name", "Le Guin"),
		{Field: "books_count", Operator: filter.GreaterOrEqual, Value: 3},
	}, items)

	_, err = authorFilters.Items(queryContext("min_books=3.5"))
	assertFieldError(t, err, "min_books")
}

func TestExperimentFilters_DayIsHalfOpenRange(t *testing.T) {
	items, err := experimentFilters.Items(queryContext("start_date=2026-10-16"))
	require.NoError(t, err)

	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []filter.Item{
		{Field: "start_date", Operator: filter.GreaterOrEqual, Value: day},
		{Field: "start_date", Operator: filter.Less, Value: day.AddDate(0, 0, 1)},
	}, items)

	_, err = experimentFilters.Items(queryContext("end_date=16/10/2026"))
	assertFieldError(t, err, "end_date")
}

func TestExperimentFilters_StatusOneOf(t *testing.T) {
	items, err := experimentFilters.Items(queryContext("status=in_progress"))
	require.NoError(t, err)
	assert.Equal(t, []filter.Item{filter.Eq("status", "IN_PROGRESS")}, items)

	_, err = experimentFilters.Items(queryContext("status=PAUSED"))
	assertFieldError(t, err, "status")
}

func TestPersonAndStudyFilters(t *testing.T) {
	_, err := personFilters.Items(queryContext("gender=unknown"))
	assertFieldError(t, err, "gender")

	items, err := studyFilters.Items(queryContext("start_date=2026-11-01"))
	require.NoError(t, err)
	assert.Equal(t, []filter.Item{filter.Eq("start_date", time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC))}, items)
}

func TestParseListQuery(t *testing.T) {
	c := queryContext("view=deleted&search=%20dune%20&ordering=-price&page=3&page_size=5&fields=title,price&min_price=15")

	q, err := parseListQuery(c, dto.BookFields, bookFilters)
	require.NoError(t, err)

	assert.Equal(t, domain.ViewDeleted, q.filter.View)
	assert.Equal(t, "dune", q.filter.Search)
	assert.Equal(t, "-price", q.filter.OrderBy)
	assert.Equal(t, 5, q.filter.Limit)
	assert.Equal(t, 10, q.filter.Offset)
	assert.Equal(t, []string{"title", "price"}, q.selected)
	require.Len(t, q.filter.Filters, 1)
	assert.Equal(t, filter.GreaterOrEqual, q.filter.Filters[0].Operator)
}

func TestParseListQuery_Rejects(t *testing.T) {
	tests := []struct {
		query string
		field string
	}{
		{"view=bogus", "view"},
		{"fields=title,secret", "fields"},
		{"page=abc", "page"},
		{"min_price=free", "min_price"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := parseListQuery(queryContext(tt.query), dto.BookFields, bookFilters)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

// bookListRouter serves GET /books from an in-memory store whose price
// predicates behave like the SQL comparison.
func bookListRouter(t *testing.T, books ...*book.Book) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := domaintest.NewMemoryRepo(func(b *book.Book) *book.Book { c := *b; return &c })
	repo.Match = func(b *book.Book, it filter.Item) bool {
		if it.Field != "price" {
			return true
		}
		bound := it.Value.(types.Money)
		switch it.Operator {
		case filter.GreaterOrEqual:
			return b.Price.GreaterThanOrEqual(bound)
		case filter.LessOrEqual:
			return b.Price.LessThanOrEqual(bound)
		}
		return false
	}
	for _, b := range books {
		repo.Put(b)
	}

	h := NewLifecycleHandler(NewBaseHandler(nil), LifecycleHandlerConfig[*book.Book, dto.CreateBookRequest, dto.UpdateBookRequest]{
		Service:    domain.NewLifecycleService(domain.LifecycleServiceConfig[*book.Book]{Repo: repo, EntityName: "book"}),
		EntityName: "book",
		Fields:     dto.BookFields,
		Filters:    bookFilters,
	})

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/books", h.List)
	return r
}

func getJSON(t *testing.T, r *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestBookList_MinPrice(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	priced := &book.Book{
		BaseEntity:      entity.NewBaseEntity(now),
		Title:           "Priced",
		PublicationDate: now,
		ISBN:            "9781234567897",
		Price:           types.MustMoney("29.99"),
		Pages:           120,
	}
	r := bookListRouter(t, priced)

	status, body := getJSON(t, r, "/books?min_price=15")
	require.Equal(t, http.StatusOK, status, body)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "29.99", items[0].(map[string]any)["price"])

	status, body = getJSON(t, r, "/books?min_price=50")
	require.Equal(t, http.StatusOK, status, body)
	assert.Empty(t, body["items"])

	status, body = getJSON(t, r, "/books?min_price=fifty")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperror.CodeValidation, body["code"])
}

func TestBookList_UnknownViewIsBadRequest(t *testing.T) {
	r := bookListRouter(t)

	status, body := getJSON(t, r, "/books?view=bogus")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperror.CodeValidation, body["code"])
	assert.Equal(t, "view", body["details"].(map[string]any)["field"])
}
