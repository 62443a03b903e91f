package book

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/security"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/domaintest"
	"bibliolab/internal/domain/filter"
)

type memRepo struct {
	*domaintest.MemoryRepo[*Book]
}

func (r memRepo) SlugExists(_ context.Context, slug string, excludeID id.ID) (bool, error) {
	for _, b := range r.All() {
		if b.Slug == slug && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func cloneBook(b *Book) *Book {
	c := *b
	c.Genres = slices.Clone(b.Genres)
	c.GenreIDs = slices.Clone(b.GenreIDs)
	return &c
}

func matchBook(b *Book, it filter.Item) bool {
	switch it.Field {
	case "rating":
		return b.Rating >= it.Value.(float64)
	case "price":
		v := it.Value.(decimal.Decimal)
		if it.Operator == filter.GreaterOrEqual {
			return b.Price.GreaterThanOrEqual(v)
		}
		return b.Price.LessThanOrEqual(v)
	case "publication_date":
		return !b.PublicationDate.Before(it.Value.(time.Time))
	case "author_id":
		return b.AuthorID == it.Value.(id.ID)
	case "genre":
		return slices.Contains(b.Genres, it.Value.(string))
	}
	return true
}

type stubGenres struct{ known map[id.ID]bool }

func (s stubGenres) EnsureExist(_ context.Context, ids []id.ID) error {
	for _, v := range ids {
		if !s.known[v] {
			return apperror.NewFieldValidation("genres", "unknown genre")
		}
	}
	return nil
}

type bookFixture struct {
	svc  *Service
	repo memRepo
	now  time.Time
}

func newBookFixture(t *testing.T, genres ...id.ID) *bookFixture {
	t.Helper()
	policy, err := security.NewCELPolicy("")
	require.NoError(t, err)

	known := map[id.ID]bool{}
	for _, g := range genres {
		known[g] = true
	}

	f := &bookFixture{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	f.repo = memRepo{domaintest.NewMemoryRepo(cloneBook)}
	f.repo.Match = matchBook
	f.svc = NewService(ServiceDeps{
		Repo:   f.repo,
		Policy: policy,
		Genres: stubGenres{known: known},
		Clock:  func() time.Time { return f.now },
	})
	return f
}

func draft(title string, price string, published time.Time) *Book {
	return &Book{
		BaseEntity:      entity.BaseEntity{ID: id.New()},
		Title:           title,
		AuthorID:        id.New(),
		PublicationDate: published,
		ISBN:            "9781234567897",
		Price:           types.MustMoney(price),
		Pages:           200,
		Rating:          4.5,
	}
}

func TestService_CreateDerivesUniqueSlug(t *testing.T) {
	f := newBookFixture(t)
	ctx := domaintest.UserCtx(id.New())
	published := f.now.AddDate(0, 1, 0)

	first := draft("Go Basics", "10.00", published)
	require.NoError(t, f.svc.Create(ctx, first))
	second := draft("Go Basics", "12.00", published)
	require.NoError(t, f.svc.Create(ctx, second))
	third := draft("Go  basics", "12.00", published)
	require.NoError(t, f.svc.Create(ctx, third))

	assert.Equal(t, "go-basics", first.Slug)
	assert.Equal(t, "go-basics-2", second.Slug)
	assert.Equal(t, "go-basics-3", third.Slug)
}

func TestService_CreateRejectsPastPublication(t *testing.T) {
	f := newBookFixture(t)

	err := f.svc.Create(domaintest.UserCtx(id.New()), draft("Old News", "10.00", f.now.AddDate(0, 0, -1)))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "publication_date", appErr.Details["field"])
}

func TestService_CreateRejectsUnknownGenre(t *testing.T) {
	known := id.New()
	f := newBookFixture(t, known)
	ctx := domaintest.UserCtx(id.New())

	b := draft("Tagged", "10.00", f.now)
	b.GenreIDs = []id.ID{known, id.New()}
	err := f.svc.Create(ctx, b)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	b = draft("Tagged", "10.00", f.now)
	b.GenreIDs = []id.ID{known}
	require.NoError(t, f.svc.Create(ctx, b))
}

func TestService_PriceFilterExample(t *testing.T) {
	f := newBookFixture(t)
	b := draft("Priced", "29.99", f.now.AddDate(0, 0, 3))
	require.NoError(t, f.svc.Create(domaintest.UserCtx(id.New()), b))

	res, err := f.svc.List(context.Background(), domain.ListFilter{}.With(filter.Gte("price", types.MustMoney("15"))))
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	res, err = f.svc.List(context.Background(), domain.ListFilter{}.With(filter.Gte("price", types.MustMoney("50"))))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestService_PopularIgnoresDeletedAndReportsEmpty(t *testing.T) {
	f := newBookFixture(t)
	ctx := domaintest.UserCtx(id.New())
	b := draft("Loved", "10.00", f.now)
	require.NoError(t, f.svc.Create(ctx, b))

	books, err := f.svc.Popular(ctx, DefaultPopularMinRating)
	require.NoError(t, err)
	require.Len(t, books, 1)

	require.NoError(t, f.svc.SoftDelete(ctx, b.ID))
	_, err = f.svc.Popular(ctx, DefaultPopularMinRating)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.HTTPStatus)
	assert.Equal(t, "No books found matching the criteria", appErr.Message)
}

func TestService_ByPriceRangeRejectsInvertedBounds(t *testing.T) {
	f := newBookFixture(t)

	_, err := f.svc.ByPriceRange(context.Background(), types.MustMoney("20"), types.MustMoney("10"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_ByGenreRequiresName(t *testing.T) {
	f := newBookFixture(t)

	_, err := f.svc.ByGenre(context.Background(), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_SetGenresRequiresOwner(t *testing.T) {
	g := id.New()
	f := newBookFixture(t, g)
	owner := domaintest.UserCtx(id.New())
	b := draft("Owned", "10.00", f.now)
	require.NoError(t, f.svc.Create(owner, b))

	_, err := f.svc.SetGenres(domaintest.UserCtx(id.New()), b.ID, []id.ID{g})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	updated, err := f.svc.SetGenres(owner, b.ID, []id.ID{g, g})
	require.NoError(t, err)
	assert.Equal(t, []id.ID{g}, updated.GenreIDs)
}
