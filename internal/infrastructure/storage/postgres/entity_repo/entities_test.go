package entity_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/filter"
)

func TestBookRepo_ListByGenreReadsJoinedModel(t *testing.T) {
	repo := NewBookRepo(nil)

	q, err := repo.listQuery(domain.ListFilter{
		View:    domain.ViewDefault,
		Filters: []filter.Item{filter.Eq("genre", "Fiction")},
	})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT id, created_at, updated_at, deleted, deleted_at, created_by, title, slug,"))
	assert.Contains(t, sql, "author_name, genres FROM (SELECT b.*")
	assert.Contains(t, sql, ") AS t WHERE deleted = $1 AND EXISTS (")
	assert.Contains(t, sql, "WHERE bg.book_id = t.id AND lower(g.name) = lower($2))")
	assert.Equal(t, []any{false, "Fiction"}, args)
}

func TestBookRepo_DefaultOrderIsNewestPublication(t *testing.T) {
	repo := NewBookRepo(nil)

	order, err := repo.orderBy("")
	require.NoError(t, err)
	assert.Equal(t, []string{"publication_date DESC", "id ASC"}, order)

	_, err = repo.orderBy("pages")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestBookRepo_GenreLinkQueries(t *testing.T) {
	bookID := id.New()
	g1, g2 := id.New(), id.New()

	queries := genreLinkQueries(bookID, []id.ID{g1, g2})
	require.Len(t, queries, 2)

	sql, args, err := queries[0].ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM cat_book_genres WHERE book_id = $1", sql)
	assert.Equal(t, []any{bookID.String()}, args)

	sql, args, err = queries[1].ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO cat_book_genres (book_id,genre_id) VALUES ($1,$2),($3,$4) ON CONFLICT DO NOTHING", sql)
	assert.Equal(t, []any{bookID, g1, bookID, g2}, args)
}

func TestBookRepo_EmptyGenreListOnlyClearsLinks(t *testing.T) {
	queries := genreLinkQueries(id.New(), []id.ID{})
	assert.Len(t, queries, 1)
}

func TestBookRepo_SlugQuery(t *testing.T) {
	repo := NewBookRepo(nil)
	self := id.New()

	sql, args, err := repo.slugQuery("dune", self).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM cat_books WHERE slug = $1 AND id <> $2 LIMIT 1", sql)
	assert.Equal(t, []any{"dune", self.String()}, args)

	sql, args, err = repo.slugQuery("dune", id.Nil()).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM cat_books WHERE slug = $1 LIMIT 1", sql)
	assert.Equal(t, []any{"dune"}, args)
}

func TestPersonRepo_EmailLookupIgnoresCaseAndView(t *testing.T) {
	repo := NewPersonRepo(nil)

	sql, args, err := repo.emailQuery("  Ada@Example.COM ").ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, created_at, updated_at, deleted, deleted_at, created_by, first_name, last_name, email, birth_date, gender "+
			"FROM ppl_persons WHERE lower(email) = $1 LIMIT 1", sql)
	assert.Equal(t, []any{"ada@example.com"}, args)
}

func TestStudyRepo_FiltersOnComputedDuration(t *testing.T) {
	repo := NewStudyRepo(nil)

	q, err := repo.listQuery(domain.ListFilter{
		Filters: []filter.Item{filter.Gte("duration_days", 30)},
	})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql,
		"SELECT id, created_at, updated_at, deleted, deleted_at, title, description, start_date, end_date, owner_id, owner FROM ("))
	assert.Contains(t, sql, "WHERE deleted = $1 AND duration_days >= $2")
	assert.Equal(t, []any{false, 30}, args)
}

func TestAuthorRepo_SortsByAggregate(t *testing.T) {
	repo := NewAuthorRepo(nil)

	order, err := repo.orderBy("-books_count,name")
	require.NoError(t, err)
	assert.Equal(t, []string{"books_count DESC", "name ASC", "id ASC"}, order)
}

func TestExperimentRepo_RejectsUnknownFilter(t *testing.T) {
	repo := NewExperimentRepo(nil)

	_, err := repo.listQuery(domain.ListFilter{
		Filters: []filter.Item{filter.Eq("budget", 1)},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestFavoriteGenreQueries(t *testing.T) {
	profileID, g := id.New(), id.New()

	queries := favoriteGenreQueries(profileID, []id.ID{g})
	require.Len(t, queries, 2)

	sql, _, err := queries[1].ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO rd_profile_genres (profile_id,genre_id) VALUES ($1,$2) ON CONFLICT DO NOTHING", sql)
}
