package entity_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/filter"
	"bibliolab/internal/infrastructure/storage/postgres"
)

const bookSource = `SELECT b.*,
	COALESCE(a.name, '') AS author_name,
	ARRAY(
		SELECT g.name FROM cat_book_genres bg
		JOIN cat_genres g ON g.id = bg.genre_id
		WHERE bg.book_id = b.id
		ORDER BY g.name
	) AS genres
FROM cat_books b
LEFT JOIN cat_authors a ON a.id = b.author_id`

// BookRepo implements book.Repository. Genre links are written alongside the row.
type BookRepo struct {
	*BaseRepo[*book.Book]
	batch *postgres.BatchExecutor
}

var _ book.Repository = (*BookRepo)(nil)

// NewBookRepo creates a new book repository.
func NewBookRepo(txManager *postgres.TxManager) *BookRepo {
	return &BookRepo{
		BaseRepo: NewBaseRepo(txManager, Config[*book.Book]{
			Table:      "cat_books",
			Source:     bookSource,
			EntityName: "book",
			Searchable: []string{"title", "author_name", "isbn"},
			Filterable: []string{
				"author_id", "title", "price", "publication_date",
				"rating", "average_rating", "created_by",
			},
			CustomFilters: map[string]FilterFunc{"genre": genreFilter},
			Sortable:      []string{"title", "publication_date", "price", "rating", "average_rating"},
			DefaultOrder:  "-publication_date",
			New:           func() *book.Book { return &book.Book{} },
		}),
		batch: postgres.NewBatchExecutor(txManager),
	}
}

// genreFilter matches books linked to a genre by case-insensitive name.
func genreFilter(item filter.Item) (squirrel.Sqlizer, error) {
	return squirrel.Expr(`EXISTS (
		SELECT 1 FROM cat_book_genres bg
		JOIN cat_genres g ON g.id = bg.genre_id
		WHERE bg.book_id = t.id AND lower(g.name) = lower(?))`, fmt.Sprint(item.Value)), nil
}

// Create inserts the book and its genre links.
func (r *BookRepo) Create(ctx context.Context, b *book.Book) error {
	if err := r.BaseRepo.Create(ctx, b); err != nil {
		return err
	}
	return r.replaceGenres(ctx, b)
}

// Update writes the book and, when GenreIDs is set, replaces its genre links.
func (r *BookRepo) Update(ctx context.Context, b *book.Book) error {
	if err := r.BaseRepo.Update(ctx, b); err != nil {
		return err
	}
	return r.replaceGenres(ctx, b)
}

func (r *BookRepo) replaceGenres(ctx context.Context, b *book.Book) error {
	if b.GenreIDs == nil {
		return nil
	}
	queries, err := postgres.BatchFrom(genreLinkQueries(b.ID, b.GenreIDs)...)
	if err != nil {
		return err
	}
	if err := r.batch.ExecuteBatch(ctx, queries); err != nil {
		return postgres.MapError(err, "book genre", "replace")
	}
	return nil
}

// genreLinkQueries deletes the current links and inserts genreIDs.
func genreLinkQueries(bookID id.ID, genreIDs []id.ID) []squirrel.Sqlizer {
	b := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	out := []squirrel.Sqlizer{
		b.Delete("cat_book_genres").Where(squirrel.Eq{"book_id": bookID}),
	}
	if len(genreIDs) > 0 {
		ins := b.Insert("cat_book_genres").Columns("book_id", "genre_id")
		for _, gid := range genreIDs {
			ins = ins.Values(bookID, gid)
		}
		out = append(out, ins.Suffix("ON CONFLICT DO NOTHING"))
	}
	return out
}

// SlugExists reports whether a book other than excludeID uses slug, in any view.
func (r *BookRepo) SlugExists(ctx context.Context, slug string, excludeID id.ID) (bool, error) {
	sql, args, err := r.slugQuery(slug, excludeID).ToSql()
	if err != nil {
		return false, fmt.Errorf("build slug query: %w", err)
	}
	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return true, nil
}

func (r *BookRepo) slugQuery(slug string, excludeID id.ID) squirrel.SelectBuilder {
	q := r.Builder().Select("1").From("cat_books").Where(squirrel.Eq{"slug": slug})
	if !id.IsNil(excludeID) {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}
	return q.Limit(1)
}
