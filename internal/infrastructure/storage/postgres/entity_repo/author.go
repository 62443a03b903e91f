package entity_repo

import (
	"bibliolab/internal/domain/catalog/author"
	"bibliolab/internal/infrastructure/storage/postgres"
)

// authorSource adds the aggregates over active books.
const authorSource = `SELECT a.*,
	(SELECT COUNT(*) FROM cat_books b WHERE b.author_id = a.id AND NOT b.deleted)::int AS books_count,
	(SELECT AVG(b.rating) FROM cat_books b WHERE b.author_id = a.id AND NOT b.deleted)::float8 AS average_book_rating
FROM cat_authors a`

// AuthorRepo implements author.Repository.
type AuthorRepo struct {
	*BaseRepo[*author.Author]
}

var _ author.Repository = (*AuthorRepo)(nil)

// NewAuthorRepo creates a new author repository.
func NewAuthorRepo(txManager *postgres.TxManager) *AuthorRepo {
	return &AuthorRepo{
		BaseRepo: NewBaseRepo(txManager, Config[*author.Author]{
			Table:        "cat_authors",
			Source:       authorSource,
			EntityName:   "author",
			Searchable:   []string{"name"},
			Filterable:   []string{"name", "books_count", "created_by"},
			Sortable:     []string{"name", "books_count"},
			DefaultOrder: "name",
			New:          func() *author.Author { return &author.Author{} },
		}),
	}
}
