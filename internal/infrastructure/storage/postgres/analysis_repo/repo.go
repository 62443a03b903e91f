// Package analysis_repo runs the catalog aggregate queries behind the
// complex analysis endpoint.
package analysis_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"bibliolab/internal/domain"
	"bibliolab/internal/domain/analysis"
	"bibliolab/internal/domain/catalog/author"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/filter"
	"bibliolab/internal/infrastructure/storage/postgres"
	"bibliolab/internal/infrastructure/storage/postgres/entity_repo"
)

// Repo implements analysis.Repository. Only active records are counted.
type Repo struct {
	txManager *postgres.TxManager
	authors   *entity_repo.AuthorRepo
	books     *entity_repo.BookRepo
}

var _ analysis.Repository = (*Repo)(nil)

// New creates a new analysis repository.
func New(txManager *postgres.TxManager, authors *entity_repo.AuthorRepo, books *entity_repo.BookRepo) *Repo {
	return &Repo{txManager: txManager, authors: authors, books: books}
}

func (r *Repo) AverageRating(ctx context.Context) (*float64, error) {
	var avg *float64
	err := r.txManager.GetQuerier(ctx).
		QueryRow(ctx, `SELECT AVG(rating)::float8 FROM cat_books WHERE NOT deleted`).
		Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}
	return avg, nil
}

func (r *Repo) MostProlificAuthor(ctx context.Context) (*author.Author, error) {
	res, err := r.authors.List(ctx, domain.ListFilter{
		View:    domain.ViewDefault,
		OrderBy: "-books_count,name",
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("most prolific author: %w", err)
	}
	if len(res.Items) == 0 {
		return nil, nil
	}
	return res.Items[0], nil
}

func (r *Repo) RecentBooks(ctx context.Context, since time.Time) ([]*book.Book, error) {
	res, err := r.books.List(ctx, domain.ListFilter{
		View:    domain.ViewDefault,
		Filters: []filter.Item{filter.Gte("publication_date", since.UTC())},
		OrderBy: "-publication_date",
	})
	if err != nil {
		return nil, fmt.Errorf("recent books: %w", err)
	}
	return res.Items, nil
}

type genreCount struct {
	Name  string `db:"name"`
	Count int64  `db:"count"`
}

// GenreCounts counts active books per genre. Genres without books report zero.
func (r *Repo) GenreCounts(ctx context.Context) (map[string]int64, error) {
	var rows []genreCount
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, `
		SELECT g.name, COUNT(b.id) AS count
		FROM cat_genres g
		LEFT JOIN cat_book_genres bg ON bg.genre_id = g.id
		LEFT JOIN cat_books b ON b.id = bg.book_id AND NOT b.deleted
		GROUP BY g.name
		ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("genre counts: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Count
	}
	return out, nil
}
