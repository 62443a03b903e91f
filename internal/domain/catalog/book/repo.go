package book

import (
	"context"

	"bibliolab/internal/core/id"
	"bibliolab/internal/domain"
)

// Repository defines persistence for books.
//
// List understands the filters "author_id", "price" (gte/lte),
// "publication_date" (gte, year), "rating" (gte), "average_rating" and
// "genre" (name), searches title, author name and isbn, and orders by title,
// publication_date, price, rating and average_rating.
type Repository interface {
	domain.Repository[*Book]

	// SlugExists reports whether any record other than excludeID uses slug.
	SlugExists(ctx context.Context, slug string, excludeID id.ID) (bool, error)
}
