package author

import (
	"bibliolab/internal/domain"
)

// Repository defines persistence for authors.
//
// List understands the filters "name" (exact) and "books_count" (gte), and
// orders by "name".
type Repository interface {
	domain.Repository[*Author]
}
