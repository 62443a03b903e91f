package person

import (
	"context"

	"bibliolab/internal/domain"
)

// Repository defines persistence for people.
//
// List understands the filters "gender" (eq) and "birth_date" (lte/gte).
type Repository interface {
	domain.Repository[*Person]

	// FindByEmail returns the record (in any view) using email.
	FindByEmail(ctx context.Context, email string) (*Person, error)
}
