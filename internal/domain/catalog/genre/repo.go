package genre

import (
	"context"

	"bibliolab/internal/core/id"
)

// Repository defines persistence for genres.
type Repository interface {
	Create(ctx context.Context, g *Genre) error
	List(ctx context.Context) ([]*Genre, error)
	GetByName(ctx context.Context, name string) (*Genre, error)

	// MissingIDs returns the ids from ids that do not exist.
	MissingIDs(ctx context.Context, ids []id.ID) ([]id.ID, error)
}
