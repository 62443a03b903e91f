package genre

import (
	"context"
	"fmt"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
	"bibliolab/internal/core/id"
	"bibliolab/pkg/logger"
)

// Invalidator drops state derived from the genre table, such as cached
// per-genre book counts.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service manages the genre lookup table.
type Service struct {
	repo    Repository
	derived Invalidator
}

// NewService creates a new genre service. derived may be nil.
func NewService(repo Repository, derived Invalidator) *Service {
	return &Service{repo: repo, derived: derived}
}

// List returns every genre ordered by name.
func (s *Service) List(ctx context.Context) ([]*Genre, error) {
	return s.repo.List(ctx)
}

// Create adds a genre. Only administrators may extend the table.
func (s *Service) Create(ctx context.Context, name string) (*Genre, error) {
	if appctx.GetUser(ctx) == nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	if !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("only administrators can create genres")
	}

	g := NewGenre(name)
	if err := g.Validate(ctx); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByName(ctx, g.Name); err == nil && existing != nil {
		return nil, apperror.NewDuplicate("genre", "name", g.Name)
	} else if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create genre: %w", err)
	}

	logger.Info(ctx, "genre created", "id", g.ID, "name", g.Name)

	// The row is already stored; a stale cache expires on its own TTL.
	if s.derived != nil {
		if err := s.derived.Invalidate(ctx); err != nil {
			logger.Warn(ctx, "genre-derived cache invalidation failed", "error", err)
		}
	}
	return g, nil
}

// EnsureExist fails with a validation error naming the first unknown genre id.
func (s *Service) EnsureExist(ctx context.Context, ids []id.ID) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := s.repo.MissingIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("check genres: %w", err)
	}
	if len(missing) > 0 {
		return apperror.NewFieldValidation("genres", "unknown genre").
			WithDetail("missing", missing)
	}
	return nil
}
