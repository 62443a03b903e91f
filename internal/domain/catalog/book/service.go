package book

import (
	"context"
	"fmt"
	"time"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/security"
	"bibliolab/internal/core/tx"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/audit"
	"bibliolab/internal/domain/filter"
)

// Named query defaults.
const (
	DefaultPopularMinRating = 4.0
	TopRatedLimit           = 10
	RecentWindowDays        = 30
	maxSlugAttempts         = 100
)

// GenreChecker verifies genre references.
type GenreChecker interface {
	EnsureExist(ctx context.Context, ids []id.ID) error
}

// AuthorChecker verifies that an author exists and is active.
type AuthorChecker interface {
	EnsureActive(ctx context.Context, authorID id.ID) error
}

// Service provides business logic for books.
type Service struct {
	*domain.LifecycleService[*Book]
	repo    Repository
	genres  GenreChecker
	authors AuthorChecker
}

// ServiceDeps groups the collaborators of the book service.
type ServiceDeps struct {
	Repo      Repository
	TxManager tx.Manager
	Policy    security.MutationPolicy
	Recorder  audit.Recorder
	Genres    GenreChecker
	Authors   AuthorChecker
	Clock     func() time.Time
}

// NewService creates a new book service.
func NewService(deps ServiceDeps) *Service {
	base := domain.NewLifecycleService(domain.LifecycleServiceConfig[*Book]{
		Repo:       deps.Repo,
		TxManager:  deps.TxManager,
		Policy:     deps.Policy,
		Recorder:   deps.Recorder,
		Clock:      deps.Clock,
		EntityName: "book",
	})

	svc := &Service{
		LifecycleService: base,
		repo:             deps.Repo,
		genres:           deps.Genres,
		authors:          deps.Authors,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)
	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, b *Book) error {
	if err := b.ValidatePublicationNotPast(s.Now()); err != nil {
		return err
	}
	if err := s.checkReferences(ctx, b); err != nil {
		return err
	}
	if b.Slug == "" {
		slug, err := s.uniqueSlug(ctx, Slugify(b.Title), b.ID)
		if err != nil {
			return err
		}
		b.Slug = slug
	}
	return nil
}

func (s *Service) prepareForUpdate(ctx context.Context, b *Book) error {
	return s.checkReferences(ctx, b)
}

func (s *Service) checkReferences(ctx context.Context, b *Book) error {
	if s.authors != nil {
		if err := s.authors.EnsureActive(ctx, b.AuthorID); err != nil {
			return err
		}
	}
	if s.genres != nil && b.GenreIDs != nil {
		if err := s.genres.EnsureExist(ctx, b.GenreIDs); err != nil {
			return err
		}
	}
	return nil
}

// uniqueSlug appends -2, -3, ... to base until no other book uses it.
func (s *Service) uniqueSlug(ctx context.Context, base string, self id.ID) (string, error) {
	if base == "" {
		base = "book"
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate, self)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", apperror.NewConflict("could not derive a unique slug").WithDetail("slug", base)
}

// SetGenres replaces the genre set of a book.
func (s *Service) SetGenres(ctx context.Context, bookID id.ID, genreIDs []id.ID) (*Book, error) {
	if genreIDs == nil {
		genreIDs = []id.ID{}
	}
	return s.Update(ctx, bookID, func(b *Book) error {
		b.GenreIDs = dedupe(genreIDs)
		return nil
	})
}

func dedupe(ids []id.ID) []id.ID {
	seen := make(map[id.ID]struct{}, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// --- Named queries (always the default view) ---

func active(f domain.ListFilter) domain.ListFilter {
	f.View = domain.ViewDefault
	return f
}

// Popular returns active books rated at least minRating.
func (s *Service) Popular(ctx context.Context, minRating float64) ([]*Book, error) {
	f := domain.ListFilter{OrderBy: "-rating"}.With(filter.Gte("rating", minRating))
	res, err := s.repo.List(ctx, active(f))
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, apperror.NewNoResults("No books found matching the criteria")
	}
	return res.Items, nil
}

// Recent pages through books published in the last 30 days.
func (s *Service) Recent(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Book], error) {
	since := types.DateOf(s.Now()).AddDate(0, 0, -RecentWindowDays)
	if f.OrderBy == "" {
		f.OrderBy = "-publication_date"
	}
	return s.repo.List(ctx, active(f).With(filter.Gte("publication_date", since)))
}

// ByPriceRange returns active books priced within [minPrice, maxPrice].
func (s *Service) ByPriceRange(ctx context.Context, minPrice, maxPrice types.Money) ([]*Book, error) {
	if minPrice.GreaterThan(maxPrice) {
		return nil, apperror.NewValidation("min_price must not exceed max_price")
	}
	f := domain.ListFilter{OrderBy: "price"}.With(
		filter.Gte("price", minPrice),
		filter.Lte("price", maxPrice),
	)
	res, err := s.repo.List(ctx, active(f))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// TopRated returns the ten active books with the highest average rating.
func (s *Service) TopRated(ctx context.Context) ([]*Book, error) {
	res, err := s.repo.List(ctx, active(domain.ListFilter{OrderBy: "-average_rating", Limit: TopRatedLimit}))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ByGenre returns active books linked to the genre named genre.
func (s *Service) ByGenre(ctx context.Context, genre string) ([]*Book, error) {
	if genre == "" {
		return nil, apperror.NewFieldValidation("genre", "Genre parameter is required")
	}
	res, err := s.repo.List(ctx, active(domain.ListFilter{}.With(filter.Eq("genre", genre))))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ByAuthor returns the active books of one author.
func (s *Service) ByAuthor(ctx context.Context, authorID id.ID) ([]*Book, error) {
	res, err := s.repo.List(ctx, active(domain.ListFilter{}.With(filter.Eq("author_id", authorID))))
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, apperror.NewNoResults("No books found for this author")
	}
	return res.Items, nil
}

// EnsureActive fails with a validation error when bookID is unknown or soft-deleted.
func (s *Service) EnsureActive(ctx context.Context, bookID id.ID) error {
	if _, err := s.repo.GetByID(ctx, bookID, domain.ViewDefault); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewFieldValidation("book", "book does not exist").
				WithDetail("id", bookID.String())
		}
		return err
	}
	return nil
}
