// Package analysis builds the catalog-wide summary served by the complex
// analysis endpoint.
package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bibliolab/internal/domain/catalog/author"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/pkg/logger"
)

// RecentWindow bounds the publication date of recent books.
const RecentWindow = 30 * 24 * time.Hour

// CacheKey is the cache entry holding the latest Result.
const CacheKey = "analysis:catalog"

// Result is the joined output of the four aggregate queries.
type Result struct {
	AverageRating      *float64         `json:"average_rating"`
	MostProlificAuthor *author.Author   `json:"most_prolific_author"`
	RecentBooks        []*book.Book     `json:"recent_books"`
	GenreCounts        map[string]int64 `json:"genre_counts"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

// Repository runs the read-only aggregate queries over active records.
type Repository interface {
	// AverageRating returns nil when there are no books.
	AverageRating(ctx context.Context) (*float64, error)
	// MostProlificAuthor returns nil when there are no authors.
	MostProlificAuthor(ctx context.Context) (*author.Author, error)
	RecentBooks(ctx context.Context, since time.Time) ([]*book.Book, error)
	GenreCounts(ctx context.Context) (map[string]int64, error)
}

// Cache stores a computed Result. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context) (*Result, error)
	Set(ctx context.Context, r *Result) error
	Invalidate(ctx context.Context) error
}

// Service fans the aggregate queries out concurrently.
type Service struct {
	repo  Repository
	cache Cache
	clock func() time.Time
}

// NewService creates a new analysis service. cache may be nil.
func NewService(repo Repository, cache Cache, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{repo: repo, cache: cache, clock: clock}
}

// Run returns the cached summary or computes a fresh one. Any failing query
// cancels the others and fails the whole call.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			logger.Warn(ctx, "analysis cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	now := s.clock().UTC()
	res := &Result{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.repo.AverageRating(gctx)
		if err != nil {
			return fmt.Errorf("average rating: %w", err)
		}
		res.AverageRating = v
		return nil
	})
	g.Go(func() error {
		v, err := s.repo.MostProlificAuthor(gctx)
		if err != nil {
			return fmt.Errorf("most prolific author: %w", err)
		}
		res.MostProlificAuthor = v
		return nil
	})
	g.Go(func() error {
		v, err := s.repo.RecentBooks(gctx, now.Add(-RecentWindow))
		if err != nil {
			return fmt.Errorf("recent books: %w", err)
		}
		res.RecentBooks = v
		return nil
	})
	g.Go(func() error {
		v, err := s.repo.GenreCounts(gctx)
		if err != nil {
			return fmt.Errorf("genre counts: %w", err)
		}
		res.GenreCounts = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if res.RecentBooks == nil {
		res.RecentBooks = []*book.Book{}
	}
	if res.GenreCounts == nil {
		res.GenreCounts = map[string]int64{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, res); err != nil {
			logger.Warn(ctx, "analysis cache write failed", "error", err)
		}
	}
	return res, nil
}

// Invalidate drops the cached summary.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}
