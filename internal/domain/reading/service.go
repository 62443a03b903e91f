package reading

import (
	"context"
	"fmt"
	"time"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/tx"
	"bibliolab/internal/core/types"
	"bibliolab/pkg/logger"
)

// GenreChecker verifies genre references.
type GenreChecker interface {
	EnsureExist(ctx context.Context, ids []id.ID) error
}

// BookChecker verifies book references.
type BookChecker interface {
	EnsureActive(ctx context.Context, bookID id.ID) error
}

// Service manages reading profiles. Users manage their own profile;
// administrators manage any profile and are the only ones adding recommendations.
type Service struct {
	repo      Repository
	txManager tx.Manager
	genres    GenreChecker
	books     BookChecker
	clock     func() time.Time
}

// NewService creates a new reading profile service.
func NewService(repo Repository, txManager tx.Manager, genres GenreChecker, books BookChecker, clock func() time.Time) *Service {
	if txManager == nil {
		txManager = tx.Nop{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{repo: repo, txManager: txManager, genres: genres, books: books, clock: clock}
}

func authorizeProfile(ctx context.Context, userID id.ID) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if user.IsAdmin || user.ID() == userID {
		return nil
	}
	return apperror.NewForbidden("You do not have permission to access this profile")
}

func (s *Service) profile(ctx context.Context, userID id.ID) (*Profile, error) {
	p, err := s.repo.GetOrCreate(ctx, userID, s.clock().UTC())
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// Get returns the profile overview of userID.
func (s *Service) Get(ctx context.Context, userID id.ID) (*Overview, error) {
	if err := authorizeProfile(ctx, userID); err != nil {
		return nil, err
	}

	var out Overview
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.profile(ctx, userID)
		if err != nil {
			return err
		}
		out.Profile = p

		if out.FavoriteGenres, err = s.repo.FavoriteGenres(ctx, p.ID); err != nil {
			return fmt.Errorf("load favorite genres: %w", err)
		}
		if out.RecentHistory, err = s.repo.RecentHistory(ctx, p.ID, HistoryPreviewSize); err != nil {
			return fmt.Errorf("load reading history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetFavoriteGenres replaces the favorite genres of userID.
func (s *Service) SetFavoriteGenres(ctx context.Context, userID id.ID, genreIDs []id.ID) (*Overview, error) {
	if err := authorizeProfile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.genres.EnsureExist(ctx, genreIDs); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.profile(ctx, userID)
		if err != nil {
			return err
		}
		return s.repo.ReplaceFavoriteGenres(ctx, p.ID, genreIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// AddHistory records a read book for userID.
func (s *Service) AddHistory(ctx context.Context, userID id.ID, entry *HistoryEntry) error {
	if err := authorizeProfile(ctx, userID); err != nil {
		return err
	}
	entry.DateRead = types.DateOf(entry.DateRead)
	if err := entry.Validate(types.DateOf(s.clock())); err != nil {
		return err
	}
	if err := s.books.EnsureActive(ctx, entry.BookID); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.profile(ctx, userID)
		if err != nil {
			return err
		}
		entry.ID = id.New()
		entry.ProfileID = p.ID
		if err := s.repo.AddHistory(ctx, entry); err != nil {
			return fmt.Errorf("add reading history: %w", err)
		}
		logger.Info(ctx, "reading history recorded", "profile_id", p.ID, "book_id", entry.BookID)
		return nil
	})
}

// Recommendations returns the top five recommendations of userID.
func (s *Service) Recommendations(ctx context.Context, userID id.ID) ([]*Recommendation, error) {
	if err := authorizeProfile(ctx, userID); err != nil {
		return nil, err
	}

	var recs []*Recommendation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.profile(ctx, userID)
		if err != nil {
			return err
		}
		recs, err = s.repo.TopRecommendations(ctx, p.ID, RecommendationLimit)
		return err
	})
	return recs, err
}

// Recommend adds a recommendation for userID. Administrators only.
func (s *Service) Recommend(ctx context.Context, userID, bookID id.ID, score float64) (*Recommendation, error) {
	if appctx.GetUser(ctx) == nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	if !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("only administrators can add recommendations")
	}
	if score < 0 {
		return nil, apperror.NewFieldValidation("score", "score must not be negative")
	}
	if err := s.books.EnsureActive(ctx, bookID); err != nil {
		return nil, err
	}

	rec := &Recommendation{ID: id.New(), BookID: bookID, Score: score, CreatedAt: s.clock().UTC()}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.profile(ctx, userID)
		if err != nil {
			return err
		}
		rec.ProfileID = p.ID
		return s.repo.AddRecommendation(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
