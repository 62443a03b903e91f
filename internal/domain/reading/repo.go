package reading

import (
	"context"
	"time"

	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/catalog/genre"
)

// Repository defines persistence for reading profiles.
type Repository interface {
	// GetOrCreate returns the profile of userID, inserting it on first access.
	GetOrCreate(ctx context.Context, userID id.ID, now time.Time) (*Profile, error)

	FavoriteGenres(ctx context.Context, profileID id.ID) ([]*genre.Genre, error)
	ReplaceFavoriteGenres(ctx context.Context, profileID id.ID, genreIDs []id.ID) error

	AddHistory(ctx context.Context, entry *HistoryEntry) error
	// RecentHistory returns the newest entries first.
	RecentHistory(ctx context.Context, profileID id.ID, limit int) ([]*HistoryEntry, error)

	AddRecommendation(ctx context.Context, rec *Recommendation) error
	// TopRecommendations returns the highest scores first.
	TopRecommendations(ctx context.Context, profileID id.ID, limit int) ([]*Recommendation, error)
}
