package entity_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/catalog/genre"
	"bibliolab/internal/domain/reading"
	"bibliolab/internal/infrastructure/storage/postgres"
)

// ReadingRepo implements reading.Repository over the rd_* tables.
type ReadingRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchExecutor
}

var _ reading.Repository = (*ReadingRepo)(nil)

// NewReadingRepo creates a new reading profile repository.
func NewReadingRepo(txManager *postgres.TxManager) *ReadingRepo {
	return &ReadingRepo{
		txManager: txManager,
		batch:     postgres.NewBatchExecutor(txManager),
	}
}

func (r *ReadingRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetOrCreate inserts the profile if missing and returns the stored row.
func (r *ReadingRepo) GetOrCreate(ctx context.Context, userID id.ID, now time.Time) (*reading.Profile, error) {
	q := r.txManager.GetQuerier(ctx)
	if _, err := q.Exec(ctx, `
		INSERT INTO rd_profiles (id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`, id.New(), userID, now.UTC()); err != nil {
		return nil, postgres.MapError(err, "profile", "insert")
	}

	var p reading.Profile
	if err := pgxscan.Get(ctx, q, &p,
		`SELECT id, user_id, created_at FROM rd_profiles WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *ReadingRepo) FavoriteGenres(ctx context.Context, profileID id.ID) ([]*genre.Genre, error) {
	var out []*genre.Genre
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, `
		SELECT g.id, g.name
		FROM rd_profile_genres pg
		JOIN cat_genres g ON g.id = pg.genre_id
		WHERE pg.profile_id = $1
		ORDER BY g.name`, profileID)
	if err != nil {
		return nil, fmt.Errorf("favorite genres: %w", err)
	}
	return out, nil
}

// ReplaceFavoriteGenres swaps the whole favorite set in one batch.
func (r *ReadingRepo) ReplaceFavoriteGenres(ctx context.Context, profileID id.ID, genreIDs []id.ID) error {
	queries, err := postgres.BatchFrom(favoriteGenreQueries(profileID, genreIDs)...)
	if err != nil {
		return err
	}
	if err := r.batch.ExecuteBatch(ctx, queries); err != nil {
		return postgres.MapError(err, "profile genre", "replace")
	}
	return nil
}

func favoriteGenreQueries(profileID id.ID, genreIDs []id.ID) []squirrel.Sqlizer {
	b := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	out := []squirrel.Sqlizer{
		b.Delete("rd_profile_genres").Where(squirrel.Eq{"profile_id": profileID}),
	}
	if len(genreIDs) > 0 {
		ins := b.Insert("rd_profile_genres").Columns("profile_id", "genre_id")
		for _, gid := range genreIDs {
			ins = ins.Values(profileID, gid)
		}
		out = append(out, ins.Suffix("ON CONFLICT DO NOTHING"))
	}
	return out
}

func (r *ReadingRepo) AddHistory(ctx context.Context, entry *reading.HistoryEntry) error {
	sql, args, err := r.builder().Insert("rd_reading_history").SetMap(postgres.StructToMap(entry)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "reading history", "insert")
	}
	return nil
}

// RecentHistory returns the newest entries first.
func (r *ReadingRepo) RecentHistory(ctx context.Context, profileID id.ID, limit int) ([]*reading.HistoryEntry, error) {
	var out []*reading.HistoryEntry
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, `
		SELECT h.id, h.profile_id, h.book_id, h.date_read, h.rating, COALESCE(b.title, '') AS book_title
		FROM rd_reading_history h
		LEFT JOIN cat_books b ON b.id = h.book_id
		WHERE h.profile_id = $1
		ORDER BY h.date_read DESC, h.id DESC
		LIMIT $2`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return out, nil
}

func (r *ReadingRepo) AddRecommendation(ctx context.Context, rec *reading.Recommendation) error {
	sql, args, err := r.builder().Insert("rd_recommendations").SetMap(postgres.StructToMap(rec)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "recommendation", "insert")
	}
	return nil
}

// TopRecommendations returns the highest scores first. Deleted books are skipped.
func (r *ReadingRepo) TopRecommendations(ctx context.Context, profileID id.ID, limit int) ([]*reading.Recommendation, error) {
	var out []*reading.Recommendation
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, `
		SELECT rc.id, rc.profile_id, rc.book_id, rc.score, rc.created_at, b.title AS book_title
		FROM rd_recommendations rc
		JOIN cat_books b ON b.id = rc.book_id AND NOT b.deleted
		WHERE rc.profile_id = $1
		ORDER BY rc.score DESC, rc.created_at DESC
		LIMIT $2`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	return out, nil
}
