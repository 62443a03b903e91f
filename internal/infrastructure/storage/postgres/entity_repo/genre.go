package entity_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/catalog/genre"
	"bibliolab/internal/infrastructure/storage/postgres"
)

// GenreRepo implements genre.Repository. Genres have no lifecycle.
type GenreRepo struct {
	txManager *postgres.TxManager
}

var _ genre.Repository = (*GenreRepo)(nil)

// NewGenreRepo creates a new genre repository.
func NewGenreRepo(txManager *postgres.TxManager) *GenreRepo {
	return &GenreRepo{txManager: txManager}
}

func (r *GenreRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *GenreRepo) Create(ctx context.Context, g *genre.Genre) error {
	sql, args, err := r.builder().Insert("cat_genres").SetMap(postgres.StructToMap(g)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "genre", "insert")
	}
	return nil
}

func (r *GenreRepo) List(ctx context.Context) ([]*genre.Genre, error) {
	var out []*genre.Genre
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out,
		`SELECT id, name FROM cat_genres ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return out, nil
}

func (r *GenreRepo) GetByName(ctx context.Context, name string) (*genre.Genre, error) {
	var g genre.Genre
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &g,
		`SELECT id, name FROM cat_genres WHERE lower(name) = lower($1)`, strings.TrimSpace(name))
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("genre", name)
		}
		return nil, fmt.Errorf("get genre: %w", err)
	}
	return &g, nil
}

func (r *GenreRepo) MissingIDs(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var missing []id.ID
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &missing, `
		SELECT want.id
		FROM unnest($1::uuid[]) AS want(id)
		WHERE NOT EXISTS (SELECT 1 FROM cat_genres g WHERE g.id = want.id)`, ids)
	if err != nil {
		return nil, fmt.Errorf("check genres: %w", err)
	}
	return missing, nil
}
