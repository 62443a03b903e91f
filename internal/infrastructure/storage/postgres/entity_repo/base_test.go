package entity_repo

import (
	"context"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/filter"
)

type testItem struct {
	entity.BaseEntity
	entity.Owned

	Name  string  `db:"name"`
	Score float64 `db:"score"`
	Label string  `db:"label" persist:"-"`
}

func (t *testItem) Validate(context.Context) error { return nil }

func newTestRepo() *BaseRepo[*testItem] {
	return NewBaseRepo(nil, Config[*testItem]{
		Table:      "test_items",
		EntityName: "item",
		Searchable: []string{"name", "label"},
		Filterable: []string{"name", "score"},
		CustomFilters: map[string]FilterFunc{
			"tag": func(item filter.Item) (squirrel.Sqlizer, error) {
				return squirrel.Expr("EXISTS (SELECT 1 FROM test_tags tt WHERE tt.item_id = id AND tt.tag = ?)", item.Value), nil
			},
		},
		Sortable:     []string{"name", "score"},
		DefaultOrder: "-score",
		New:          func() *testItem { return &testItem{} },
	})
}

const itemCols = "id, created_at, updated_at, deleted, deleted_at, created_by, name, score, label"

func TestBaseRepo_ViewPredicates(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		view     domain.View
		wantSQL  string
		wantArgs []any
	}{
		{domain.ViewDefault, "SELECT " + itemCols + " FROM test_items WHERE deleted = $1", []any{false}},
		{domain.ViewDeleted, "SELECT " + itemCols + " FROM test_items WHERE deleted = $1", []any{true}},
		{domain.ViewAll, "SELECT " + itemCols + " FROM test_items", nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			q, err := repo.listQuery(domain.ListFilter{View: tt.view})
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestBaseRepo_ListQueryComposition(t *testing.T) {
	repo := newTestRepo()
	f := domain.ListFilter{
		View:    domain.ViewDefault,
		Search:  "50%",
		OrderBy: "name,-score",
		Limit:   10,
		Offset:  20,
	}.With(filter.Gte("score", 4.0), filter.Eq("tag", "red"))

	q, err := repo.listQuery(f)
	require.NoError(t, err)
	q, err = repo.paginate(q, f)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT "+itemCols+" FROM test_items WHERE deleted = $1 "+
			"AND (name ILIKE $2 OR label ILIKE $3) "+
			"AND score >= $4 "+
			"AND EXISTS (SELECT 1 FROM test_tags tt WHERE tt.item_id = id AND tt.tag = $5) "+
			"ORDER BY name ASC, score DESC, id ASC LIMIT 10 OFFSET 20",
		sql)
	assert.Equal(t, []any{false, `%50\%%`, `%50\%%`, 4.0, "red"}, args)
}

func TestBaseRepo_DefaultOrder(t *testing.T) {
	order, err := newTestRepo().orderBy("")
	require.NoError(t, err)
	assert.Equal(t, []string{"score DESC", "id ASC"}, order)
}

func TestBaseRepo_RejectsUnknownFields(t *testing.T) {
	repo := newTestRepo()

	_, err := repo.listQuery(domain.ListFilter{}.With(filter.Eq("password", "x")))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = repo.orderBy("-secret")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestBaseRepo_YearFilter(t *testing.T) {
	repo := newTestRepo()
	pred, err := repo.predicate(filter.Item{Field: "created_at", Operator: filter.YearEquals, Value: 2024})
	require.NoError(t, err)

	sql, args, err := pred.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "EXTRACT(YEAR FROM created_at) = ?", sql)
	assert.Equal(t, []any{2024}, args)
}

func TestBaseRepo_SourceWrapsReadModel(t *testing.T) {
	repo := NewBaseRepo(nil, Config[*testItem]{
		Table:  "test_items",
		Source: "SELECT i.*, l.text AS label FROM test_items i LEFT JOIN test_labels l ON l.item_id = i.id",
		New:    func() *testItem { return &testItem{} },
	})

	sql, _, err := repo.SelectBuilder().ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT "+itemCols+" FROM (SELECT i.*, l.text AS label FROM test_items i LEFT JOIN test_labels l ON l.item_id = i.id) AS t",
		sql)
}

func TestBaseRepo_SoftDeleteIsCompareAndSet(t *testing.T) {
	repo := newTestRepo()
	entityID := id.New()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	sql, args, err := repo.softDeleteQuery(entityID, at).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE test_items SET deleted = $1, deleted_at = $2, updated_at = $3 WHERE id = $4 AND deleted = $5",
		sql)
	assert.Equal(t, []any{true, at, at, entityID.String(), false}, args)
}

func TestBaseRepo_RestoreOnlyTouchesDeletedRows(t *testing.T) {
	repo := newTestRepo()
	entityID := id.New()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	sql, args, err := repo.restoreQuery(entityID, at).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE test_items SET deleted = $1, deleted_at = $2, updated_at = $3 WHERE id = $4 AND deleted = $5",
		sql)
	assert.Equal(t, []any{false, nil, at, entityID.String(), true}, args)
}

func TestBaseRepo_UpdateSkipsLifecycleAndReadOnlyColumns(t *testing.T) {
	repo := newTestRepo()
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	owner := id.New()
	item := &testItem{
		BaseEntity: entity.NewBaseEntity(now),
		Owned:      entity.Owned{CreatedBy: owner},
		Name:       "n",
		Score:      1.5,
		Label:      "joined",
	}

	sql, args, err := repo.updateQuery(item).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE test_items SET created_by = $1, name = $2, score = $3, updated_at = $4 WHERE id = $5",
		sql)
	assert.Equal(t, []any{owner, "n", 1.5, now, item.ID.String()}, args)
}

func TestBaseRepo_LockQuery(t *testing.T) {
	repo := newTestRepo()
	entityID := id.New()

	sql, _, err := repo.lockQuery(entityID).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM test_items WHERE id = $1 FOR UPDATE", sql)
}
