// Package entity_repo provides the visibility-aware PostgreSQL repositories
// shared by every soft-deletable entity family.
package entity_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/filter"
	"bibliolab/internal/infrastructure/storage/postgres"
)

// FilterFunc builds the predicate of a field that is not a plain column comparison.
type FilterFunc func(item filter.Item) (squirrel.Sqlizer, error)

// Config describes one entity table.
type Config[T entity.HasLifecycle] struct {
	// Table is the physical table written by INSERT/UPDATE/DELETE.
	Table string

	// Source is an optional SELECT producing the read model (joined names,
	// aggregates). Reads wrap it as "(Source) AS t"; empty reads Table directly.
	Source string

	// EntityName is used in error messages.
	EntityName string

	// Searchable columns are matched with ILIKE by ListFilter.Search.
	Searchable []string

	// Filterable columns accept the generic operators.
	Filterable []string

	// CustomFilters handle fields with bespoke SQL.
	CustomFilters map[string]FilterFunc

	// Sortable columns may appear in ListFilter.OrderBy.
	Sortable []string

	// DefaultOrder applies when OrderBy is empty, e.g. "-start_date".
	DefaultOrder string

	New func() T
}

// BaseRepo implements domain.Repository[T] for a table carrying the lifecycle columns.
type BaseRepo[T entity.HasLifecycle] struct {
	cfg        Config[T]
	txManager  *postgres.TxManager
	selectCols []string
	writeCols  []string
	filterable map[string]struct{}
	sortable   map[string]struct{}
}

// NewBaseRepo creates a repository for T. Columns come from T's db tags.
func NewBaseRepo[T entity.HasLifecycle](txManager *postgres.TxManager, cfg Config[T]) *BaseRepo[T] {
	r := &BaseRepo[T]{
		cfg:        cfg,
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[T](),
		writeCols:  postgres.ExtractWritableColumns[T](),
		filterable: toSet(append([]string{"id", "created_at", "updated_at", "deleted_at"}, cfg.Filterable...)),
		sortable:   toSet(append([]string{"id", "created_at", "updated_at"}, cfg.Sortable...)),
	}
	if len(r.selectCols) == 0 {
		panic(fmt.Sprintf("entity_repo: %s has no db columns", cfg.Table))
	}
	return r
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the active transaction or the pool.
func (r *BaseRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// TxManager exposes the transaction manager to embedding repositories.
func (r *BaseRepo[T]) TxManager() *postgres.TxManager {
	return r.txManager
}

// Table returns the physical table name.
func (r *BaseRepo[T]) Table() string {
	return r.cfg.Table
}

func (r *BaseRepo[T]) from() string {
	if r.cfg.Source == "" {
		return r.cfg.Table
	}
	return "(" + r.cfg.Source + ") AS t"
}

// SelectBuilder starts a SELECT of the read model columns.
func (r *BaseRepo[T]) SelectBuilder() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.from())
}

// ViewPredicate returns the WHERE clause of a view, or nil for ViewAll.
func ViewPredicate(v domain.View) squirrel.Sqlizer {
	switch v {
	case domain.ViewAll:
		return nil
	case domain.ViewDeleted:
		return squirrel.Eq{"deleted": true}
	default:
		return squirrel.Eq{"deleted": false}
	}
}

func withView(q squirrel.SelectBuilder, v domain.View) squirrel.SelectBuilder {
	if pred := ViewPredicate(v); pred != nil {
		q = q.Where(pred)
	}
	return q
}

// Create inserts the writable columns of e.
func (r *BaseRepo[T]) Create(ctx context.Context, e T) error {
	data := r.writableData(e)
	sql, args, err := r.Builder().Insert(r.cfg.Table).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, r.cfg.EntityName, "insert")
	}
	return nil
}

func (r *BaseRepo[T]) writableData(e T) map[string]any {
	data := postgres.StructToMap(e)
	out := make(map[string]any, len(r.writeCols))
	for _, col := range r.writeCols {
		if v, ok := data[col]; ok {
			out[col] = v
		}
	}
	return out
}

// lifecycleColumns change only through SoftDelete and Restore.
var lifecycleColumns = map[string]struct{}{
	"id": {}, "created_at": {}, "deleted": {}, "deleted_at": {},
}

// Update writes the mutable attributes and updated_at of e.
func (r *BaseRepo[T]) Update(ctx context.Context, e T) error {
	sql, args, err := r.updateQuery(e).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.cfg.EntityName, "update")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.cfg.EntityName, e.GetID().String())
	}
	return nil
}

func (r *BaseRepo[T]) updateQuery(e T) squirrel.UpdateBuilder {
	data := r.writableData(e)
	for col := range lifecycleColumns {
		delete(data, col)
	}
	return r.Builder().
		Update(r.cfg.Table).
		SetMap(data).
		Where(squirrel.Eq{"id": e.GetID()})
}

// GetByID retrieves a record visible in view.
func (r *BaseRepo[T]) GetByID(ctx context.Context, entityID id.ID, view domain.View) (T, error) {
	q := withView(r.SelectBuilder().Where(squirrel.Eq{"id": entityID}), view).Limit(1)
	return r.FindOne(ctx, q, entityID.String())
}

// GetForUpdate locks the row and returns the record regardless of deletion state.
func (r *BaseRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	var zero T

	sql, args, err := r.lockQuery(entityID).ToSql()
	if err != nil {
		return zero, fmt.Errorf("build lock: %w", err)
	}
	var locked id.ID
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, apperror.NewNotFound(r.cfg.EntityName, entityID.String())
		}
		return zero, fmt.Errorf("lock %s: %w", r.cfg.EntityName, err)
	}

	return r.GetByID(ctx, entityID, domain.ViewAll)
}

func (r *BaseRepo[T]) lockQuery(entityID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select("id").
		From(r.cfg.Table).
		Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE")
}

// FindOne runs q and scans a single record. notFoundKey labels the NotFound error.
func (r *BaseRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, notFoundKey string) (T, error) {
	e := r.cfg.New()

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.Querier(ctx), e, sql, args...); err != nil {
		var zero T
		if pgxscan.NotFound(err) {
			return zero, apperror.NewNotFound(r.cfg.EntityName, notFoundKey)
		}
		return zero, fmt.Errorf("get %s: %w", r.cfg.EntityName, err)
	}
	return e, nil
}

// FindMany runs q and scans all rows.
func (r *BaseRepo[T]) FindMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var items []T
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.cfg.EntityName, err)
	}
	return items, nil
}

// List retrieves records with view, search, filters, ordering and pagination.
func (r *BaseRepo[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: f.Limit, Offset: f.Offset}

	q, err := r.listQuery(f)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.cfg.EntityName, err)
	}

	q, err = r.paginate(q, f)
	if err != nil {
		return result, err
	}

	items, err := r.FindMany(ctx, q)
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

// listQuery composes the view predicate with ids, search and filters.
func (r *BaseRepo[T]) listQuery(f domain.ListFilter) (squirrel.SelectBuilder, error) {
	q := withView(r.SelectBuilder(), f.View)

	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}

	if term := strings.TrimSpace(f.Search); term != "" && len(r.cfg.Searchable) > 0 {
		pattern := "%" + escapeLike(term) + "%"
		or := make(squirrel.Or, 0, len(r.cfg.Searchable))
		for _, col := range r.cfg.Searchable {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}

	for _, item := range f.Filters {
		pred, err := r.predicate(item)
		if err != nil {
			return q, err
		}
		q = q.Where(pred)
	}
	return q, nil
}

func (r *BaseRepo[T]) paginate(q squirrel.SelectBuilder, f domain.ListFilter) (squirrel.SelectBuilder, error) {
	order, err := r.orderBy(f.OrderBy)
	if err != nil {
		return q, err
	}
	q = q.OrderBy(order...)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// predicate translates one filter item, rejecting fields outside the whitelist.
func (r *BaseRepo[T]) predicate(item filter.Item) (squirrel.Sqlizer, error) {
	if fn, ok := r.cfg.CustomFilters[item.Field]; ok {
		return fn(item)
	}
	if _, ok := r.filterable[item.Field]; !ok {
		return nil, apperror.NewFieldValidation(item.Field, "unsupported filter").
			WithDetail("field", item.Field)
	}

	col := item.Field
	switch item.Operator {
	case filter.Equal, filter.InList:
		return squirrel.Eq{col: item.Value}, nil
	case filter.NotEqual:
		return squirrel.NotEq{col: item.Value}, nil
	case filter.Less:
		return squirrel.Lt{col: item.Value}, nil
	case filter.LessOrEqual:
		return squirrel.LtOrEq{col: item.Value}, nil
	case filter.Greater:
		return squirrel.Gt{col: item.Value}, nil
	case filter.GreaterOrEqual:
		return squirrel.GtOrEq{col: item.Value}, nil
	case filter.Contains:
		return squirrel.ILike{col: fmt.Sprintf("%%%s%%", escapeLike(fmt.Sprint(item.Value)))}, nil
	case filter.YearEquals:
		return squirrel.Expr("EXTRACT(YEAR FROM "+col+") = ?", item.Value), nil
	case filter.IsNull:
		return squirrel.Eq{col: nil}, nil
	case filter.IsNotNull:
		return squirrel.NotEq{col: nil}, nil
	}
	return nil, apperror.NewFieldValidation(item.Field, "unsupported filter operator").
		WithDetail("operator", string(item.Operator))
}

// orderBy parses "a,-b" into ORDER BY terms. id is appended as a tie-breaker
// so pages are stable.
func (r *BaseRepo[T]) orderBy(ordering string) ([]string, error) {
	if strings.TrimSpace(ordering) == "" {
		ordering = r.cfg.DefaultOrder
	}
	if strings.TrimSpace(ordering) == "" {
		ordering = "-created_at"
	}

	var terms []string
	hasID := false
	for _, raw := range strings.Split(ordering, ",") {
		key := strings.TrimSpace(raw)
		if key == "" {
			continue
		}
		direction := "ASC"
		switch key[0] {
		case '-':
			direction, key = "DESC", key[1:]
		case '+':
			key = key[1:]
		}
		if _, ok := r.sortable[key]; !ok {
			return nil, apperror.NewFieldValidation("ordering", "invalid ordering field").
				WithDetail("value", key)
		}
		if key == "id" {
			hasID = true
		}
		terms = append(terms, key+" "+direction)
	}
	if !hasID {
		terms = append(terms, "id ASC")
	}
	return terms, nil
}

// SoftDelete flips an active row to deleted with a compare-and-set UPDATE.
// Zero affected rows means the row is missing or already deleted.
func (r *BaseRepo[T]) SoftDelete(ctx context.Context, entityID id.ID, at time.Time) error {
	sql, args, err := r.softDeleteQuery(entityID, at).ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.cfg.EntityName, "soft delete")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	exists, err := r.Exists(ctx, entityID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewAlreadyDeleted(r.cfg.EntityName, entityID.String())
	}
	return apperror.NewNotFound(r.cfg.EntityName, entityID.String())
}

func (r *BaseRepo[T]) softDeleteQuery(entityID id.ID, at time.Time) squirrel.UpdateBuilder {
	at = at.UTC()
	return r.Builder().
		Update(r.cfg.Table).
		Set("deleted", true).
		Set("deleted_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"deleted": false})
}

// Restore flips a deleted row back to active. It reports false for an active row.
func (r *BaseRepo[T]) Restore(ctx context.Context, entityID id.ID, at time.Time) (bool, error) {
	sql, args, err := r.restoreQuery(entityID, at).ToSql()
	if err != nil {
		return false, fmt.Errorf("build restore: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.MapError(err, r.cfg.EntityName, "restore")
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	exists, err := r.Exists(ctx, entityID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, apperror.NewNotFound(r.cfg.EntityName, entityID.String())
	}
	return false, nil
}

func (r *BaseRepo[T]) restoreQuery(entityID id.ID, at time.Time) squirrel.UpdateBuilder {
	return r.Builder().
		Update(r.cfg.Table).
		Set("deleted", false).
		Set("deleted_at", nil).
		Set("updated_at", at.UTC()).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"deleted": true})
}

// HardDelete physically removes the row.
func (r *BaseRepo[T]) HardDelete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().Delete(r.cfg.Table).Where(squirrel.Eq{"id": entityID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.cfg.EntityName, "delete")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.cfg.EntityName, entityID.String())
	}
	return nil
}

// Exists reports whether a row with entityID exists in any view.
func (r *BaseRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.cfg.Table).
		Where(squirrel.Eq{"id": entityID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.cfg.EntityName, err)
	}
	return true, nil
}
