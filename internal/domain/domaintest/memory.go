// Package domaintest provides in-memory doubles for domain service tests.
package domaintest

import (
	"context"
	"sync"
	"time"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/audit"
	"bibliolab/internal/domain/filter"
)

// MemoryRepo is a map-backed domain.Repository. Records are cloned on the way
// in and out so callers never share state with the store.
type MemoryRepo[T entity.HasLifecycle] struct {
	mu    sync.Mutex
	order []id.ID
	rows  map[id.ID]T
	clone func(T) T

	// Match evaluates a filter item; nil ignores filters.
	Match func(T, filter.Item) bool
	// Search evaluates the search term; nil ignores search.
	Search func(T, string) bool
}

// NewMemoryRepo creates an empty repository.
func NewMemoryRepo[T entity.HasLifecycle](clone func(T) T) *MemoryRepo[T] {
	return &MemoryRepo[T]{rows: make(map[id.ID]T), clone: clone}
}

// Put stores a record directly, bypassing services.
func (r *MemoryRepo[T]) Put(e T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.GetID()]; !ok {
		r.order = append(r.order, e.GetID())
	}
	r.rows[e.GetID()] = r.clone(e)
}

// Peek returns the stored copy of a record.
func (r *MemoryRepo[T]) Peek(entityID id.ID) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[entityID]
	if !ok {
		return e, false
	}
	return r.clone(e), true
}

// All returns every stored record in insertion order.
func (r *MemoryRepo[T]) All() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.order))
	for _, k := range r.order {
		if e, ok := r.rows[k]; ok {
			out = append(out, r.clone(e))
		}
	}
	return out
}

func (r *MemoryRepo[T]) Create(_ context.Context, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.GetID()]; ok {
		return apperror.NewDuplicate("record", "id", e.GetID().String())
	}
	r.order = append(r.order, e.GetID())
	r.rows[e.GetID()] = r.clone(e)
	return nil
}

func (r *MemoryRepo[T]) GetByID(_ context.Context, entityID id.ID, view domain.View) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[entityID]
	if !ok || !view.Includes(e.LifecycleState().Deleted) {
		var zero T
		return zero, apperror.NewNotFound("record", entityID.String())
	}
	return r.clone(e), nil
}

func (r *MemoryRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.GetByID(ctx, entityID, domain.ViewAll)
}

func (r *MemoryRepo[T]) Update(_ context.Context, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.GetID()]; !ok {
		return apperror.NewNotFound("record", e.GetID().String())
	}
	r.rows[e.GetID()] = r.clone(e)
	return nil
}

func (r *MemoryRepo[T]) List(_ context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[id.ID]bool, len(f.IDs))
	for _, v := range f.IDs {
		wanted[v] = true
	}

	var matched []T
	for _, k := range r.order {
		e, ok := r.rows[k]
		if !ok || !f.View.Includes(e.LifecycleState().Deleted) {
			continue
		}
		if len(wanted) > 0 && !wanted[k] {
			continue
		}
		if f.Search != "" && r.Search != nil && !r.Search(e, f.Search) {
			continue
		}
		if r.Match != nil && !matchAll(r.Match, e, f.Filters) {
			continue
		}
		matched = append(matched, r.clone(e))
	}

	res := domain.ListResult[T]{TotalCount: int64(len(matched)), Limit: f.Limit, Offset: f.Offset}
	start := min(f.Offset, len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}
	res.Items = matched[start:end]
	return res, nil
}

func matchAll[T any](match func(T, filter.Item) bool, e T, items []filter.Item) bool {
	for _, it := range items {
		if !match(e, it) {
			return false
		}
	}
	return true
}

func (r *MemoryRepo[T]) SoftDelete(_ context.Context, entityID id.ID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[entityID]
	if !ok {
		return apperror.NewNotFound("record", entityID.String())
	}
	stored := r.clone(e)
	if err := stored.LifecycleState().MarkDeleted(at); err != nil {
		return apperror.NewAlreadyDeleted("record", entityID.String())
	}
	r.rows[entityID] = stored
	return nil
}

func (r *MemoryRepo[T]) Restore(_ context.Context, entityID id.ID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[entityID]
	if !ok {
		return false, apperror.NewNotFound("record", entityID.String())
	}
	stored := r.clone(e)
	changed := stored.LifecycleState().Restore(at)
	r.rows[entityID] = stored
	return changed, nil
}

func (r *MemoryRepo[T]) HardDelete(_ context.Context, entityID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[entityID]; !ok {
		return apperror.NewNotFound("record", entityID.String())
	}
	delete(r.rows, entityID)
	return nil
}

var _ domain.Repository[entity.HasLifecycle] = (*MemoryRepo[entity.HasLifecycle])(nil)

// RecordingRecorder keeps every audit event in memory.
type RecordingRecorder struct {
	mu     sync.Mutex
	Events []audit.Event
}

// Record appends the event.
func (r *RecordingRecorder) Record(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
	return nil
}

// Actions returns the recorded actions in order.
func (r *RecordingRecorder) Actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Action
	}
	return out
}

// UserCtx returns a context authenticated as userID.
func UserCtx(userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID.String(), Username: "user-" + userID.String()[:8]})
}

// AdminCtx returns a context authenticated as an administrator.
func AdminCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: id.New().String(), Username: "admin", IsAdmin: true})
}

// FixedClock returns a clock that always reads t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
