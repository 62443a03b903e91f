// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"time"

	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/filter"
)

// --- Filter & Pagination ---

// Pagination defaults shared by every list endpoint.
const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// View selects default, all or deleted-only records
	View View

	// Search performs a case-insensitive match on the searchable columns
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// Filters are field predicates checked against the repository column whitelist
	Filters []filter.Item

	// OrderBy specifies sorting (e.g., "title", "-publication_date");
	// several keys may be separated by commas
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns the filter used when a client sends no parameters.
func DefaultListFilter() ListFilter {
	return ListFilter{
		View:  ViewDefault,
		Limit: DefaultPageSize,
	}
}

// With returns a copy of f with extra predicates appended.
func (f ListFilter) With(items ...filter.Item) ListFilter {
	out := f
	out.Filters = append(append([]filter.Item(nil), f.Filters...), items...)
	return out
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T
	TotalCount int64
	Limit      int
	Offset     int
}

// --- Repository Interfaces ---

// Repository is the visibility-aware storage contract shared by every entity family.
type Repository[T entity.HasLifecycle] interface {
	// Create inserts a new record
	Create(ctx context.Context, e T) error

	// GetByID retrieves a record visible in view
	GetByID(ctx context.Context, id id.ID, view View) (T, error)

	// GetForUpdate retrieves a record regardless of deletion state and locks its row
	GetForUpdate(ctx context.Context, id id.ID) (T, error)

	// Update writes the mutable attributes and updated_at
	Update(ctx context.Context, e T) error

	// List retrieves records with filtering and pagination
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	// SoftDelete flips an active record to deleted.
	// It fails with ALREADY_DELETED when the record is already deleted.
	SoftDelete(ctx context.Context, id id.ID, at time.Time) error

	// Restore flips a deleted record back to active and reports whether anything changed
	Restore(ctx context.Context, id id.ID, at time.Time) (bool, error)

	// HardDelete physically removes the record
	HardDelete(ctx context.Context, id id.ID) error
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	AfterDelete  HookEvent = "after_delete"
	AfterRestore HookEvent = "after_restore"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeCreate registers a hook to run before create.
func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) {
	r.On(BeforeCreate, hook)
}

// OnBeforeUpdate registers a hook to run before update.
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) {
	r.On(BeforeUpdate, hook)
}
