package dto

import (
	"sort"
	"strings"
	"time"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
)

// RenderContext carries what computed fields may depend on besides the record.
type RenderContext struct {
	Now time.Time
}

// Fields is the allow-listed field table of one entity family.
type Fields[T any] map[string]func(T, RenderContext) any

// Names returns the field names in sorted order.
func (f Fields[T]) Names() []string {
	out := make([]string, 0, len(f))
	for name := range f {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Select parses a comma separated ?fields= value. Empty selects every field;
// an unknown name is a ValidationError.
func (f Fields[T]) Select(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, ok := f[name]; !ok {
			return nil, apperror.NewFieldValidation("fields", "unknown field: "+name).
				WithDetail("allowed", f.Names())
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// Render emits the selected fields of record; nil selects every field.
func (f Fields[T]) Render(record T, selected []string, rc RenderContext) map[string]any {
	if len(selected) == 0 {
		out := make(map[string]any, len(f))
		for name, get := range f {
			out[name] = get(record, rc)
		}
		return out
	}

	out := make(map[string]any, len(selected))
	for _, name := range selected {
		if get, ok := f[name]; ok {
			out[name] = get(record, rc)
		}
	}
	return out
}

// RenderAll renders every record with the same selection.
func (f Fields[T]) RenderAll(records []T, selected []string, rc RenderContext) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = f.Render(r, selected, rc)
	}
	return out
}

// WithLifecycle adds the lifecycle fields shared by every soft-deletable family.
func WithLifecycle[T entity.HasLifecycle](fields Fields[T]) Fields[T] {
	fields["id"] = func(r T, _ RenderContext) any { return r.GetID().String() }
	fields["created_at"] = func(r T, _ RenderContext) any { return r.LifecycleState().CreatedAt }
	fields["updated_at"] = func(r T, _ RenderContext) any { return r.LifecycleState().UpdatedAt }
	fields["deleted"] = func(r T, _ RenderContext) any { return r.LifecycleState().Deleted }
	fields["deleted_at"] = func(r T, _ RenderContext) any { return r.LifecycleState().DeletedAt }
	return fields
}
