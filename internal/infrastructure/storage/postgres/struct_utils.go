package postgres

import (
	"reflect"
	"sync"

	"bibliolab/internal/core/id"
)

// Column tags:
//
//	db:"name"               selected and written
//	db:"name" persist:"-"   selected only (joined or aggregate value)
//	db:"-"                  in-memory only
const persistTag = "persist"

// fieldInfo contains pre-computed metadata about a struct field.
type fieldInfo struct {
	index    int
	column   string
	readOnly bool
}

// typeMetadata contains cached reflection metadata for a type.
type typeMetadata struct {
	fields          []fieldInfo
	embeddedIndices []int
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func metadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.embeddedIndices = append(meta.embeddedIndices, i)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{
				index:    i,
				column:   tag,
				readOnly: field.Tag.Get(persistTag) == "-",
			})
		}
	}

	typeCache.Store(t, meta)
	return meta
}

// collectColumns walks fields in declaration order, descending into embedded structs.
func collectColumns(t reflect.Type, writable bool) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, collectColumns(field.Type, writable)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		if writable && field.Tag.Get(persistTag) == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// ExtractDBColumns returns every column a SELECT must produce to fill T,
// embedded structs first.
func ExtractDBColumns[T any]() []string {
	return collectColumns(reflect.TypeOf((*T)(nil)).Elem(), false)
}

// ExtractWritableColumns returns the columns INSERT and UPDATE may set,
// skipping fields tagged persist:"-".
func ExtractWritableColumns[T any]() []string {
	return collectColumns(reflect.TypeOf((*T)(nil)).Elem(), true)
}

// StructToMap converts a struct to a column map of its writable fields.
// A nil id.ID is written as NULL so optional foreign keys stay valid.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, embIdx := range meta.embeddedIndices {
		for k, v := range StructToMap(rv.Field(embIdx).Interface()) {
			res[k] = v
		}
	}
	for _, fi := range meta.fields {
		if fi.readOnly {
			continue
		}
		val := rv.Field(fi.index).Interface()
		if ref, ok := val.(id.ID); ok && id.IsNil(ref) {
			val = nil
		}
		res[fi.column] = val
	}
	return res
}
