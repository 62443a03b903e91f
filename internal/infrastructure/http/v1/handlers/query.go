package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/filter"
	"bibliolab/internal/infrastructure/http/v1/dto"
)

// QueryFilter maps one list query parameter onto repository predicates.
type QueryFilter struct {
	Param string
	Build func(raw string) ([]filter.Item, error)
}

// QueryFilters is the list-filter set of one entity family.
type QueryFilters []QueryFilter

// Items parses every present parameter.
func (qs QueryFilters) Items(c *gin.Context) ([]filter.Item, error) {
	var out []filter.Item
	for _, q := range qs {
		raw := strings.TrimSpace(c.Query(q.Param))
		if raw == "" {
			continue
		}
		items, err := q.Build(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

// Exact matches column = value.
func Exact(param, column string) QueryFilter {
	return QueryFilter{Param: param, Build: func(raw string) ([]filter.Item, error) {
		return []filter.Item{filter.Eq(column, raw)}, nil
	}}
}

// OneOf matches column = value where value must be one of allowed.
func OneOf(param, column string, allowed ...string) QueryFilter {
	return QueryFilter{Param: param, Build: func(raw string) ([]filter.Item, error) {
		v := strings.ToUpper(raw)
		for _, a := range allowed {
			if a == v {
				return []filter.Item{filter.Eq(column, v)}, nil
			}
		}
		return nil, apperror.NewFieldValidation(param, param+" must be one of: "+strings.Join(allowed, ", ")).
			WithDetail("value", raw)
	}}
}

// IDEquals matches a foreign key column.
func IDEquals(param, column string) QueryFilter {
	return QueryFilter{Param: param, Build: func(raw string) ([]filter.Item, error) {
		v, err := dto.ParseID(param, raw)
		if err != nil {
			return nil, err
		}
		return []filter.Item{filter.Eq(column, v)}, nil
	}}
}

// MoneyBound compares a decimal column against the parameter.
func MoneyBound(param, column string, op filter.ComparisonType) QueryFilter {
	return QueryFilter{Param: param, Build: func(raw string) ([]filter.Item, error) {
		v, err := types.NewMoneyFromString(raw)
		if err != nil {
			return nil, apperror.NewFieldValidation(param, "Invalid "+param+" value. Must be a number.")
		}
		return []filter.Item{{Field: column, Operator: op, Value: v}}, nil
	}}
}

// IntBound compares an integer column against the parameter.
func IntBound(param, column string, op filter.ComparisonType) QueryFilter {
	return QueryFilter{Param: param, Build: func(raw string) ([]filter.Item, error) {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperror.NewFieldValidation(param, "Invalid "+param+" value. Must be an integer.")
		}
		return []filter.Item{{Field: column, Operator: op, Value: v}}, nil
	}}
}

// Year matches the calendar year of a date column.
func Year(param, column string) QueryFilter {
	return QueryFilter{Param: param, Build: func(raw string) ([]filter.Item, error) {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperror.NewFieldValidation(param, "Invalid "+param+" value. Must be a year.")
		}
		return []filter.Item{{Field: column, Operator: filter.YearEquals, Value: v}}, nil
	}}
}

// Date matches a DATE column exactly.
func Date(param, column string) QueryFilter {
	return QueryFilter{Param: param, Build: func(raw string) ([]filter.Item, error) {
		d, err := types.ParseDate(raw)
		if err != nil {
			return nil, apperror.NewFieldValidation(param, err.Error())
		}
		return []filter.Item{filter.Eq(column, d)}, nil
	}}
}

// Day matches a timestamp column falling on the given calendar day (UTC).
func Day(param, column string) QueryFilter {
	return QueryFilter{Param: param, Build: func(raw string) ([]filter.Item, error) {
		d, err := types.ParseDate(raw)
		if err != nil {
			return nil, apperror.NewFieldValidation(param, err.Error())
		}
		return []filter.Item{
			filter.Gte(column, d),
			{Field: column, Operator: filter.Less, Value: d.AddDate(0, 0, 1)},
		}, nil
	}}
}

// listQuery is the parsed common part of a list request.
type listQuery struct {
	filter   domain.ListFilter
	page     dto.PaginationRequest
	selected []string
}

// parseListQuery reads view, search, ordering, page, page_size, fields and
// the family filters.
func parseListQuery[T any](c *gin.Context, fields dto.Fields[T], filters QueryFilters) (listQuery, error) {
	var q listQuery

	view, err := domain.ParseView(c.Query("view"))
	if err != nil {
		return q, err
	}
	q.selected, err = fields.Select(c.Query("fields"))
	if err != nil {
		return q, err
	}
	q.page, err = dto.ParsePagination(c.Query("page"), c.Query("page_size"))
	if err != nil {
		return q, err
	}
	items, err := filters.Items(c)
	if err != nil {
		return q, err
	}

	q.filter = domain.ListFilter{
		View:    view,
		Search:  strings.TrimSpace(c.Query("search")),
		OrderBy: strings.TrimSpace(c.Query("ordering")),
		Filters: items,
	}
	q.page.Apply(&q.filter)
	return q, nil
}
