// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"math"
	"strconv"
	"time"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain"
)

// --- Pagination ---

// PaginationRequest contains pagination parameters. Values outside the
// allowed range are clamped rather than rejected.
type PaginationRequest struct {
	Page     int
	PageSize int
}

// maxPage keeps (Page-1)*PageSize inside int.
const maxPage = math.MaxInt / domain.MaxPageSize

// ParsePagination reads page and page_size. Non-numeric values are a ValidationError.
func ParsePagination(page, pageSize string) (PaginationRequest, error) {
	p := PaginationRequest{Page: 1, PageSize: domain.DefaultPageSize}

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			return p, apperror.NewFieldValidation("page", "page must be a number")
		}
		p.Page = n
	}
	if pageSize != "" {
		n, err := strconv.Atoi(pageSize)
		if err != nil {
			return p, apperror.NewFieldValidation("page_size", "page_size must be a number")
		}
		p.PageSize = n
	}
	p.clamp()
	return p, nil
}

func (p *PaginationRequest) clamp() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.PageSize < 1 {
		p.PageSize = domain.DefaultPageSize
	}
	if p.PageSize > domain.MaxPageSize {
		p.PageSize = domain.MaxPageSize
	}
}

// Offset calculates SQL offset.
func (p PaginationRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Apply copies limit and offset onto f.
func (p PaginationRequest) Apply(f *domain.ListFilter) {
	f.Limit = p.PageSize
	f.Offset = p.Offset()
}

// PaginationResponse contains pagination metadata.
type PaginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationResponse creates pagination response.
func NewPaginationResponse(p PaginationRequest, totalItems int64) PaginationResponse {
	totalPages := int(totalItems) / p.PageSize
	if int(totalItems)%p.PageSize > 0 {
		totalPages++
	}
	return PaginationResponse{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      []map[string]any   `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

// ItemsResponse wraps an unpaginated result set.
type ItemsResponse struct {
	Items []map[string]any `json:"items"`
	Count int              `json:"count"`
}

// --- ID Response ---

// IDResponse for operations returning only an identifier.
type IDResponse struct {
	ID string `json:"id"`
}

// --- Parsing helpers ---

// ParseID parses an identifier supplied in field.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return v, apperror.NewFieldValidation(field, "invalid id format").WithDetail("value", raw)
	}
	return v, nil
}

// ParseIDs parses a list of identifiers; nil input gives nil.
func ParseIDs(field string, raw []string) ([]id.ID, error) {
	if raw == nil {
		return nil, nil
	}
	out := make([]id.ID, 0, len(raw))
	for _, s := range raw {
		v, err := ParseID(field, s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseDateField(field, raw string) (time.Time, error) {
	t, err := types.ParseDate(raw)
	if err != nil {
		return t, apperror.NewFieldValidation(field, err.Error())
	}
	return t, nil
}

// optionalID renders the nil id as JSON null.
func optionalID(v id.ID) any {
	if id.IsNil(v) {
		return nil
	}
	return v.String()
}
