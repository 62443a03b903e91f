package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain"
	"bibliolab/internal/infrastructure/http/v1/dto"
)

// LifecycleAPI is the part of domain.LifecycleService the handlers use.
type LifecycleAPI[T entity.HasLifecycle] interface {
	Create(ctx context.Context, e T) error
	GetByID(ctx context.Context, entityID id.ID, view domain.View) (T, error)
	List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error)
	SoftDelete(ctx context.Context, entityID id.ID) error
	Restore(ctx context.Context, entityID id.ID) (T, error)
	HardDelete(ctx context.Context, entityID id.ID) error
}

// LifecycleHandler serves list, retrieve, create, update, soft delete,
// restore and hard delete for one entity family.
type LifecycleHandler[T entity.HasLifecycle, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service    LifecycleAPI[T]
	entityName string
	fields     dto.Fields[T]
	filters    QueryFilters

	mapCreate func(req *CreateDTO, now time.Time) (T, error)
	update    func(ctx context.Context, entityID id.ID, req *UpdateDTO) (T, error)
}

// LifecycleHandlerConfig configures the lifecycle handler.
type LifecycleHandlerConfig[T entity.HasLifecycle, CreateDTO any, UpdateDTO any] struct {
	Service    LifecycleAPI[T]
	EntityName string
	Fields     dto.Fields[T]
	Filters    QueryFilters

	// MapCreate builds a new record from the request body.
	MapCreate func(req *CreateDTO, now time.Time) (T, error)
	// Update applies the request body through the service.
	Update func(ctx context.Context, entityID id.ID, req *UpdateDTO) (T, error)
}

// NewLifecycleHandler creates a new lifecycle handler.
func NewLifecycleHandler[T entity.HasLifecycle, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg LifecycleHandlerConfig[T, CreateDTO, UpdateDTO],
) *LifecycleHandler[T, CreateDTO, UpdateDTO] {
	return &LifecycleHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler: base,
		service:     cfg.Service,
		entityName:  cfg.EntityName,
		fields:      cfg.Fields,
		filters:     cfg.Filters,
		mapCreate:   cfg.MapCreate,
		update:      cfg.Update,
	}
}

// Fields returns the field table of the family.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) Fields() dto.Fields[T] {
	return h.fields
}

// List handles GET /{entity}.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	h.Accessed(c, h.entityName+".list")

	q, err := parseListQuery(c, h.fields, h.filters)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), q.filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      h.fields.RenderAll(result.Items, q.selected, h.RenderContext()),
		Pagination: dto.NewPaginationResponse(q.page, result.TotalCount),
	})
}

// Get handles GET /{entity}/:id.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	h.Accessed(c, h.entityName+".retrieve")

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	view, err := domain.ParseView(c.Query("view"))
	if err != nil {
		h.Error(c, err)
		return
	}
	selected, err := h.fields.Select(c.Query("fields"))
	if err != nil {
		h.Error(c, err)
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entityID, view)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.fields.Render(e, selected, h.RenderContext()))
}

// Create handles POST /{entity}. The caller becomes the owner.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	h.Accessed(c, h.entityName+".create")
	ctx := c.Request.Context()

	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	rc := h.RenderContext()
	e, err := h.mapCreate(&req, rc.Now)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(ctx, e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, h.fields.Render(h.reload(ctx, e), nil, rc))
}

// Update handles PATCH and PUT /{entity}/:id.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	h.Accessed(c, h.entityName+".update")
	ctx := c.Request.Context()

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := h.update(ctx, entityID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.fields.Render(h.reload(ctx, e), nil, h.RenderContext()))
}

// Delete handles DELETE /{entity}/:id (soft delete).
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	h.Accessed(c, h.entityName+".soft_delete")

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.SoftDelete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Restore handles POST /{entity}/:id/restore.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) Restore(c *gin.Context) {
	h.Accessed(c, h.entityName+".restore")
	ctx := c.Request.Context()

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.Restore(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.fields.Render(h.reload(ctx, e), nil, h.RenderContext()))
}

// HardDelete handles DELETE /admin/{entity}/:id.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) HardDelete(c *gin.Context) {
	h.Accessed(c, h.entityName+".hard_delete")

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.HardDelete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// reload re-reads e so joined and computed columns are present; on failure
// the in-memory copy is returned.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) reload(ctx context.Context, e T) T {
	fresh, err := h.service.GetByID(ctx, e.GetID(), domain.ViewAll)
	if err != nil {
		return e
	}
	return fresh
}

// RespondItems writes an unpaginated named-query result, honoring ?fields=.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) RespondItems(c *gin.Context, items []T) {
	selected, err := h.fields.Select(c.Query("fields"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ItemsResponse{
		Items: h.fields.RenderAll(items, selected, h.RenderContext()),
		Count: len(items),
	})
}

// RespondPage writes a paginated named-query result, honoring ?fields=.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) RespondPage(c *gin.Context, page dto.PaginationRequest, result domain.ListResult[T]) {
	selected, err := h.fields.Select(c.Query("fields"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      h.fields.RenderAll(result.Items, selected, h.RenderContext()),
		Pagination: dto.NewPaginationResponse(page, result.TotalCount),
	})
}

// Page parses page and page_size into a default-view filter.
func (h *LifecycleHandler[T, CreateDTO, UpdateDTO]) Page(c *gin.Context) (dto.PaginationRequest, domain.ListFilter, bool) {
	page, err := dto.ParsePagination(c.Query("page"), c.Query("page_size"))
	if err != nil {
		h.Error(c, err)
		return page, domain.ListFilter{}, false
	}
	f := domain.ListFilter{View: domain.ViewDefault}
	page.Apply(&f)
	return page, f, true
}
