// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// LifecycleRouteHandler defines the routes every soft-deletable family serves.
type LifecycleRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Restore(c *gin.Context)
	HardDelete(c *gin.Context)
}

// RegisterLifecycleRoutes registers list, CRUD, restore and the admin hard
// delete for one family.
//
// Usage:
//
//	books := handlers.NewBookHandler(base, bookService)
//	RegisterLifecycleRoutes(protected.Group("/books"), admin.Group("/books"), books)
func RegisterLifecycleRoutes(group, admin *gin.RouterGroup, handler LifecycleRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PATCH("/:id", handler.Update)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.POST("/:id/restore", handler.Restore)

	admin.DELETE("/:id", handler.HardDelete)
}
