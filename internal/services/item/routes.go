package item

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vachaar/vachaar-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса товаров
func (s *ItemService) SetupRoutes(app *fiber.App) {
	itemGroup := app.Group("/api/items")

	// Публичные маршруты
	itemGroup.Get("/", s.GetPublicItems)
	itemGroup.Get("/categories", s.GetCategories)
	itemGroup.Get("/:id", s.GetItem, middleware.OptionalAuthMiddleware(s.jwtService))

	// Защищенные маршруты
	authMw := middleware.AuthMiddleware(s.jwtService)
	itemGroup.Post("/", s.CreateItem, authMw)
	itemGroup.Get("/my/list", s.GetMyItems, authMw)
	itemGroup.Put("/:id", s.UpdateItem, authMw)
	itemGroup.Delete("/:id", s.DeleteItem, authMw)
	itemGroup.Patch("/:id/visibility", s.SetVisibility, authMw)
}
