package purchase

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vachaar/vachaar-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса покупок
func (s *PurchaseService) SetupRoutes(app *fiber.App) {
	authMw := middleware.AuthMiddleware(s.jwtService)

	requestGroup := app.Group("/api/purchase-requests")
	requestGroup.Post("/", s.CreateRequest, authMw)
	requestGroup.Post("/:id/accept", s.AcceptRequest, authMw)

	// Операции продавца над товаром
	itemGroup := app.Group("/api/items/:itemId")
	itemGroup.Get("/requests", s.GetItemRequests, authMw)
	itemGroup.Get("/my-request", s.GetMyRequest, authMw)
	itemGroup.Post("/sold", s.MarkSold, authMw)
	itemGroup.Post("/reactivate", s.Reactivate, authMw)
}
