package report

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vachaar/vachaar-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса жалоб
func (s *ReportService) SetupRoutes(app *fiber.App) {
	authMw := middleware.AuthMiddleware(s.jwtService)

	reportGroup := app.Group("/api/reports")
	reportGroup.Post("/items", s.ReportItem, authMw)
	reportGroup.Post("/users", s.ReportUser, authMw)

	// Маршруты модератора
	reportGroup.Get("/", s.ListReports, authMw)
	reportGroup.Post("/:id/ban", s.Ban, authMw)
	reportGroup.Post("/:id/unban", s.Unban, authMw)
}
