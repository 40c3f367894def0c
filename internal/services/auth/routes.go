package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vachaar/vachaar-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса авторизации
func (s *AuthService) SetupRoutes(app *fiber.App) {
	authGroup := app.Group("/api/auth")

	authGroup.Post("/register", s.Register)
	authGroup.Post("/login", s.Login)

	// Защищенные маршруты
	authGroup.Get("/me", s.Me, middleware.AuthMiddleware(s.jwtService))
}
