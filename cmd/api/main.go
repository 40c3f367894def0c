package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/vachaar/vachaar-api/internal/config"
	"github.com/vachaar/vachaar-api/internal/db"
	"github.com/vachaar/vachaar-api/internal/lifecycle"
	"github.com/vachaar/vachaar-api/internal/migrate"
	"github.com/vachaar/vachaar-api/internal/notifier"
	"github.com/vachaar/vachaar-api/internal/services/auth"
	"github.com/vachaar/vachaar-api/internal/services/item"
	"github.com/vachaar/vachaar-api/internal/services/purchase"
	"github.com/vachaar/vachaar-api/internal/services/report"
	"github.com/vachaar/vachaar-api/internal/storage/postgres"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Применяем миграции
	if err := migrate.Up(context.Background(), cfg.DatabaseURL); err != nil {
		log.Fatalf("❌ Ошибка применения миграций: %v", err)
	}

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Vachaar API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Ядро жизненного цикла поверх хранилища
	store := postgres.NewStore(db.Pool)
	banNotifier := notifier.NewEmailNotifier(cfg)
	engine := lifecycle.NewEngine(store, banNotifier)

	// Создаём сервисы
	authService := auth.NewAuthService(cfg)
	jwtService := authService.GetJWTService()
	itemService := item.NewItemService(cfg, jwtService)
	purchaseService := purchase.NewPurchaseService(cfg, jwtService, engine)
	reportService := report.NewReportService(cfg, jwtService, engine)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	itemService.SetupRoutes(app)
	purchaseService.SetupRoutes(app)
	reportService.SetupRoutes(app)

	// Запускаем сервер
	log.Printf("✅ Vachaar API запущен на %s", cfg.ListenAddr)
	log.Fatal(app.Listen(cfg.ListenAddr))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
