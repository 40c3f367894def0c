package purchase

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vachaar/vachaar-api/internal/config"
	"github.com/vachaar/vachaar-api/internal/db"
	"github.com/vachaar/vachaar-api/internal/lifecycle"
	"github.com/vachaar/vachaar-api/internal/models"
	"github.com/vachaar/vachaar-api/internal/utils"
)

// PurchaseService – структура для обработки заявок на покупку и сделок
type PurchaseService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	engine     *lifecycle.Engine
}

// NewPurchaseService – конструктор PurchaseService
func NewPurchaseService(cfg *config.Config, jwtService *utils.JWTService, engine *lifecycle.Engine) *PurchaseService {
	return &PurchaseService{
		cfg:        cfg,
		jwtService: jwtService,
		engine:     engine,
	}
}

// CreateRequest создает или обновляет заявку на покупку товара
func (s *PurchaseService) CreateRequest(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	buyerID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var payload struct {
		ItemID  uuid.UUID `json:"item_id"`
		Comment string    `json:"comment"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if payload.ItemID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID товара обязателен"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	request, err := s.engine.CreatePurchaseRequest(ctx, payload.ItemID, buyerID, payload.Comment)
	if err != nil {
		return utils.RespondDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

// AcceptRequest принимает заявку и резервирует товар за покупателем
func (s *PurchaseService) AcceptRequest(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	sellerID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.engine.AcceptPurchaseRequest(ctx, requestID, sellerID); err != nil {
		return utils.RespondDomainError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkSold помечает зарезервированный товар как проданный
func (s *PurchaseService) MarkSold(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	sellerID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.engine.MarkItemAsSold(ctx, itemID, sellerID); err != nil {
		return utils.RespondDomainError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// Reactivate возвращает зарезервированный товар в продажу
func (s *PurchaseService) Reactivate(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	sellerID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.engine.ReactivateItem(ctx, itemID, sellerID); err != nil {
		return utils.RespondDomainError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetItemRequests возвращает заявки на товар (только для продавца)
func (s *PurchaseService) GetItemRequests(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем, что запрашивает продавец товара
	var sellerID uuid.UUID
	err = db.Pool.QueryRow(ctx, `SELECT seller_id FROM items WHERE id = $1`, itemID).Scan(&sellerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.RespondDomainError(c, lifecycle.ErrItemNotFound)
		}
		log.Printf("Ошибка получения товара %s: %v", itemID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	if sellerID != userID {
		return utils.RespondDomainError(c, lifecycle.ErrUnauthorized)
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT r.id, r.item_id, r.buyer_id, r.comment, r.state, r.created_at, r.updated_at,
		       u.username, u.phone
		FROM purchase_requests r
		JOIN users u ON u.id = r.buyer_id
		WHERE r.item_id = $1
		ORDER BY r.created_at
	`, itemID)

	if err != nil {
		log.Printf("Ошибка запроса заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer rows.Close()

	requests := []fiber.Map{}
	for rows.Next() {
		var r models.PurchaseRequest
		var username, phone string
		err := rows.Scan(&r.ID, &r.ItemID, &r.BuyerID, &r.Comment, &r.State,
			&r.CreatedAt, &r.UpdatedAt, &username, &phone)
		if err != nil {
			log.Printf("Ошибка сканирования заявки: %v", err)
			continue
		}
		requests = append(requests, fiber.Map{
			"id":         r.ID,
			"item_id":    r.ItemID,
			"buyer_id":   r.BuyerID,
			"comment":    r.Comment,
			"state":      r.State,
			"created_at": r.CreatedAt,
			"updated_at": r.UpdatedAt,
			"buyer": fiber.Map{
				"username": username,
				"phone":    phone,
			},
		})
	}

	return c.JSON(fiber.Map{"requests": requests})
}

// GetMyRequest возвращает заявку текущего покупателя на товар
func (s *PurchaseService) GetMyRequest(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	buyerID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var r models.PurchaseRequest
	err = db.Pool.QueryRow(ctx, `
		SELECT id, item_id, buyer_id, comment, state, created_at, updated_at
		FROM purchase_requests
		WHERE item_id = $1 AND buyer_id = $2
	`, itemID, buyerID).Scan(&r.ID, &r.ItemID, &r.BuyerID, &r.Comment, &r.State,
		&r.CreatedAt, &r.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.RespondDomainError(c, lifecycle.ErrPurchaseRequestNotFound)
		}
		log.Printf("Ошибка получения заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"request": r})
}
