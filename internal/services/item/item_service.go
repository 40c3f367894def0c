package item

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vachaar/vachaar-api/internal/config"
	"github.com/vachaar/vachaar-api/internal/db"
	"github.com/vachaar/vachaar-api/internal/models"
	"github.com/vachaar/vachaar-api/internal/utils"
)

// ItemService – структура для обработки запросов, связанных с товарами
type ItemService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewItemService – конструктор ItemService
func NewItemService(cfg *config.Config, jwtService *utils.JWTService) *ItemService {
	return &ItemService{
		cfg:        cfg,
		jwtService: jwtService,
	}
}

// requireActiveUser проверяет, что пользователь существует и не забанен
func requireActiveUser(ctx context.Context, userID uuid.UUID) (int, string) {
	var isBanned bool
	err := db.Pool.QueryRow(ctx, `SELECT is_banned FROM users WHERE id = $1`, userID).Scan(&isBanned)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fiber.StatusNotFound, "Пользователь не найден"
		}
		log.Printf("Ошибка проверки пользователя %s: %v", userID, err)
		return fiber.StatusInternalServerError, "Ошибка базы данных"
	}
	if isBanned {
		return fiber.StatusForbidden, "Пользователь заблокирован"
	}
	return 0, ""
}

// CreateItem создает новый товар с изображениями
func (s *ItemService) CreateItem(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var payload struct {
		Title       string      `json:"title"`
		Price       int64       `json:"price"`
		Description string      `json:"description"`
		CategoryID  *uuid.UUID  `json:"category_id"`
		Images      []imageData `json:"images"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	payload.Title = strings.TrimSpace(payload.Title)
	if payload.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название товара обязательно"})
	}
	if payload.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Цена должна быть положительной"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if status, msg := requireActiveUser(ctx, userID); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	// Начинаем транзакцию: товар и изображения создаются атомарно
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var itemID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO items (seller_id, category_id, title, price, description, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, userID, payload.CategoryID, payload.Title, payload.Price,
		payload.Description, models.ItemStateActive).Scan(&itemID)

	if err != nil {
		log.Printf("Ошибка создания товара: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания товара"})
	}

	for i, img := range payload.Images {
		_, err = tx.Exec(ctx, `
			INSERT INTO item_images (item_id, url, position)
			VALUES ($1, $2, $3)
		`, itemID, img.URL, i)
		if err != nil {
			log.Printf("Ошибка сохранения изображения: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения изображений"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": itemID})
}

type imageData struct {
	URL string `json:"url"`
}

// UpdateItem обновляет товар продавца (вместе с изображениями)
func (s *ItemService) UpdateItem(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	var payload struct {
		Title       string      `json:"title"`
		Price       int64       `json:"price"`
		Description string      `json:"description"`
		CategoryID  *uuid.UUID  `json:"category_id"`
		Images      []imageData `json:"images"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	payload.Title = strings.TrimSpace(payload.Title)
	if payload.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название товара обязательно"})
	}
	if payload.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Цена должна быть положительной"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if status, msg := requireActiveUser(ctx, userID); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	// Проверяем права и состояние: зарезервированный или проданный товар не редактируется
	var sellerID uuid.UUID
	var state string
	var isBanned bool
	err = tx.QueryRow(ctx, `
		SELECT seller_id, state, is_banned FROM items WHERE id = $1 FOR UPDATE
	`, itemID).Scan(&sellerID, &state, &isBanned)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Товар не найден"})
		}
		log.Printf("Ошибка получения товара: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	if isBanned {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Товар заблокирован модератором"})
	}
	if sellerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не являетесь продавцом этого товара"})
	}
	if state == models.ItemStateReserved || state == models.ItemStateSold {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Нельзя редактировать товар в текущем состоянии"})
	}

	_, err = tx.Exec(ctx, `
		UPDATE items
		SET title = $1, price = $2, description = $3, category_id = $4, updated_at = NOW()
		WHERE id = $5
	`, payload.Title, payload.Price, payload.Description, payload.CategoryID, itemID)

	if err != nil {
		log.Printf("Ошибка обновления товара: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления товара"})
	}

	// Пересоздаем изображения
	if _, err = tx.Exec(ctx, `DELETE FROM item_images WHERE item_id = $1`, itemID); err != nil {
		log.Printf("Ошибка удаления изображений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления изображений"})
	}

	for i, img := range payload.Images {
		_, err = tx.Exec(ctx, `
			INSERT INTO item_images (item_id, url, position)
			VALUES ($1, $2, $3)
		`, itemID, img.URL, i)
		if err != nil {
			log.Printf("Ошибка сохранения изображения: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления изображений"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteItem удаляет товар продавца
func (s *ItemService) DeleteItem(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var sellerID uuid.UUID
	var state string
	err = tx.QueryRow(ctx, `
		SELECT seller_id, state FROM items WHERE id = $1 FOR UPDATE
	`, itemID).Scan(&sellerID, &state)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Товар не найден"})
		}
		log.Printf("Ошибка получения товара: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	if sellerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не являетесь продавцом этого товара"})
	}
	if state == models.ItemStateReserved {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Нельзя удалить зарезервированный товар"})
	}

	// item_images и purchase_requests удаляются каскадно
	if _, err = tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID); err != nil {
		log.Printf("Ошибка удаления товара: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления товара"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetPublicItems возвращает активные незаблокированные товары с фильтрами
func (s *ItemService) GetPublicItems(c fiber.Ctx) error {
	// Параметры фильтрации и пагинации
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT i.id, i.seller_id, i.category_id, i.title, i.price, i.description,
		       i.state, i.created_at,
		       COALESCE((SELECT url FROM item_images WHERE item_id = i.id ORDER BY position LIMIT 1), '') AS preview
		FROM items i
		WHERE i.state = 'active' AND NOT i.is_banned
	`

	args := []interface{}{}
	argPos := 1

	if categoryID := c.Query("category_id"); categoryID != "" {
		parsed, err := uuid.Parse(categoryID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID категории"})
		}
		query += ` AND i.category_id = $` + placeholder(argPos)
		args = append(args, parsed)
		argPos++
	}

	if minPriceStr := c.Query("min_price"); minPriceStr != "" {
		minPrice, err := strconv.ParseInt(minPriceStr, 10, 64)
		if err != nil || minPrice < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат минимальной цены"})
		}
		query += ` AND i.price >= $` + placeholder(argPos)
		args = append(args, minPrice)
		argPos++
	}

	if maxPriceStr := c.Query("max_price"); maxPriceStr != "" {
		maxPrice, err := strconv.ParseInt(maxPriceStr, 10, 64)
		if err != nil || maxPrice < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат максимальной цены"})
		}
		query += ` AND i.price <= $` + placeholder(argPos)
		args = append(args, maxPrice)
		argPos++
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query += ` AND i.title ILIKE $` + placeholder(argPos)
		args = append(args, "%"+search+"%")
		argPos++
	}

	query += ` ORDER BY i.created_at DESC LIMIT $` + placeholder(argPos) +
		` OFFSET $` + placeholder(argPos+1)
	args = append(args, limit, offset)

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка запроса товаров: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer rows.Close()

	items := []fiber.Map{}
	for rows.Next() {
		var it models.Item
		var preview string
		err := rows.Scan(&it.ID, &it.SellerID, &it.CategoryID, &it.Title, &it.Price,
			&it.Description, &it.State, &it.CreatedAt, &preview)
		if err != nil {
			log.Printf("Ошибка сканирования товара: %v", err)
			continue
		}
		items = append(items, fiber.Map{
			"id":          it.ID,
			"seller_id":   it.SellerID,
			"category_id": it.CategoryID,
			"title":       it.Title,
			"price":       it.Price,
			"description": it.Description,
			"state":       it.State,
			"created_at":  it.CreatedAt,
			"preview":     preview,
		})
	}

	return c.JSON(fiber.Map{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

// placeholder возвращает номер позиционного параметра как строку
func placeholder(n int) string {
	return strconv.Itoa(n)
}

// GetMyItems возвращает все товары текущего продавца
func (s *ItemService) GetMyItems(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT id, seller_id, buyer_id, category_id, title, price, description,
		       state, is_banned, created_at, updated_at
		FROM items
		WHERE seller_id = $1
		ORDER BY created_at DESC
	`, userID)

	if err != nil {
		log.Printf("Ошибка запроса товаров продавца: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var it models.Item
		err := rows.Scan(&it.ID, &it.SellerID, &it.BuyerID, &it.CategoryID, &it.Title,
			&it.Price, &it.Description, &it.State, &it.IsBanned, &it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			log.Printf("Ошибка сканирования товара: %v", err)
			continue
		}
		items = append(items, it)
	}

	return c.JSON(fiber.Map{"items": items})
}

// GetItem возвращает детали товара; скрытые товары видны только продавцу
func (s *ItemService) GetItem(c fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var it models.Item
	err = db.Pool.QueryRow(ctx, `
		SELECT id, seller_id, buyer_id, category_id, title, price, description,
		       state, is_banned, created_at, updated_at
		FROM items WHERE id = $1
	`, itemID).Scan(&it.ID, &it.SellerID, &it.BuyerID, &it.CategoryID, &it.Title,
		&it.Price, &it.Description, &it.State, &it.IsBanned, &it.CreatedAt, &it.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Товар не найден"})
		}
		log.Printf("Ошибка получения товара: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	// Заблокированный или скрытый товар виден только продавцу
	if it.IsBanned || it.State == models.ItemStateInactive {
		userIDStr, _ := c.Locals("userID").(string)
		viewerID, parseErr := uuid.Parse(userIDStr)
		if parseErr != nil || viewerID != it.SellerID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Товар не найден"})
		}
	}

	// Покупатель виден только продавцу и самому покупателю
	if it.BuyerID != nil {
		userIDStr, _ := c.Locals("userID").(string)
		viewerID, parseErr := uuid.Parse(userIDStr)
		if parseErr != nil || (viewerID != it.SellerID && viewerID != *it.BuyerID) {
			it.BuyerID = nil
		}
	}

	imgRows, err := db.Pool.Query(ctx, `
		SELECT id, url, position FROM item_images WHERE item_id = $1 ORDER BY position
	`, itemID)
	if err != nil {
		log.Printf("Ошибка запроса изображений: %v", err)
	} else {
		defer imgRows.Close()
		for imgRows.Next() {
			var img models.ItemImage
			if err := imgRows.Scan(&img.ID, &img.URL, &img.Position); err != nil {
				continue
			}
			img.ItemID = itemID
			it.Images = append(it.Images, img)
		}
	}

	return c.JSON(fiber.Map{"item": it})
}

// SetVisibility переключает товар между active и inactive
func (s *ItemService) SetVisibility(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	var payload struct {
		Visible bool `json:"visible"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	targetState := models.ItemStateInactive
	if payload.Visible {
		targetState = models.ItemStateActive
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if status, msg := requireActiveUser(ctx, userID); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var sellerID uuid.UUID
	var state string
	var isBanned bool
	err = tx.QueryRow(ctx, `
		SELECT seller_id, state, is_banned FROM items WHERE id = $1 FOR UPDATE
	`, itemID).Scan(&sellerID, &state, &isBanned)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Товар не найден"})
		}
		log.Printf("Ошибка получения товара: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	if isBanned {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Товар заблокирован модератором"})
	}
	if sellerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не являетесь продавцом этого товара"})
	}
	// Переключать видимость можно только между active и inactive
	if state != models.ItemStateActive && state != models.ItemStateInactive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Нельзя изменить видимость товара в текущем состоянии"})
	}

	if state != targetState {
		_, err = tx.Exec(ctx, `
			UPDATE items SET state = $1, updated_at = NOW() WHERE id = $2
		`, targetState, itemID)
		if err != nil {
			log.Printf("Ошибка изменения состояния товара: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"success": true, "state": targetState})
}

// GetCategories возвращает список категорий
func (s *ItemService) GetCategories(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `SELECT id, title FROM categories ORDER BY title`)
	if err != nil {
		log.Printf("Ошибка запроса категорий: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Title); err != nil {
			continue
		}
		categories = append(categories, cat)
	}

	return c.JSON(fiber.Map{"categories": categories})
}
