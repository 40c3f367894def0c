package report

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

// ReportService – структура для обработки жалоб и модерации
type ReportService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	engine     *lifecycle.Engine
}

// NewReportService – конструктор ReportService
func NewReportService(cfg *config.Config, jwtService *utils.JWTService, engine *lifecycle.Engine) *ReportService {
	return &ReportService{
		cfg:        cfg,
		jwtService: jwtService,
		engine:     engine,
	}
}

// requireReporter проверяет, что жалобу подает незабаненный пользователь
func requireReporter(c fiber.Ctx) (uuid.UUID, int, string) {
	userIDStr := c.Locals("userID").(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fiber.StatusBadRequest, "Неверный формат ID пользователя"
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var isBanned bool
	err = db.Pool.QueryRow(ctx, `SELECT is_banned FROM users WHERE id = $1`, userID).Scan(&isBanned)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, fiber.StatusNotFound, "Пользователь не найден"
		}
		log.Printf("Ошибка проверки пользователя %s: %v", userID, err)
		return uuid.Nil, fiber.StatusInternalServerError, "Ошибка базы данных"
	}
	if isBanned {
		return uuid.Nil, fiber.StatusForbidden, "Заблокированный пользователь не может подавать жалобы"
	}

	return userID, 0, ""
}

// requireStaff проверяет, что запрос выполняет модератор
func requireStaff(c fiber.Ctx) (int, string) {
	userIDStr := c.Locals("userID").(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fiber.StatusBadRequest, "Неверный формат ID пользователя"
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var isStaff bool
	err = db.Pool.QueryRow(ctx, `SELECT is_staff FROM users WHERE id = $1`, userID).Scan(&isStaff)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fiber.StatusNotFound, "Пользователь не найден"
		}
		log.Printf("Ошибка проверки пользователя %s: %v", userID, err)
		return fiber.StatusInternalServerError, "Ошибка базы данных"
	}
	if !isStaff {
		return fiber.StatusForbidden, "Требуются права модератора"
	}

	return 0, ""
}

// ReportItem регистрирует жалобу на товар
func (s *ReportService) ReportItem(c fiber.Ctx) error {
	if _, status, msg := requireReporter(c); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	var payload struct {
		ItemID uuid.UUID `json:"item_id"`
		Reason string    `json:"reason"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if payload.ItemID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID товара обязателен"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rep, err := s.engine.SubmitItemReport(ctx, payload.ItemID, payload.Reason)
	if err != nil {
		return utils.RespondDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"report": rep})
}

// ReportUser регистрирует жалобу на пользователя
func (s *ReportService) ReportUser(c fiber.Ctx) error {
	reporterID, status, msg := requireReporter(c)
	if status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	var payload struct {
		UserID uuid.UUID `json:"user_id"`
		Reason string    `json:"reason"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if payload.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID пользователя обязателен"})
	}

	if payload.UserID == reporterID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя пожаловаться на самого себя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rep, err := s.engine.SubmitUserReport(ctx, payload.UserID, payload.Reason)
	if err != nil {
		return utils.RespondDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"report": rep})
}

// ListReports возвращает жалобы для модератора
func (s *ReportService) ListReports(c fiber.Ctx) error {
	if status, msg := requireStaff(c); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	query := `
		SELECT id, target_type, target_id, status, admin_note,
		       spam, amoral, fraud, illegal,
		       price_issue, contact_issue, category_issue,
		       responsiveness_issue, other,
		       created_at, updated_at
		FROM reports
	`
	args := []interface{}{}

	if st := c.Query("status"); st != "" {
		if st != models.ReportStatusReviewing && st != models.ReportStatusAccepted && st != models.ReportStatusRejected {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный статус жалобы"})
		}
		query += ` WHERE status = $1`
		args = append(args, st)
	}

	query += ` ORDER BY updated_at DESC`

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка запроса жалоб: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		var r models.Report
		err := rows.Scan(&r.ID, &r.Target.Type, &r.Target.ID, &r.Status, &r.AdminNote,
			&r.Spam, &r.Amoral, &r.Fraud, &r.Illegal,
			&r.PriceIssue, &r.ContactIssue, &r.CategoryIssue,
			&r.ResponsivenessIssue, &r.Other,
			&r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			log.Printf("Ошибка сканирования жалобы: %v", err)
			continue
		}
		reports = append(reports, r)
	}

	return c.JSON(fiber.Map{"reports": reports})
}

// Ban применяет жалобу: блокирует товар или пользователя с его товарами
func (s *ReportService) Ban(c fiber.Ctx) error {
	if status, msg := requireStaff(c); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID жалобы"})
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.engine.Ban(ctx, reportID, payload.Reason); err != nil {
		return utils.RespondDomainError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// Unban отклоняет жалобу и снимает блокировку
func (s *ReportService) Unban(c fiber.Ctx) error {
	if status, msg := requireStaff(c); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID жалобы"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.engine.Unban(ctx, reportID); err != nil {
		return utils.RespondDomainError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}
