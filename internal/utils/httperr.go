package utils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/vachaar/vachaar-api/internal/lifecycle"
)

// statusByCode сопоставляет коды доменных ошибок HTTP статусам
var statusByCode = map[string]int{
	lifecycle.ErrItemNotFound.Code:            fiber.StatusNotFound,
	lifecycle.ErrPurchaseRequestNotFound.Code: fiber.StatusNotFound,
	lifecycle.ErrUserNotFound.Code:            fiber.StatusNotFound,
	lifecycle.ErrReportNotFound.Code:          fiber.StatusNotFound,
	lifecycle.ErrUnauthorized.Code:            fiber.StatusForbidden,
	lifecycle.ErrItemBanned.Code:              fiber.StatusForbidden,
	lifecycle.ErrItemNotAvailable.Code:        fiber.StatusConflict,
	lifecycle.ErrItemNotReserved.Code:         fiber.StatusConflict,
	lifecycle.ErrRequestAlreadyAccepted.Code:  fiber.StatusConflict,
	lifecycle.ErrOwnItemPurchase.Code:         fiber.StatusBadRequest,
	lifecycle.ErrNotBanned.Code:               fiber.StatusBadRequest,
	lifecycle.ErrInvalidReason.Code:           fiber.StatusBadRequest,
}

// RespondDomainError преобразует доменную ошибку в JSON ответ с машинным
// кодом и человекочитаемым сообщением. Неизвестные ошибки логируются и
// возвращаются как 500 без деталей.
func RespondDomainError(c fiber.Ctx, err error) error {
	var domainErr *lifecycle.Error
	if errors.As(err, &domainErr) {
		status, ok := statusByCode[domainErr.Code]
		if !ok {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": domainErr.Message,
			"code":  domainErr.Code,
		})
	}

	log.Printf("Внутренняя ошибка: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
}
