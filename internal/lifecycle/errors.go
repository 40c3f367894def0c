package lifecycle

// Error представляет доменную ошибку с машинным кодом и человекочитаемым сообщением
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error реализует интерфейс error
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Ошибки жизненного цикла айтема. Каждая проверка выполняется до любой записи:
// первая нарушенная предпосылка прерывает операцию целиком, без частичных изменений.
var (
	ErrItemNotFound            = &Error{Code: "item_not_found", Message: "Айтем не найден"}
	ErrPurchaseRequestNotFound = &Error{Code: "purchase_request_not_found", Message: "Запрос на покупку не найден"}
	ErrUserNotFound            = &Error{Code: "user_not_found", Message: "Пользователь не найден"}
	ErrReportNotFound          = &Error{Code: "report_not_found", Message: "Жалоба не найдена"}
	ErrItemBanned              = &Error{Code: "item_banned", Message: "Айтем заблокирован модерацией"}
	ErrItemNotAvailable        = &Error{Code: "item_not_available", Message: "Айтем недоступен для покупки"}
	ErrItemNotReserved         = &Error{Code: "item_not_reserved", Message: "Айтем не зарезервирован"}
	ErrUnauthorized            = &Error{Code: "unauthorized", Message: "Действие доступно только продавцу айтема"}
	ErrRequestAlreadyAccepted  = &Error{Code: "purchase_request_already_accepted", Message: "Запрос на покупку уже принят"}
	ErrOwnItemPurchase         = &Error{Code: "own_item_purchase", Message: "Нельзя отправить запрос на покупку собственного айтема"}
	ErrNotBanned               = &Error{Code: "not_banned", Message: "Цель жалобы не заблокирована"}
	ErrInvalidReason           = &Error{Code: "invalid_reason", Message: "Недопустимая причина жалобы"}
)
