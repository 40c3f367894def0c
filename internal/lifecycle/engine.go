package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/vachaar/vachaar-api/internal/models"
)

// Store определяет доступ движка к хранилищу. Все методы чтения "ForUpdate"
// должны блокировать строку до конца транзакции, чтобы предпосылки
// перепроверялись уже под блокировкой.
type Store interface {
	// WithTx выполняет fn внутри одной транзакции: либо все записи
	// применяются, либо ни одна
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetItem(ctx context.Context, id uuid.UUID) (models.Item, error)
	GetItemForUpdate(ctx context.Context, id uuid.UUID) (models.Item, error)
	SetItemState(ctx context.Context, id uuid.UUID, state string, buyerID *uuid.UUID) error
	SetItemBanned(ctx context.Context, id uuid.UUID, banned bool) error
	BanItemsBySeller(ctx context.Context, sellerID uuid.UUID) error
	UnbanItemsBySellerExcept(ctx context.Context, sellerID uuid.UUID, keep []uuid.UUID) error
	ItemIDsWithOpenReports(ctx context.Context, sellerID uuid.UUID) ([]uuid.UUID, error)

	GetPurchaseRequest(ctx context.Context, id uuid.UUID) (models.PurchaseRequest, error)
	GetPurchaseRequestForUpdate(ctx context.Context, id uuid.UUID) (models.PurchaseRequest, error)
	UpsertPurchaseRequest(ctx context.Context, itemID, buyerID uuid.UUID, comment string) (models.PurchaseRequest, error)
	SetPurchaseRequestState(ctx context.Context, id uuid.UUID, state string) error
	ResetAcceptedRequests(ctx context.Context, itemID uuid.UUID) error

	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	SetUserBanned(ctx context.Context, id uuid.UUID, banned bool) error

	GetReportForUpdate(ctx context.Context, id uuid.UUID) (models.Report, error)
	UpsertReportCount(ctx context.Context, target models.ReportTarget, reason string) (models.Report, error)
	SetReportStatus(ctx context.Context, id uuid.UUID, status, adminNote string) error
}

// Notifier отправляет уведомления о бане. Вызывается только после успешного
// коммита транзакции; ошибки доставки логируются самим нотификатором
type Notifier interface {
	NotifyBan(user models.User, target models.ReportTarget, reason string)
}

// Engine реализует машину состояний айтема и связанных запросов на покупку
type Engine struct {
	store    Store
	notifier Notifier
}

// NewEngine создает новый экземпляр Engine
func NewEngine(store Store, notifier Notifier) *Engine {
	return &Engine{store: store, notifier: notifier}
}

// CreatePurchaseRequest создает запрос на покупку айтема или обновляет
// комментарий существующего запроса той же пары (айтем, покупатель)
func (e *Engine) CreatePurchaseRequest(ctx context.Context, itemID, buyerID uuid.UUID, comment string) (models.PurchaseRequest, error) {
	var request models.PurchaseRequest

	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		item, err := e.store.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		// Забаненный айтем недоступен независимо от состояния
		if item.IsBanned {
			return ErrItemBanned
		}

		if item.State != models.ItemStateActive {
			return ErrItemNotAvailable
		}

		if item.SellerID == buyerID {
			return ErrOwnItemPurchase
		}

		request, err = e.store.UpsertPurchaseRequest(ctx, itemID, buyerID, comment)
		return err
	})
	if err != nil {
		return models.PurchaseRequest{}, err
	}

	return request, nil
}

// AcceptPurchaseRequest принимает запрос на покупку: запрос переходит в
// accepted, айтем резервируется за покупателем. Принять запрос можно только
// для активного айтема, повторное принятие отклоняется.
func (e *Engine) AcceptPurchaseRequest(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	return e.store.WithTx(ctx, func(ctx context.Context) error {
		// Сначала находим айтем, чтобы блокировки всегда брались в одном
		// порядке (айтем, затем заявка) во всех операциях движка
		request, err := e.store.GetPurchaseRequest(ctx, requestID)
		if err != nil {
			return err
		}

		item, err := e.store.GetItemForUpdate(ctx, request.ItemID)
		if err != nil {
			return err
		}

		// Перечитываем заявку уже под блокировкой
		request, err = e.store.GetPurchaseRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		if item.IsBanned {
			return ErrItemBanned
		}

		if item.SellerID != actingUserID {
			return ErrUnauthorized
		}

		if request.State == models.PurchaseRequestStateAccepted {
			return ErrRequestAlreadyAccepted
		}

		// Айтем мог быть зарезервирован или продан по другому запросу
		// между чтением и принятием — проверяем уже под блокировкой
		if item.State != models.ItemStateActive {
			return ErrItemNotAvailable
		}

		if err := e.store.SetPurchaseRequestState(ctx, requestID, models.PurchaseRequestStateAccepted); err != nil {
			return err
		}

		buyerID := request.BuyerID
		return e.store.SetItemState(ctx, item.ID, models.ItemStateReserved, &buyerID)
	})
}

// MarkItemAsSold помечает зарезервированный айтем как проданный
func (e *Engine) MarkItemAsSold(ctx context.Context, itemID, actingUserID uuid.UUID) error {
	return e.store.WithTx(ctx, func(ctx context.Context) error {
		item, err := e.store.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		if item.IsBanned {
			return ErrItemBanned
		}

		if item.SellerID != actingUserID {
			return ErrUnauthorized
		}

		if item.State != models.ItemStateReserved {
			return ErrItemNotReserved
		}

		// Покупатель уже закреплен за айтемом при принятии запроса
		return e.store.SetItemState(ctx, itemID, models.ItemStateSold, item.BuyerID)
	})
}

// ReactivateItem возвращает зарезервированный айтем в активное состояние:
// резерв снимается, все принятые запросы сбрасываются обратно в pending,
// чтобы интерес покупателей не потерялся
func (e *Engine) ReactivateItem(ctx context.Context, itemID, actingUserID uuid.UUID) error {
	return e.store.WithTx(ctx, func(ctx context.Context) error {
		item, err := e.store.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		if item.IsBanned {
			return ErrItemBanned
		}

		if item.SellerID != actingUserID {
			return ErrUnauthorized
		}

		if item.State != models.ItemStateReserved {
			return ErrItemNotReserved
		}

		if err := e.store.SetItemState(ctx, itemID, models.ItemStateActive, nil); err != nil {
			return err
		}

		return e.store.ResetAcceptedRequests(ctx, itemID)
	})
}

// SubmitItemReport регистрирует жалобу на айтем: увеличивает счетчик причины
// в агрегированной записи жалоб айтема
func (e *Engine) SubmitItemReport(ctx context.Context, itemID uuid.UUID, reason string) (models.Report, error) {
	if !models.IsValidReportReason(models.ReportTargetItem, reason) {
		return models.Report{}, ErrInvalidReason
	}

	var report models.Report
	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := e.store.GetItem(ctx, itemID); err != nil {
			return err
		}

		var err error
		report, err = e.store.UpsertReportCount(ctx, models.ReportTarget{Type: models.ReportTargetItem, ID: itemID}, reason)
		return err
	})
	if err != nil {
		return models.Report{}, err
	}

	return report, nil
}

// SubmitUserReport регистрирует жалобу на пользователя
func (e *Engine) SubmitUserReport(ctx context.Context, userID uuid.UUID, reason string) (models.Report, error) {
	if !models.IsValidReportReason(models.ReportTargetUser, reason) {
		return models.Report{}, ErrInvalidReason
	}

	var report models.Report
	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := e.store.GetUser(ctx, userID); err != nil {
			return err
		}

		var err error
		report, err = e.store.UpsertReportCount(ctx, models.ReportTarget{Type: models.ReportTargetUser, ID: userID}, reason)
		return err
	})
	if err != nil {
		return models.Report{}, err
	}

	return report, nil
}

// Ban принимает жалобу и блокирует её цель. Для жалобы на пользователя бан
// каскадно распространяется на все айтемы, которые он продает. Состояние
// айтема при бане не меняется — забаненный reserved остается reserved.
// Уведомление отправляется только после коммита транзакции.
func (e *Engine) Ban(ctx context.Context, reportID uuid.UUID, reason string) error {
	var notifyUser models.User
	var target models.ReportTarget

	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		report, err := e.store.GetReportForUpdate(ctx, reportID)
		if err != nil {
			return err
		}

		if !models.IsValidReportReason(report.Target.Type, reason) {
			return ErrInvalidReason
		}

		target = report.Target

		switch report.Target.Type {
		case models.ReportTargetItem:
			item, err := e.store.GetItemForUpdate(ctx, report.Target.ID)
			if err != nil {
				return err
			}

			if err := e.store.SetItemBanned(ctx, item.ID, true); err != nil {
				return err
			}

			// Уведомляем продавца забаненного айтема
			notifyUser, err = e.store.GetUser(ctx, item.SellerID)
			if err != nil {
				return err
			}

		case models.ReportTargetUser:
			user, err := e.store.GetUser(ctx, report.Target.ID)
			if err != nil {
				return err
			}

			// Каскад: бан пользователя блокирует все его айтемы
			if err := e.store.BanItemsBySeller(ctx, user.ID); err != nil {
				return err
			}

			if err := e.store.SetUserBanned(ctx, user.ID, true); err != nil {
				return err
			}

			notifyUser = user
		}

		return e.store.SetReportStatus(ctx, reportID, models.ReportStatusAccepted, reason)
	})
	if err != nil {
		return err
	}

	// Уведомление отправляется строго после коммита: откат транзакции
	// не должен оставить пользователя с письмом о несуществующем бане
	e.notifier.NotifyBan(notifyUser, target, reason)

	return nil
}

// Unban отклоняет жалобу и снимает бан с её цели. При разбане пользователя
// его айтемы с собственной неотклоненной жалобой остаются забаненными.
func (e *Engine) Unban(ctx context.Context, reportID uuid.UUID) error {
	return e.store.WithTx(ctx, func(ctx context.Context) error {
		report, err := e.store.GetReportForUpdate(ctx, reportID)
		if err != nil {
			return err
		}

		switch report.Target.Type {
		case models.ReportTargetItem:
			item, err := e.store.GetItemForUpdate(ctx, report.Target.ID)
			if err != nil {
				return err
			}

			if !item.IsBanned {
				return ErrNotBanned
			}

			if err := e.store.SetItemBanned(ctx, item.ID, false); err != nil {
				return err
			}

		case models.ReportTargetUser:
			user, err := e.store.GetUser(ctx, report.Target.ID)
			if err != nil {
				return err
			}

			if !user.IsBanned {
				return ErrNotBanned
			}

			// Айтемы с независимой активной жалобой не разбаниваются
			keep, err := e.store.ItemIDsWithOpenReports(ctx, user.ID)
			if err != nil {
				return err
			}

			if err := e.store.UnbanItemsBySellerExcept(ctx, user.ID, keep); err != nil {
				return err
			}

			if err := e.store.SetUserBanned(ctx, user.ID, false); err != nil {
				return err
			}
		}

		return e.store.SetReportStatus(ctx, reportID, models.ReportStatusRejected, report.AdminNote)
	})
}
