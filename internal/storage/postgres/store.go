package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vachaar/vachaar-api/internal/lifecycle"
	"github.com/vachaar/vachaar-api/internal/models"
)

// PgxPool минимальная абстракция над пулом соединений Postgres.
// Реализуется *pgxpool.Pool и pgxmock.PgxPoolIface.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// querier объединяет пул и транзакцию: запросы внутри WithTx идут через
// транзакцию из контекста, остальные — напрямую через пул
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store реализует lifecycle.Store поверх PostgreSQL
type Store struct {
	pool PgxPool
}

// NewStore создает новое хранилище поверх пула соединений
func NewStore(pool PgxPool) *Store {
	return &Store{pool: pool}
}

type txKey struct{}

// WithTx выполняет fn внутри одной транзакции. Вложенные вызовы
// переиспользуют уже открытую транзакцию из контекста.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func (s *Store) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

const itemColumns = `id, seller_id, buyer_id, category_id, title, price, description, state, is_banned, created_at, updated_at`

func scanItem(row pgx.Row) (models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID,
		&item.SellerID,
		&item.BuyerID,
		&item.CategoryID,
		&item.Title,
		&item.Price,
		&item.Description,
		&item.State,
		&item.IsBanned,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Item{}, lifecycle.ErrItemNotFound
		}
		return models.Item{}, err
	}
	return item, nil
}

// GetItem возвращает айтем по ID
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (models.Item, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	return scanItem(row)
}

// GetItemForUpdate возвращает айтем с блокировкой строки до конца транзакции
func (s *Store) GetItemForUpdate(ctx context.Context, id uuid.UUID) (models.Item, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
	return scanItem(row)
}

// SetItemState обновляет состояние айтема и закрепленного покупателя
func (s *Store) SetItemState(ctx context.Context, id uuid.UUID, state string, buyerID *uuid.UUID) error {
	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE items SET state = $2, buyer_id = $3, updated_at = NOW() WHERE id = $1
	`, id, state, buyerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrItemNotFound
	}
	return nil
}

// SetItemBanned устанавливает флаг бана айтема
func (s *Store) SetItemBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE items SET is_banned = $2, updated_at = NOW() WHERE id = $1
	`, id, banned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrItemNotFound
	}
	return nil
}

// BanItemsBySeller банит все айтемы продавца
func (s *Store) BanItemsBySeller(ctx context.Context, sellerID uuid.UUID) error {
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE items SET is_banned = true, updated_at = NOW() WHERE seller_id = $1
	`, sellerID)
	return err
}

// UnbanItemsBySellerExcept снимает бан с айтемов продавца, кроме перечисленных.
// Nil кодируется pgx как SQL NULL, а NOT (id = ANY(NULL)) не совпадает ни с
// одной строкой, поэтому пустой список всегда передается как пустой массив.
func (s *Store) UnbanItemsBySellerExcept(ctx context.Context, sellerID uuid.UUID, keep []uuid.UUID) error {
	if keep == nil {
		keep = []uuid.UUID{}
	}
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE items SET is_banned = false, updated_at = NOW()
		WHERE seller_id = $1 AND NOT (id = ANY($2))
	`, sellerID, keep)
	return err
}

// ItemIDsWithOpenReports возвращает ID айтемов продавца, у которых есть
// собственная неотклоненная жалоба
func (s *Store) ItemIDsWithOpenReports(ctx context.Context, sellerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT i.id
		FROM items i
		JOIN reports r ON r.target_type = 'item' AND r.target_id = i.id
		WHERE i.seller_id = $1 AND r.status != 'rejected'
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const requestColumns = `id, item_id, buyer_id, comment, state, created_at, updated_at`

func scanPurchaseRequest(row pgx.Row) (models.PurchaseRequest, error) {
	var request models.PurchaseRequest
	err := row.Scan(
		&request.ID,
		&request.ItemID,
		&request.BuyerID,
		&request.Comment,
		&request.State,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PurchaseRequest{}, lifecycle.ErrPurchaseRequestNotFound
		}
		return models.PurchaseRequest{}, err
	}
	return request, nil
}

// GetPurchaseRequest возвращает запрос на покупку по ID
func (s *Store) GetPurchaseRequest(ctx context.Context, id uuid.UUID) (models.PurchaseRequest, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+requestColumns+` FROM purchase_requests WHERE id = $1`, id)
	return scanPurchaseRequest(row)
}

// GetPurchaseRequestForUpdate возвращает запрос на покупку с блокировкой строки
func (s *Store) GetPurchaseRequestForUpdate(ctx context.Context, id uuid.UUID) (models.PurchaseRequest, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+requestColumns+` FROM purchase_requests WHERE id = $1 FOR UPDATE`, id)
	return scanPurchaseRequest(row)
}

// UpsertPurchaseRequest создает запрос на покупку или обновляет комментарий
// существующего запроса той же пары (айтем, покупатель)
func (s *Store) UpsertPurchaseRequest(ctx context.Context, itemID, buyerID uuid.UUID, comment string) (models.PurchaseRequest, error) {
	row := s.q(ctx).QueryRow(ctx, `
		INSERT INTO purchase_requests (id, item_id, buyer_id, comment, state)
		VALUES ($1, $2, $3, $4, 'pending')
		ON CONFLICT (item_id, buyer_id)
		DO UPDATE SET comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING `+requestColumns,
		uuid.New(), itemID, buyerID, comment)
	return scanPurchaseRequest(row)
}

// SetPurchaseRequestState обновляет состояние запроса на покупку
func (s *Store) SetPurchaseRequestState(ctx context.Context, id uuid.UUID, state string) error {
	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE purchase_requests SET state = $2, updated_at = NOW() WHERE id = $1
	`, id, state)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrPurchaseRequestNotFound
	}
	return nil
}

// ResetAcceptedRequests возвращает все принятые запросы айтема в pending
func (s *Store) ResetAcceptedRequests(ctx context.Context, itemID uuid.UUID) error {
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE purchase_requests SET state = 'pending', updated_at = NOW()
		WHERE item_id = $1 AND state = 'accepted'
	`, itemID)
	return err
}

// GetUser возвращает пользователя по ID
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	err := s.q(ctx).QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, phone, is_staff, is_banned, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.IsStaff,
		&user.IsBanned,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, lifecycle.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// SetUserBanned устанавливает флаг бана пользователя
func (s *Store) SetUserBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE users SET is_banned = $2, updated_at = NOW() WHERE id = $1
	`, id, banned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrUserNotFound
	}
	return nil
}

const reportColumns = `id, target_type, target_id, spam, amoral, fraud, illegal, price_issue, contact_issue, category_issue, responsiveness_issue, other, status, admin_note, created_at, updated_at`

func scanReport(row pgx.Row) (models.Report, error) {
	var report models.Report
	err := row.Scan(
		&report.ID,
		&report.Target.Type,
		&report.Target.ID,
		&report.Spam,
		&report.Amoral,
		&report.Fraud,
		&report.Illegal,
		&report.PriceIssue,
		&report.ContactIssue,
		&report.CategoryIssue,
		&report.ResponsivenessIssue,
		&report.Other,
		&report.Status,
		&report.AdminNote,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Report{}, lifecycle.ErrReportNotFound
		}
		return models.Report{}, err
	}
	return report, nil
}

// GetReportForUpdate возвращает жалобу с блокировкой строки
func (s *Store) GetReportForUpdate(ctx context.Context, id uuid.UUID) (models.Report, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1 FOR UPDATE`, id)
	return scanReport(row)
}

// reasonColumns сопоставляет причину жалобы имени столбца-счетчика.
// Белый список: имя столбца никогда не берется из пользовательского ввода напрямую.
var reasonColumns = map[string]string{
	models.ReasonSpam:                "spam",
	models.ReasonAmoral:              "amoral",
	models.ReasonFraud:               "fraud",
	models.ReasonIllegal:             "illegal",
	models.ReasonPriceIssue:          "price_issue",
	models.ReasonContactIssue:        "contact_issue",
	models.ReasonCategoryIssue:       "category_issue",
	models.ReasonResponsivenessIssue: "responsiveness_issue",
	models.ReasonOther:               "other",
}

// UpsertReportCount создает агрегированную жалобу для цели или увеличивает
// счетчик причины в существующей записи
func (s *Store) UpsertReportCount(ctx context.Context, target models.ReportTarget, reason string) (models.Report, error) {
	column, ok := reasonColumns[reason]
	if !ok {
		return models.Report{}, lifecycle.ErrInvalidReason
	}

	query := fmt.Sprintf(`
		INSERT INTO reports (id, target_type, target_id, %s, status)
		VALUES ($1, $2, $3, 1, 'reviewing')
		ON CONFLICT (target_type, target_id)
		DO UPDATE SET %s = reports.%s + 1, updated_at = NOW()
		RETURNING `+reportColumns, column, column, column)

	row := s.q(ctx).QueryRow(ctx, query, uuid.New(), target.Type, target.ID)
	return scanReport(row)
}

// SetReportStatus обновляет статус жалобы и заметку модератора
func (s *Store) SetReportStatus(ctx context.Context, id uuid.UUID, status, adminNote string) error {
	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE reports SET status = $2, admin_note = $3, updated_at = NOW() WHERE id = $1
	`, id, status, adminNote)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrReportNotFound
	}
	return nil
}
